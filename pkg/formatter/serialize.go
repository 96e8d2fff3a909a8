package formatter

import (
	"sort"
	"strings"
)

// serialize renders the groups in configured order, then the strays, then
// the code region, one blank line between each block
func (f *Formatter) serialize(g grouped, sec Section) string {
	nl := sec.Newline
	var blocks []string

	for _, name := range f.groupOrder() {
		entries := g.buckets[name]
		if len(entries) == 0 {
			continue
		}
		f.sortEntries(entries)

		lines := make([]string, 0, len(entries)+1)
		if f.opts.LabelGroups {
			lines = append(lines, labelFor(name))
		}
		for _, e := range entries {
			lines = append(lines, e.text)
		}
		blocks = append(blocks, strings.Join(lines, nl))
	}

	if len(g.strays) > 0 {
		blocks = append(blocks, strings.Join(g.strays, nl))
	}
	if sec.Code != "" {
		blocks = append(blocks, sec.Code)
	}

	out := strings.Join(blocks, nl+nl)
	if sec.Code == "" && sec.TrailingBreak {
		out += nl
	}
	return sec.Header + out
}

// groupOrder returns group names in declaration order followed by the default group
func (f *Formatter) groupOrder() []string {
	names := make([]string, 0, len(f.opts.Groups)+1)
	seen := make(map[string]bool, len(f.opts.Groups)+1)
	for _, group := range f.opts.Groups {
		if !seen[group.Name] {
			seen[group.Name] = true
			names = append(names, group.Name)
		}
	}
	if !seen[f.opts.DefaultGroup] {
		names = append(names, f.opts.DefaultGroup)
	}
	return names
}

// sortEntries sorts import lines by module source, then by statement text
func (f *Formatter) sortEntries(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c := f.compare(sortKey(a), sortKey(b)); c != 0 {
			return c < 0
		}
		if c := f.compare(a.flat, b.flat); c != 0 {
			return c < 0
		}
		return a.text < b.text
	})
}

func sortKey(e entry) string {
	if e.source != "" {
		return e.source
	}
	return e.flat
}

func labelFor(name string) string {
	return "// " + name
}
