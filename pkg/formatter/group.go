package formatter

import (
	"strings"
)

// groupImports sorts the statements of the import region into group buckets
// and stray statements. Comment-only statements are carried forward and
// attached to the next statement. The input slice is not modified
func (f *Formatter) groupImports(sec Section) (grouped, error) {
	g := grouped{buckets: make(map[string][]entry)}
	nl := sec.Newline
	var pending strings.Builder

	for i, st := range sec.Imports {
		comment := f.stripLabels(st.Comment)
		if st.Body == "" {
			if comment = strings.TrimRight(comment, "\r\n"); comment != "" {
				pending.WriteString(comment)
				pending.WriteString(nl)
			}
			continue
		}
		lead := pending.String() + comment
		pending.Reset()

		if !f.isImport(st) {
			g.strays = append(g.strays, lead+st.Body)
			continue
		}

		body, err := f.sortMembers(i, st, nl)
		if err != nil {
			return grouped{}, err
		}
		name := f.classifyImport(st)
		g.buckets[name] = append(g.buckets[name], entry{
			text:   lead + body,
			flat:   st.Flat,
			source: st.Source,
		})
	}

	if rest := strings.TrimRight(pending.String(), "\r\n"); rest != "" {
		g.strays = append(g.strays, rest)
	}
	return g, nil
}

// classifyImport determines which group an import statement belongs to
func (f *Formatter) classifyImport(st Statement) string {
	for _, group := range f.opts.Groups {
		if group.Pattern.Match(st.Flat) {
			return group.Name
		}
	}
	return f.opts.DefaultGroup
}

// stripLabels removes group label lines from a comment when labels are
// generated on output
func (f *Formatter) stripLabels(comment string) string {
	if comment == "" || !f.opts.LabelGroups {
		return comment
	}
	lines := strings.SplitAfter(comment, "\n")
	var kept []string
	for _, line := range lines {
		if !f.labels[strings.TrimSpace(line)] {
			kept = append(kept, line)
		}
	}
	out := strings.TrimLeft(strings.Join(kept, ""), "\r\n")
	if strings.TrimSpace(out) == "" {
		return ""
	}
	return out
}
