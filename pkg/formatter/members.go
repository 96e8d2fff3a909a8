package formatter

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/siyuan-infoblox/import-reorder/pkg/errors"
)

// sortMembers alphabetizes the members of a destructuring clause and
// wraps them one per line when the statement would be too long.
// Statements without a clause are returned unchanged
func (f *Formatter) sortMembers(index int, st Statement, nl string) (string, error) {
	body := st.Body
	if !f.opts.ImportPattern.Match(st.Flat) || !f.opts.MembersBegin.Match(st.Flat) {
		return body, nil
	}

	open := strings.IndexByte(body, '{')
	if open < 0 {
		return body, nil
	}

	closing, nested := matchBrace(body, open)
	if closing < 0 {
		return "", errors.NewParseError(index, st.Text, errors.ReasonUnbalancedBraces)
	}
	if nested {
		return body, nil
	}

	prefix := body[:open]
	postfix := body[closing+1:]
	members := splitMembers(body[open+1 : closing])
	if len(members) == 0 {
		return prefix + "{}" + postfix, nil
	}
	f.sortStrings(members)

	inline := prefix + "{ " + strings.Join(members, ", ") + " }" + postfix
	if limit := f.opts.MaxLineLength; limit <= 0 || utf8.RuneCountInString(inline) <= limit {
		return inline, nil
	}

	indent := f.getIndent()
	return prefix + "{" + nl +
		indent + strings.Join(members, ","+nl+indent) + nl +
		"}" + postfix, nil
}

// matchBrace finds the brace closing the one at open, and whether other
// braces are nested inside. It returns -1 when the brace is never closed
func matchBrace(s string, open int) (int, bool) {
	depth := 0
	nested := false
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
			if depth > 1 {
				nested = true
			}
		case '}':
			depth--
			if depth == 0 {
				return i, nested
			}
		}
	}
	return -1, nested
}

// splitMembers splits a member list on commas, dropping empty entries
func splitMembers(s string) []string {
	var members []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			members = append(members, m)
		}
	}
	return members
}

// sortStrings sorts in place using the configured case rule
func (f *Formatter) sortStrings(s []string) {
	sort.SliceStable(s, func(i, j int) bool {
		return f.compare(s[i], s[j]) < 0
	})
}

// compare orders two strings by the configured case rule, falling back to
// byte order so the result is total
func (f *Formatter) compare(a, b string) int {
	if !f.opts.CaseSensitive {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

// getIndent returns the indent for wrapped member lists
func (f *Formatter) getIndent() string {
	n := f.opts.IndentSpaces
	if n <= 0 {
		n = 2
	}
	return strings.Repeat(" ", n)
}
