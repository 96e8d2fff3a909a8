package formatter

import (
	"regexp"
	"strings"

	"github.com/siyuan-infoblox/import-reorder/pkg/errors"
)

var (
	// boundaryRE marks the end of a statement: a terminator followed by a line break
	boundaryRE = regexp.MustCompile(`;\r?\n`)

	sourceRE = regexp.MustCompile("(?:\\bfrom|\\brequire\\s*\\()\\s*['\"`]([^'\"`]*)['\"`]")
	quotedRE = regexp.MustCompile("['\"`]([^'\"`]*)['\"`]")

	lineBreaks = strings.NewReplacer("\r", "", "\n", "")
)

// segment splits text into statements and finds where the import region ends.
// The second result is false when the text holds no import statement
func (f *Formatter) segment(text string) (Section, bool, error) {
	sec := Section{Newline: "\n"}
	sec.Header, text = splitHeader(text)

	locs := boundaryRE.FindAllStringIndex(text, -1)
	if len(locs) > 0 && text[locs[0][1]-2] == '\r' {
		sec.Newline = "\r\n"
	}

	// ends[i] is the offset just past the boundary closing statement i,
	// -1 for a final piece with no boundary
	statements := make([]Statement, 0, len(locs)+1)
	ends := make([]int, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		st := f.newStatement(text[start:loc[0]], true)
		if st.openComment {
			// the boundary is inside a block comment
			continue
		}
		statements = append(statements, st)
		ends = append(ends, loc[1])
		start = loc[1]
	}
	statements = append(statements, f.newStatement(text[start:], false))
	ends = append(ends, -1)

	last := f.findLastImportIndex(statements)
	if last < 0 {
		return sec, false, nil
	}

	if !statements[last].terminated {
		return sec, false, errors.NewParseError(last, statements[last].Text, errors.ReasonTruncated)
	}
	if tail := len(statements) - 1; statements[tail].openComment {
		return sec, false, errors.NewParseError(tail, statements[tail].Text, errors.ReasonUnterminatedComment)
	}

	sec.Imports = statements[:last+1]
	if ends[last] >= 0 {
		sec.TrailingBreak = true
		sec.Code = strings.TrimLeft(text[ends[last]:], "\r\n")
	}
	return sec, true, nil
}

// splitHeader cuts a leading "#!" interpreter line, with its line break,
// from text
func splitHeader(text string) (header, rest string) {
	if !strings.HasPrefix(text, "#!") {
		return "", text
	}
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		return text, ""
	}
	return text[:i+1], text[i+1:]
}

// findLastImportIndex returns the index of the last import statement, or -1
func (f *Formatter) findLastImportIndex(statements []Statement) int {
	last := -1
	for i, st := range statements {
		if f.isImport(st) {
			last = i
		}
	}
	return last
}

// isImport checks if a statement is an import or require statement
func (f *Formatter) isImport(st Statement) bool {
	return st.Body != "" && f.opts.ImportPattern.Match(st.Flat)
}

// newStatement builds a Statement from the raw text between two boundaries.
// bounded is true when a boundary followed the piece
func (f *Formatter) newStatement(raw string, bounded bool) Statement {
	st := Statement{Raw: raw, Text: strings.TrimSpace(raw)}
	switch {
	case bounded:
		st.Text += ";"
		st.terminated = true
	case strings.HasSuffix(st.Text, ";"):
		st.terminated = true
	}

	st.Comment, st.Body, st.openComment = f.splitComment(st.Text)
	st.Flat = lineBreaks.Replace(st.Body)
	st.Source = findSource(st.Flat)
	return st
}

// splitComment separates the leading comment lines of a statement from its body.
// Blank lines between comments belong to the comment
func (f *Formatter) splitComment(text string) (comment, body string, open bool) {
	lines := strings.SplitAfter(text, "\n")
	n := 0
	for ; n < len(lines); n++ {
		line := strings.TrimSpace(lines[n])
		if open {
			if strings.Contains(line, "*/") {
				open = false
			}
			continue
		}
		if line == "" {
			continue
		}
		if !f.opts.CommentBegin.Match(line) {
			break
		}
		if strings.HasPrefix(line, "/*") && !strings.Contains(line[2:], "*/") {
			open = true
		}
	}
	return strings.Join(lines[:n], ""), strings.Join(lines[n:], ""), open
}

// findSource extracts the module specifier of an import statement
func findSource(flat string) string {
	if m := sourceRE.FindStringSubmatch(flat); m != nil {
		return m[1]
	}
	if m := quotedRE.FindStringSubmatch(flat); m != nil {
		return m[1]
	}
	return ""
}
