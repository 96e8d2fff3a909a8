package formatter

import (
	"github.com/siyuan-infoblox/import-reorder/pkg/pattern"
)

// Group is a named classification rule for import statements
type Group struct {
	Name    string
	Pattern *pattern.Pattern
}

// Options holds everything the reorderer needs; it is built once per run
type Options struct {
	ImportPattern *pattern.Pattern // identifies import/require statements
	CommentBegin  *pattern.Pattern // identifies a leading comment line
	MembersBegin  *pattern.Pattern // identifies a destructuring clause
	Groups        []Group          // tested in order, first match wins
	DefaultGroup  string           // bucket for imports matching no group
	LabelGroups   bool             // emit "// <name>" above each group
	CaseSensitive bool
	IndentSpaces  int // indent for wrapped member lists, 0 means 2
	MaxLineLength int // wrap threshold, 0 disables wrapping
}

// Statement is one piece of source text ended by a statement boundary
type Statement struct {
	Raw     string // text between boundaries, untrimmed
	Text    string // trimmed text with its terminator
	Comment string // leading comment lines of Text, with their line breaks
	Body    string // Text without Comment
	Flat    string // Body with line breaks removed, used for matching
	Source  string // module specifier, empty if none was found

	openComment bool // Comment ends inside an unclosed block comment
	terminated  bool // Text ends with the statement terminator
}

// Section is a chunk of text split into its import region and code region
type Section struct {
	Header  string // leading "#!" line, emitted first and never moved
	Imports []Statement
	Code    string

	Newline       string // line ending used when rendering the import region
	TrailingBreak bool   // the import region ended with a line break
}

// entry is an import line ready to be placed in a group
type entry struct {
	text   string // comment annotation plus sorted statement
	flat   string
	source string
}

// grouped is the result of classifying the import region
type grouped struct {
	buckets map[string][]entry
	strays  []string
}
