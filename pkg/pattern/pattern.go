package pattern

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Pattern is a compiled regular expression using ECMAScript syntax, so
// patterns written for JavaScript tooling keep their meaning
type Pattern struct {
	source string
	re     *regexp2.Regexp
}

// Compile parses expr. An empty expression yields a nil Pattern which
// never matches
func Compile(expr string) (*Pattern, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return &Pattern{source: expr, re: re}, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(expr string) *Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether s contains a match of the pattern
func (p *Pattern) Match(s string) bool {
	if p == nil {
		return false
	}
	// MatchTimeout is never set, so the only error regexp2 can report
	// (a timeout) does not occur
	ok, _ := p.re.MatchString(s)
	return ok
}

func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.source
}
