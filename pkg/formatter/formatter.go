// Package formatter reorders the import and require statements at the top
// of a JavaScript or TypeScript source text.
//
// Statements are split on a terminator followed by a line break. The import
// region runs from the first statement to the last one matching the import
// pattern; everything after it is left byte for byte as it was. Inside the
// region, imports are classified into the configured groups (first matching
// pattern wins), destructured members are alphabetized, and any other
// statements are moved below the groups in their original order
package formatter

// Formatter holds the options for a reorder run. It keeps no state between
// calls and is safe for concurrent use
type Formatter struct {
	opts   Options
	labels map[string]bool
}

// New creates a new Formatter with the given options
func New(opts Options) *Formatter {
	f := &Formatter{
		opts:   opts,
		labels: make(map[string]bool, len(opts.Groups)+1),
	}
	for _, name := range f.groupOrder() {
		f.labels[labelFor(name)] = true
	}
	return f
}

// Reorder returns text with its import region grouped and alphabetized.
// Text without any import statement is returned unchanged
func (f *Formatter) Reorder(text string) (string, error) {
	sec, ok, err := f.segment(text)
	if err != nil {
		return "", err
	}
	if !ok {
		return text, nil
	}

	g, err := f.groupImports(sec)
	if err != nil {
		return "", err
	}
	return f.serialize(g, sec), nil
}

// Reorder is a convenience wrapper around New(opts).Reorder(text)
func Reorder(text string, opts Options) (string, error) {
	return New(opts).Reorder(text)
}
