package config

import (
	"runtime"

	pkgerrors "github.com/pkg/errors"

	"github.com/siyuan-infoblox/import-reorder/pkg/errors"
	"github.com/siyuan-infoblox/import-reorder/pkg/formatter"
	"github.com/siyuan-infoblox/import-reorder/pkg/pattern"
	"github.com/siyuan-infoblox/import-reorder/pkg/utils"
)

// GroupConfig is one group classification rule
type GroupConfig struct {
	Name    string `koanf:"name"`
	Pattern string `koanf:"pattern"`
}

// Config holds the configuration for a reorder run
type Config struct {
	// Patterns recognising statements
	ImportPattern string `koanf:"import_pattern"`
	CommentBegin  string `koanf:"comment_begin"`
	MembersBegin  string `koanf:"members_begin"`

	// Groups are tested in order; the first match wins
	Groups       []GroupConfig `koanf:"groups"`
	DefaultGroup string        `koanf:"default_group"`
	LabelGroups  bool          `koanf:"label_groups"`

	CaseSensitive bool `koanf:"case_sensitive"`
	IndentSpaces  int  `koanf:"indent_spaces"`

	// MaxLineLength is the wrap threshold for member lists, 0 disables wrapping
	MaxLineLength int `koanf:"max_line_length"`

	// Path filters applied to the change list
	FileTypes   string `koanf:"file_types"`
	IgnoreFiles string `koanf:"ignore_files"`

	// Jobs is the number of files processed at once, 0 means one per CPU
	Jobs int `koanf:"jobs"`

	// Sources lists the config files that were loaded, in load order
	Sources []string `koanf:"-"`
}

// Validate checks the configuration without keeping the compiled patterns
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return pkgerrors.Errorf("%s: jobs must not be negative", errors.ErrMsgInvalidConfig)
	}
	if _, err := c.FormatterOptions(); err != nil {
		return err
	}
	_, err := c.PathFilter()
	return err
}

// FormatterOptions compiles the configuration into formatter options
func (c *Config) FormatterOptions() (formatter.Options, error) {
	var opts formatter.Options

	if c.ImportPattern == "" {
		return opts, pkgerrors.Errorf("%s: import_pattern is required", errors.ErrMsgInvalidConfig)
	}
	if c.DefaultGroup == "" {
		return opts, pkgerrors.Errorf("%s: default_group is required", errors.ErrMsgInvalidConfig)
	}
	if c.IndentSpaces < 0 {
		return opts, pkgerrors.Errorf("%s: indent_spaces must not be negative", errors.ErrMsgInvalidConfig)
	}
	if c.MaxLineLength < 0 {
		return opts, pkgerrors.Errorf("%s: max_line_length must not be negative", errors.ErrMsgInvalidConfig)
	}

	var err error
	if opts.ImportPattern, err = compile("import_pattern", c.ImportPattern); err != nil {
		return opts, err
	}
	if opts.CommentBegin, err = compile("comment_begin", c.CommentBegin); err != nil {
		return opts, err
	}
	if opts.MembersBegin, err = compile("members_begin", c.MembersBegin); err != nil {
		return opts, err
	}

	seen := map[string]bool{c.DefaultGroup: true}
	for i, g := range c.Groups {
		if g.Name == "" {
			return opts, pkgerrors.Errorf("%s: group %d has no name", errors.ErrMsgInvalidConfig, i)
		}
		if seen[g.Name] {
			return opts, pkgerrors.Errorf("%s: group %q is declared twice or shadows the default group", errors.ErrMsgInvalidConfig, g.Name)
		}
		seen[g.Name] = true

		if g.Pattern == "" {
			return opts, pkgerrors.Errorf("%s: group %q has no pattern", errors.ErrMsgInvalidConfig, g.Name)
		}
		p, err := compile("groups."+g.Name, g.Pattern)
		if err != nil {
			return opts, err
		}
		opts.Groups = append(opts.Groups, formatter.Group{Name: g.Name, Pattern: p})
	}

	opts.DefaultGroup = c.DefaultGroup
	opts.LabelGroups = c.LabelGroups
	opts.CaseSensitive = c.CaseSensitive
	opts.IndentSpaces = c.IndentSpaces
	opts.MaxLineLength = c.MaxLineLength
	return opts, nil
}

// PathFilter compiles the file type and ignore patterns
func (c *Config) PathFilter() (utils.PathFilter, error) {
	var filter utils.PathFilter
	var err error
	if filter.FileTypes, err = compile("file_types", c.FileTypes); err != nil {
		return filter, err
	}
	if filter.Ignore, err = compile("ignore_files", c.IgnoreFiles); err != nil {
		return filter, err
	}
	return filter, nil
}

// Workers returns the number of files to process concurrently
func (c *Config) Workers() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.NumCPU()
}

func compile(key, expr string) (*pattern.Pattern, error) {
	p, err := pattern.Compile(expr)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "%s: %s", errors.ErrMsgInvalidConfig, key)
	}
	return p, nil
}
