// Package driver applies the reorderer to a list of files: it filters the
// paths, reads each file, reorders it and writes the result back atomically.
// Failures are per file; they are logged and reported, never fatal
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/siyuan-infoblox/import-reorder/pkg/errors"
	"github.com/siyuan-infoblox/import-reorder/pkg/formatter"
	"github.com/siyuan-infoblox/import-reorder/pkg/logging"
	"github.com/siyuan-infoblox/import-reorder/pkg/utils"
)

// Status is the outcome for one path
type Status int

const (
	StatusProcessed Status = iota // rewritten, or would be in dry-run mode
	StatusUnchanged
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusUnchanged:
		return "unchanged"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result describes what happened to one path
type Result struct {
	Path   string
	Status Status
	Reason string // skip reason
	Err    error  // failure cause
}

// Summary collects the results of a run in input order
type Summary struct {
	Results   []Result
	Processed int
	Unchanged int
	Skipped   int
	Failed    int
}

// Options configures a Driver
type Options struct {
	Root       string           // relative paths are resolved against Root
	Filter     utils.PathFilter // file type and ignore rules
	Jobs       int              // files processed at once, at least 1
	DryRun     bool             // report changes without writing
	ExpandDirs bool             // replace directory paths by the source files they contain
}

// Driver runs the reorderer over files of a filesystem
type Driver struct {
	fs        afero.Fs
	formatter *formatter.Formatter
	opts      Options
	logger    zerolog.Logger
}

type target struct {
	rel  string // path as given, used for filtering and reporting
	full string
}

// New creates a Driver working on fs
func New(fs afero.Fs, f *formatter.Formatter, opts Options) *Driver {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Driver{
		fs:        fs,
		formatter: f,
		opts:      opts,
		logger:    logging.GetLogger("driver"),
	}
}

// Run processes every path. A single file is never handled by two workers:
// repeated paths are collapsed before scheduling. Once ctx is done no new
// file is started and the remaining paths are reported as skipped
func (d *Driver) Run(ctx context.Context, paths []string) Summary {
	defer logging.LogOperationStart(d.logger, "run")()

	targets := d.resolve(paths)
	results := make([]Result, len(targets))

	var g errgroup.Group
	g.SetLimit(d.opts.Jobs)
	for i, t := range targets {
		if ctx.Err() != nil {
			results[i] = Result{Path: t.rel, Status: StatusSkipped, Reason: errors.SkipMsgCancelled}
			continue
		}
		g.Go(func() error {
			results[i] = d.processTarget(t)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusProcessed:
			summary.Processed++
		case StatusUnchanged:
			summary.Unchanged++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}
	return summary
}

// ProcessFile reorders a single path
func (d *Driver) ProcessFile(path string) Result {
	return d.processTarget(d.newTarget(path))
}

// resolve turns the given paths into deduplicated targets, expanding
// directories when configured to
func (d *Driver) resolve(paths []string) []target {
	var targets []target
	seen := make(map[string]bool, len(paths))
	add := func(t target) {
		if !seen[t.full] {
			seen[t.full] = true
			targets = append(targets, t)
		}
	}

	for _, path := range paths {
		t := d.newTarget(path)
		if !d.opts.ExpandDirs {
			add(t)
			continue
		}
		if isDir, err := utils.IsDirectory(d.fs, t.full); err != nil || !isDir {
			add(t)
			continue
		}

		// filter on paths relative to Root, not on where Root lives
		files, err := utils.FindSourceFiles(d.fs, t.full, utils.PathFilter{})
		if err != nil {
			d.logger.Warn().Err(err).Str("path", t.rel).Msg(errors.InfoMsgErrorProcessing)
			continue
		}
		for _, file := range files {
			ft := d.targetFor(file)
			if ok, _ := d.opts.Filter.Check(ft.rel); ok {
				add(ft)
			}
		}
	}
	return targets
}

func (d *Driver) newTarget(path string) target {
	if filepath.IsAbs(path) {
		return d.targetFor(path)
	}
	return target{rel: path, full: filepath.Clean(filepath.Join(d.opts.Root, path))}
}

// targetFor builds a target from a path already resolved against Root
func (d *Driver) targetFor(full string) target {
	full = filepath.Clean(full)
	rel := full
	if d.opts.Root != "" {
		if r, err := filepath.Rel(d.opts.Root, full); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return target{rel: rel, full: full}
}

// processTarget filters, reads, reorders and writes back one file
func (d *Driver) processTarget(t target) Result {
	logger := d.logger.With().Str("path", t.rel).Logger()

	if ok, reason := d.opts.Filter.Check(t.rel); !ok {
		logger.Debug().Str("reason", reason).Msg(errors.InfoMsgSkippingFile)
		return Result{Path: t.rel, Status: StatusSkipped, Reason: reason}
	}

	info, err := d.fs.Stat(t.full)
	if err != nil {
		reason := errors.SkipMsgStatFailure
		if os.IsNotExist(err) {
			reason = errors.SkipMsgMissing
		}
		logger.Warn().
			Str("reason", reason).
			Err(fmt.Errorf("%s: %w", errors.ErrMsgFailedToStatFile, err)).
			Msg(errors.InfoMsgSkippingFile)
		return Result{Path: t.rel, Status: StatusSkipped, Reason: reason}
	}
	if !info.Mode().IsRegular() {
		logger.Info().Str("reason", errors.SkipMsgNotRegular).Msg(errors.InfoMsgSkippingFile)
		return Result{Path: t.rel, Status: StatusSkipped, Reason: errors.SkipMsgNotRegular}
	}

	src, err := afero.ReadFile(d.fs, t.full)
	if err != nil {
		return d.failed(logger, t, fmt.Errorf("%s: %w", errors.ErrMsgFailedToReadFile, err))
	}

	out, err := d.formatter.Reorder(string(src))
	if err != nil {
		return d.failed(logger, t, fmt.Errorf("%s: %w", errors.ErrMsgFailedToReorderFile, err))
	}

	if out == string(src) {
		logger.Debug().Msg(errors.InfoMsgUnchangedFile)
		return Result{Path: t.rel, Status: StatusUnchanged}
	}

	if d.opts.DryRun {
		logger.Info().Msg(errors.InfoMsgWouldProcess)
		return Result{Path: t.rel, Status: StatusProcessed}
	}

	dest, err := resolveLinks(d.fs, t.full)
	if err != nil {
		return d.failed(logger, t, fmt.Errorf("%s: %w", errors.ErrMsgFailedToStatFile, err))
	}
	if err := writeFileAtomic(d.fs, dest, []byte(out), info.Mode().Perm()); err != nil {
		return d.failed(logger, t, fmt.Errorf("%s: %w", errors.ErrMsgFailedToWriteFile, err))
	}
	logger.Info().Msg(errors.InfoMsgProcessedFile)
	return Result{Path: t.rel, Status: StatusProcessed}
}

func (d *Driver) failed(logger zerolog.Logger, t target, err error) Result {
	logger.Error().Err(err).Msg(errors.InfoMsgErrorProcessing)
	return Result{Path: t.rel, Status: StatusFailed, Err: err}
}
