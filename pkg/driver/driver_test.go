package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/siyuan-infoblox/import-reorder/pkg/config"
	"github.com/siyuan-infoblox/import-reorder/pkg/errors"
	"github.com/siyuan-infoblox/import-reorder/pkg/formatter"
	"github.com/siyuan-infoblox/import-reorder/pkg/logging"
)

const (
	unsortedSource = "import b from './b';\nimport React from 'react';\n\nconst x = 1;\n"
	sortedSource   = "import React from 'react';\n\nimport b from './b';\n\nconst x = 1;\n"
	truncated      = "import a from 'a';\nimport b from 'b'"
)

func newTestDriver(t *testing.T, fs afero.Fs, mutate func(*Options)) *Driver {
	t.Helper()

	cfg, err := config.Default()
	require.NoError(t, err)
	fopts, err := cfg.FormatterOptions()
	require.NoError(t, err)
	filter, err := cfg.PathFilter()
	require.NoError(t, err)

	opts := Options{Root: "/repo", Filter: filter, Jobs: 2}
	if mutate != nil {
		mutate(&opts)
	}
	return New(fs, formatter.New(fopts), opts)
}

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_Outcomes(t *testing.T) {
	req := require.New(t)
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/repo/src/a.js":          unsortedSource,
		"/repo/src/sorted.js":     sortedSource,
		"/repo/src/app.config.js": unsortedSource,
		"/repo/README.md":         "# readme\n",
		"/repo/src/broken.js":     truncated,
	})

	d := newTestDriver(t, fs, nil)
	summary := d.Run(context.Background(), []string{
		"src/a.js",
		"src/sorted.js",
		"src/app.config.js",
		"README.md",
		"src/missing.js",
		"src/broken.js",
	})

	req.Len(summary.Results, 6)
	req.Equal(1, summary.Processed)
	req.Equal(1, summary.Unchanged)
	req.Equal(3, summary.Skipped)
	req.Equal(1, summary.Failed)

	tests := []struct {
		path   string
		status Status
		reason string
	}{
		{"src/a.js", StatusProcessed, ""},
		{"src/sorted.js", StatusUnchanged, ""},
		{"src/app.config.js", StatusSkipped, errors.SkipMsgIgnored},
		{"README.md", StatusSkipped, errors.SkipMsgFileType},
		{"src/missing.js", StatusSkipped, errors.SkipMsgMissing},
		{"src/broken.js", StatusFailed, ""},
	}
	for i, tt := range tests {
		r := summary.Results[i]
		req.Equal(tt.path, r.Path)
		req.Equal(tt.status, r.Status, "status of %s", tt.path)
		req.Equal(tt.reason, r.Reason, "reason of %s", tt.path)
	}

	req.ErrorIs(summary.Results[5].Err, errors.ErrParse)

	req.Equal(sortedSource, readFile(t, fs, "/repo/src/a.js"))
	req.Equal(sortedSource, readFile(t, fs, "/repo/src/sorted.js"))
	req.Equal(unsortedSource, readFile(t, fs, "/repo/src/app.config.js"), "ignored files are not touched")
	req.Equal(truncated, readFile(t, fs, "/repo/src/broken.js"), "failed files are not touched")
}

func TestRun_DryRun(t *testing.T) {
	req := require.New(t)
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/repo/src/a.js": unsortedSource})

	d := newTestDriver(t, fs, func(o *Options) { o.DryRun = true })
	summary := d.Run(context.Background(), []string{"src/a.js"})

	req.Equal(1, summary.Processed)
	req.Equal(unsortedSource, readFile(t, fs, "/repo/src/a.js"))
}

func TestRun_DeduplicatesPaths(t *testing.T) {
	req := require.New(t)
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/repo/src/a.js": unsortedSource})

	d := newTestDriver(t, fs, nil)
	summary := d.Run(context.Background(), []string{"src/a.js", "./src/a.js", "/repo/src/a.js"})

	req.Len(summary.Results, 1)
	req.Equal("src/a.js", summary.Results[0].Path)
	req.Equal(1, summary.Processed)
}

func TestRun_NotRegular(t *testing.T) {
	req := require.New(t)
	fs := afero.NewMemMapFs()
	req.NoError(fs.MkdirAll("/repo/src/dir.js", 0755))

	d := newTestDriver(t, fs, nil)
	summary := d.Run(context.Background(), []string{"src/dir.js"})

	req.Equal(StatusSkipped, summary.Results[0].Status)
	req.Equal(errors.SkipMsgNotRegular, summary.Results[0].Reason)
}

func TestRun_ExpandDirs(t *testing.T) {
	req := require.New(t)
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/repo/src/a.js":                unsortedSource,
		"/repo/src/app.config.js":       unsortedSource,
		"/repo/src/nested/b.ts":         unsortedSource,
		"/repo/src/node_modules/dep.js": unsortedSource,
		"/repo/src/.cache/generated.js": unsortedSource,
		"/repo/src/notes.txt":           "notes\n",
	})

	d := newTestDriver(t, fs, func(o *Options) { o.ExpandDirs = true })
	summary := d.Run(context.Background(), []string{"src", "src/a.js"})

	var paths []string
	for _, r := range summary.Results {
		paths = append(paths, r.Path)
	}
	req.Equal([]string{"src/a.js", "src/nested/b.ts"}, paths)
	req.Equal(2, summary.Processed)
	req.Equal(unsortedSource, readFile(t, fs, "/repo/src/node_modules/dep.js"))
	req.Equal(unsortedSource, readFile(t, fs, "/repo/src/.cache/generated.js"))
}

func TestRun_Cancelled(t *testing.T) {
	req := require.New(t)
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/repo/src/a.js": unsortedSource})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDriver(t, fs, nil)
	summary := d.Run(ctx, []string{"src/a.js"})

	req.Equal(1, summary.Skipped)
	req.Equal(errors.SkipMsgCancelled, summary.Results[0].Reason)
	req.Equal(unsortedSource, readFile(t, fs, "/repo/src/a.js"))
}

func TestRun_ManyFilesConcurrently(t *testing.T) {
	req := require.New(t)
	fs := afero.NewMemMapFs()

	files := make(map[string]string)
	var paths []string
	for i := 0; i < 40; i++ {
		path := fmt.Sprintf("src/file%02d.js", i)
		files["/repo/"+path] = unsortedSource
		paths = append(paths, path)
	}
	writeFiles(t, fs, files)

	d := newTestDriver(t, fs, func(o *Options) { o.Jobs = 8 })
	summary := d.Run(context.Background(), paths)

	req.Equal(40, summary.Processed)
	for i, r := range summary.Results {
		req.Equal(paths[i], r.Path, "results keep input order")
		req.Equal(sortedSource, readFile(t, fs, "/repo/"+r.Path))
	}
}

func TestProcessFile_KeepsPermissionsAndLeavesNoTempFiles(t *testing.T) {
	req := require.New(t)
	fs := afero.NewMemMapFs()
	req.NoError(fs.MkdirAll("/repo/src", 0755))
	req.NoError(afero.WriteFile(fs, "/repo/src/a.js", []byte(unsortedSource), 0600))

	d := newTestDriver(t, fs, nil)
	r := d.ProcessFile("src/a.js")
	req.Equal(StatusProcessed, r.Status)
	req.NoError(r.Err)

	info, err := fs.Stat("/repo/src/a.js")
	req.NoError(err)
	req.Equal(os.FileMode(0600), info.Mode().Perm())

	entries, err := afero.ReadDir(fs, "/repo/src")
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal("a.js", entries[0].Name())
}

func TestWriteFileAtomic_FailureRemovesTempFile(t *testing.T) {
	req := require.New(t)
	base := afero.NewMemMapFs()
	req.NoError(base.MkdirAll("/repo", 0755))
	fs := afero.NewReadOnlyFs(base)

	err := writeFileAtomic(fs, "/repo/a.js", []byte("x"), 0644)
	req.Error(err)

	entries, err := afero.ReadDir(base, "/repo")
	req.NoError(err)
	req.Empty(entries)
}

func TestRun_MissingPathIsReportedByDefault(t *testing.T) {
	req := require.New(t)
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	defer func(l zerolog.Logger) { log.Logger = l }(log.Logger)

	var buf bytes.Buffer
	logging.SetupLogger(&buf, 0)

	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/repo/src/a.js": sortedSource})

	d := newTestDriver(t, fs, nil)
	d.Run(context.Background(), []string{"src/a.js", "src/gone.js"})

	out := buf.String()
	req.Contains(out, errors.InfoMsgSkippingFile)
	req.Contains(out, "src/gone.js")
	req.Contains(out, errors.SkipMsgMissing)
	req.NotContains(out, "src/a.js", "unchanged files stay quiet")
}

func TestProcessFile_KeepsSymlinks(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "real.js")
	req.NoError(os.WriteFile(target, []byte(unsortedSource), 0644))
	if err := os.Symlink("real.js", filepath.Join(dir, "link.js")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	d := newTestDriver(t, afero.NewOsFs(), func(o *Options) { o.Root = dir })
	r := d.ProcessFile("link.js")
	req.Equal(StatusProcessed, r.Status)
	req.NoError(r.Err)

	info, err := os.Lstat(filepath.Join(dir, "link.js"))
	req.NoError(err)
	req.NotZero(info.Mode()&os.ModeSymlink, "link must survive the write")

	data, err := os.ReadFile(target)
	req.NoError(err)
	req.Equal(sortedSource, string(data))

	entries, err := os.ReadDir(dir)
	req.NoError(err)
	req.Len(entries, 2)
}

func TestResolveLinks(t *testing.T) {
	req := require.New(t)

	mem := afero.NewMemMapFs()
	req.NoError(afero.WriteFile(mem, "/repo/a.js", nil, 0644))
	path, err := resolveLinks(mem, "/repo/a.js")
	req.NoError(err)
	req.Equal("/repo/a.js", path)

	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, "target.js"), nil, 0644))
	if err := os.Symlink("target.js", filepath.Join(dir, "one.js")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	req.NoError(os.Symlink(filepath.Join(dir, "one.js"), filepath.Join(dir, "two.js")))
	req.NoError(os.Symlink("loop.js", filepath.Join(dir, "loop.js")))

	path, err = resolveLinks(afero.NewOsFs(), filepath.Join(dir, "two.js"))
	req.NoError(err)
	req.Equal(filepath.Join(dir, "target.js"), path)

	_, err = resolveLinks(afero.NewOsFs(), filepath.Join(dir, "loop.js"))
	req.ErrorContains(err, errors.ErrMsgTooManyLinks)
}

func TestStatus_String(t *testing.T) {
	req := require.New(t)
	req.Equal("processed", StatusProcessed.String())
	req.Equal("unchanged", StatusUnchanged.String())
	req.Equal("skipped", StatusSkipped.String())
	req.Equal("failed", StatusFailed.String())
	req.Equal("Status(9)", Status(9).String())
}
