package utils

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/siyuan-infoblox/import-reorder/pkg/errors"
	"github.com/siyuan-infoblox/import-reorder/pkg/pattern"
)

// PathFilter decides which paths of a change list are handled
type PathFilter struct {
	FileTypes *pattern.Pattern // paths must match; nil accepts every path
	Ignore    *pattern.Pattern // paths matching are skipped; nil skips none
}

// Check reports whether path passes the filter, and the skip reason if not
func (f PathFilter) Check(path string) (bool, string) {
	if f.FileTypes != nil && !f.FileTypes.Match(path) {
		return false, errors.SkipMsgFileType
	}
	if f.Ignore.Match(path) {
		return false, errors.SkipMsgIgnored
	}
	return true, ""
}

// ParseChangeList reads newline separated paths, dropping blank lines and
// repeated paths while keeping the first-seen order
func ParseChangeList(r io.Reader) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		path := strings.TrimSpace(scanner.Text())
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// FindSourceFiles recursively finds all files under root accepted by filter
func FindSourceFiles(fs afero.Fs, root string, filter PathFilter) ([]string, error) {
	var files []string

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip dependency and hidden directories (but not the root directory)
		if info.IsDir() {
			if path == root {
				return nil
			}
			name := filepath.Base(path)
			if name == "node_modules" || name == "vendor" || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if ok, _ := filter.Check(path); ok && info.Mode().IsRegular() {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// IsDirectory checks if the given path is a directory
func IsDirectory(fs afero.Fs, path string) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
