package utils

import (
	"os"
	"path/filepath"
)

// ConfigFileNames are the project config files looked up, in order of preference
var ConfigFileNames = []string{
	".import-reorder.yaml",
	".import-reorder.yml",
	".import-reorder.toml",
}

// FindConfigFile walks up from dir looking for one of names and returns the
// first file found, or "" when it reaches the filesystem root
func FindConfigFile(dir string, names []string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	for {
		if path := FindFileIn(dir, names); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// FindFileIn returns the first of names that is a regular file in dir, or ""
func FindFileIn(dir string, names []string) string {
	for _, name := range names {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}
