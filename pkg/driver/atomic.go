package driver

import (
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/siyuan-infoblox/import-reorder/pkg/errors"
)

// maxLinks bounds the symbolic links followed for one path
const maxLinks = 40

// writeFileAtomic writes data to a temporary file next to path and renames it
// over path, so readers see either the old or the new content. The
// temporary file is removed when any step fails
func writeFileAtomic(fs afero.Fs, path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := afero.TempFile(fs, filepath.Dir(path), "."+filepath.Base(path)+".reorder-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fs.Chmod(tmpName, perm); err != nil {
		return err
	}
	return fs.Rename(tmpName, path)
}

// resolveLinks follows symbolic links from path so the write replaces the
// link target and keeps the link. Filesystems without links return path
func resolveLinks(fs afero.Fs, path string) (string, error) {
	lstater, ok := fs.(afero.Lstater)
	if !ok {
		return path, nil
	}
	reader, ok := fs.(afero.LinkReader)
	if !ok {
		return path, nil
	}

	for i := 0; i < maxLinks; i++ {
		info, lstatCalled, err := lstater.LstatIfPossible(path)
		if err != nil {
			return "", err
		}
		if !lstatCalled || info.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}
		dest, err := reader.ReadlinkIfPossible(path)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		path = dest
	}
	return "", stderrors.New(errors.ErrMsgTooManyLinks)
}
