// Package fsutil holds the small set of filesystem operations the renamer
// relies on: existence checks that do not follow symlinks, and a rename that
// refuses to replace an existing target.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// ErrTargetExists is returned by Rename when something already occupies the
// destination path.
var ErrTargetExists = errors.New("fsutil: target already exists")

// Exists reports whether anything, including a dangling symlink, occupies path.
func Exists(fsys afero.Fs, path string) (bool, error) {
	var err error
	if l, ok := fsys.(afero.Lstater); ok {
		_, _, err = l.LstatIfPossible(path)
	} else {
		_, err = fsys.Stat(path)
	}
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", path, err)
}

// IsRegular reports whether path is a regular file, without following links.
func IsRegular(fsys afero.Fs, path string) (bool, error) {
	var (
		info os.FileInfo
		err  error
	)
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err = l.LstatIfPossible(path)
	} else {
		info, err = fsys.Stat(path)
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Rename moves oldpath to newpath without ever replacing an existing file.
// On the real filesystem this is atomic where the kernel supports it; a
// cross-device move fails rather than copying.
func Rename(fsys afero.Fs, oldpath, newpath string) error {
	if _, ok := fsys.(*afero.OsFs); ok {
		return renameNoReplace(oldpath, newpath)
	}
	return checkedRename(fsys, oldpath, newpath)
}

// checkedRename checks the target immediately before renaming. The window
// between the check and the rename is not protected.
func checkedRename(fsys afero.Fs, oldpath, newpath string) error {
	exists, err := Exists(fsys, newpath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("rename %s -> %s: %w", oldpath, newpath, ErrTargetExists)
	}
	if err := fsys.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", oldpath, newpath, err)
	}
	return nil
}
