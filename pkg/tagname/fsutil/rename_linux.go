//go:build linux

package fsutil

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// renameNoReplace uses renameat2(RENAME_NOREPLACE) so the kernel rejects an
// occupied target. Filesystems without support fall back to a checked rename.
func renameNoReplace(oldpath, newpath string) error {
	err := unix.Renameat2(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, newpath, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return fmt.Errorf("rename %s -> %s: %w", oldpath, newpath, ErrTargetExists)
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EINVAL):
		return checkedRename(afero.NewOsFs(), oldpath, newpath)
	default:
		return fmt.Errorf("rename %s -> %s: %w", oldpath, newpath, err)
	}
}
