//go:build !linux

package fsutil

import "github.com/spf13/afero"

// renameNoReplace falls back to a checked rename on platforms without
// renameat2.
func renameNoReplace(oldpath, newpath string) error {
	return checkedRename(afero.NewOsFs(), oldpath, newpath)
}
