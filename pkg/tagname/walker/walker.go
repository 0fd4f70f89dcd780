// Package walker enumerates the regular files under a root directory.
//
// Symbolic links are never followed, so link cycles cannot trap a walk;
// directories, symlinks, sockets and devices are not reported. Callbacks are
// invoked one at a time even when the underlying walk is parallel.
package walker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/spf13/afero"
)

// FileFunc is called for each regular file. Returning an error stops the walk.
type FileFunc func(path string) error

// Options configures a walk.
type Options struct {
	// Exclude reports whether a path should be skipped. Excluded
	// directories are not descended into.
	Exclude func(path string, isDir bool) bool

	// OnError receives entries that could not be read. The walk continues.
	OnError func(path string, err error)
}

// Walker enumerates regular files under a root.
type Walker interface {
	Walk(ctx context.Context, root string, fn FileFunc) error
}

// FastWalker walks the OS filesystem with fastwalk.
type FastWalker struct {
	Options

	// Workers caps the number of directory readers. Zero lets fastwalk decide.
	Workers int
}

// NewFastWalker returns a FastWalker with the given options.
func NewFastWalker(opts Options) *FastWalker {
	return &FastWalker{Options: opts}
}

// Walk implements Walker.
func (w *FastWalker) Walk(ctx context.Context, root string, fn FileFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: w.Workers,
	}

	var (
		mu      sync.Mutex
		stopErr error
	)
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			mu.Lock()
			stopped := stopErr
			mu.Unlock()
			// fastwalk hands an error returned by fn back for the parent
			// directory; that is not a read failure.
			if stopped != nil && errors.Is(err, stopped) {
				return stopped
			}
			w.reportError(&mu, path, err)
			return nil
		}
		if d.IsDir() {
			if path != root && w.excluded(path, true) {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || w.excluded(path, false) {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		if stopErr != nil {
			return stopErr
		}
		if err := fn(path); err != nil {
			stopErr = err
			return err
		}
		return nil
	})
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		return err
	}
	return nil
}

func (w *FastWalker) excluded(path string, isDir bool) bool {
	return w.Exclude != nil && w.Exclude(path, isDir)
}

func (w *FastWalker) reportError(mu *sync.Mutex, path string, err error) {
	if w.OnError == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	w.OnError(path, err)
}

// FsWalker walks any afero filesystem sequentially.
type FsWalker struct {
	Options
	Fs afero.Fs
}

// NewFsWalker returns a FsWalker over fsys.
func NewFsWalker(fsys afero.Fs, opts Options) *FsWalker {
	return &FsWalker{Options: opts, Fs: fsys}
}

// Walk implements Walker.
func (w *FsWalker) Walk(ctx context.Context, root string, fn FileFunc) error {
	return afero.Walk(w.Fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if w.OnError != nil {
				w.OnError(path, err)
			}
			if info != nil && info.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if path != root && w.Exclude != nil && w.Exclude(path, true) {
				return fs.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if w.Exclude != nil && w.Exclude(path, false) {
			return nil
		}
		return fn(path)
	})
}

// Collect walks root and returns every reported file, sorted. Taking a
// snapshot before renaming keeps renamed files from being visited twice.
func Collect(ctx context.Context, w Walker, root string) ([]string, error) {
	var paths []string
	err := w.Walk(ctx, root, func(path string) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
