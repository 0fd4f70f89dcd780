package digest

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// SameBytes reports whether the files at a and b have identical content.
// Sizes are compared first; only files of equal size are hashed. Equal-size
// files are compared by 64-bit xxHash, so a true result is probabilistic: two
// different files with colliding hashes would be reported as identical.
func SameBytes(fsys afero.Fs, a, b string) (bool, error) {
	sa, err := fsys.Stat(a)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", a, err)
	}
	sb, err := fsys.Stat(b)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", b, err)
	}
	if sa.Size() != sb.Size() {
		return false, nil
	}

	ha, err := fastHash(fsys, a)
	if err != nil {
		return false, err
	}
	hb, err := fastHash(fsys, b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

// fastHash streams a file through xxHash64.
func fastHash(fsys afero.Fs, path string) (uint64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	defer f.Close()

	h := xxhash.New()
	buf := make([]byte, DefaultChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	return h.Sum64(), nil
}
