// Package digest computes the content fingerprints used to tag file names.
//
// The primary digest is a 32-byte BLAKE3 hash streamed over the file in
// fixed-size chunks, so memory use is bounded regardless of file size. A
// second, faster hash (xxHash64) backs SameBytes, which only answers whether
// two files hold identical content and never feeds into a tag.
package digest

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// Size is the length in bytes of a content digest.
const Size = 32

// DefaultChunkSize is the read size used when streaming file content.
const DefaultChunkSize = 8 * 1024 * 1024

// ErrRead is returned when a file cannot be opened or fails mid-stream.
// A digest that returns ErrRead must not be used.
var ErrRead = errors.New("digest: read failed")

// Sum is a BLAKE3 digest of a file's full byte content.
type Sum [Size]byte

// Hex returns the lowercase hexadecimal form of the digest.
func (s Sum) Hex() string {
	return hex.EncodeToString(s[:])
}

// Base64URL returns the unpadded URL-safe base64 form of the digest.
func (s Sum) Base64URL() string {
	return base64.RawURLEncoding.EncodeToString(s[:])
}

// ParseHex decodes a 64-character hexadecimal digest.
func ParseHex(s string) (Sum, error) {
	var sum Sum
	b, err := hex.DecodeString(s)
	if err != nil {
		return sum, fmt.Errorf("decoding digest: %w", err)
	}
	if len(b) != Size {
		return sum, fmt.Errorf("digest must be %d bytes, got %d", Size, len(b))
	}
	copy(sum[:], b)
	return sum, nil
}

// File streams the file at path through BLAKE3 using DefaultChunkSize reads.
func File(fsys afero.Fs, path string) (Sum, error) {
	return FileChunked(fsys, path, DefaultChunkSize)
}

// FileChunked is File with an explicit chunk size. The chunk size only
// affects memory use; the digest is identical for every chunk size.
func FileChunked(fsys afero.Fs, path string, chunkSize int) (Sum, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Sum{}, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	defer f.Close()

	sum, err := Reader(f, chunkSize)
	if err != nil {
		return Sum{}, fmt.Errorf("%s: %w", path, err)
	}
	return sum, nil
}

// Reader hashes everything readable from r until EOF. Any read error other
// than io.EOF aborts the digest and returns a zero Sum.
func Reader(r io.Reader, chunkSize int) (Sum, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	h := blake3.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Sum{}, fmt.Errorf("%w: %w", ErrRead, err)
		}
	}

	var sum Sum
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// Bytes returns the digest of an in-memory buffer.
func Bytes(data []byte) Sum {
	return Sum(blake3.Sum256(data))
}
