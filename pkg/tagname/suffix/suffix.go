// Package suffix encodes content digests into short file name tags and
// recognizes those tags in existing names.
//
// A tagged name has the form STEM__TAG.EXT, where TAG is a prefix of the
// unpadded base64url encoding of the file's digest. Tags are always produced
// at an exact requested length: a longer tag is not guaranteed to extend a
// shorter one, because base64 groups bytes in threes.
package suffix

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"

	"github.com/jamesainslie/tagname/pkg/tagname/digest"
)

const (
	// Separator joins the stem and the tag.
	Separator = "__"

	// MinParseChars is the shortest tag Parse accepts. It is deliberately
	// looser than DefaultChars so tags written by older runs still parse.
	MinParseChars = 4

	// DefaultChars is the default length of a newly generated tag.
	DefaultChars = 6

	// MaxChars is the longest tag a 32-byte digest can produce.
	MaxChars = (digest.Size*8 + 5) / 6
)

// ErrLength is returned by Encode for lengths outside [1, MaxChars].
var ErrLength = errors.New("suffix: tag length out of range")

var taggedStem = regexp.MustCompile(fmt.Sprintf(`^(.*)%s([A-Za-z0-9_-]{%d,})$`, Separator, MinParseChars))

// Encode returns the first n characters of the base64url encoding of the
// digest prefix that is just long enough to yield n characters.
func Encode(sum digest.Sum, n int) (string, error) {
	if n < 1 || n > MaxChars {
		return "", fmt.Errorf("%w: %d", ErrLength, n)
	}
	nBytes := (3*n + 3) / 4
	if nBytes > digest.Size {
		nBytes = digest.Size
	}
	return base64.RawURLEncoding.EncodeToString(sum[:nBytes])[:n], nil
}

// Parse splits a tagged stem into its base stem and tag. The split happens at
// the last "__" whose remainder is a run of [A-Za-z0-9_-] of at least
// MinParseChars characters. ok is false for untagged stems.
func Parse(stem string) (base, tag string, ok bool) {
	m := taggedStem.FindStringSubmatch(stem)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Verify reports whether tag was produced from sum: it must be at least
// minChars long and equal Encode(sum, len(tag)).
func Verify(tag string, sum digest.Sum, minChars int) bool {
	if len(tag) < minChars {
		return false
	}
	expected, err := Encode(sum, len(tag))
	if err != nil {
		return false
	}
	return tag == expected
}
