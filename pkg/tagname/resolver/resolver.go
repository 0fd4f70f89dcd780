package resolver

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/tagname/pkg/tagname/digest"
	"github.com/jamesainslie/tagname/pkg/tagname/fsutil"
	"github.com/jamesainslie/tagname/pkg/tagname/logging"
	"github.com/jamesainslie/tagname/pkg/tagname/suffix"
	"github.com/spf13/afero"
)

// DefaultMaxCounter bounds the add-counter search.
const DefaultMaxCounter = 10_000_000

var (
	// ErrInvalidChars is returned for a minimum tag length that could not be
	// parsed back or exceeds what a digest can encode.
	ErrInvalidChars = errors.New("invalid tag length")

	// ErrCounterExhausted is returned when every STEM_N.EXT up to the bound
	// is taken.
	ErrCounterExhausted = errors.New("no free counter name")

	// ErrTagSpaceExhausted is returned when every tag length up to
	// suffix.MaxChars collides with different content.
	ErrTagSpaceExhausted = errors.New("no free tag length")
)

var logger = logging.Get("resolver")

// Resolver resolves append and strip destinations against a filesystem.
type Resolver struct {
	fs         afero.Fs
	minChars   int
	maxCounter int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMinChars sets the length of newly generated tags and the minimum
// length a tag must have to pass verification.
func WithMinChars(n int) Option {
	return func(r *Resolver) {
		r.minChars = n
	}
}

// WithMaxCounter sets the exclusive upper bound of the add-counter search.
func WithMaxCounter(n int) Option {
	return func(r *Resolver) {
		r.maxCounter = n
	}
}

// New creates a Resolver over fsys.
func New(fsys afero.Fs, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		fs:         fsys,
		minChars:   suffix.DefaultChars,
		maxCounter: DefaultMaxCounter,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.minChars < suffix.MinParseChars || r.minChars > suffix.MaxChars {
		return nil, fmt.Errorf("%w: %d (must be between %d and %d)",
			ErrInvalidChars, r.minChars, suffix.MinParseChars, suffix.MaxChars)
	}
	if r.maxCounter < 2 {
		r.maxCounter = DefaultMaxCounter
	}
	return r, nil
}

// MinChars returns the configured tag length.
func (r *Resolver) MinChars() int {
	return r.minChars
}

// ResolveAppend decides the tagged name for path whose content digest is sum.
// Starting at the configured length, it extends the tag one character at a
// time while the candidate name is held by different content.
func (r *Resolver) ResolveAppend(path string, sum digest.Sum) (Outcome, error) {
	name := suffix.Split(path)
	out := Outcome{Source: path, Digest: sum, HasDigest: true}
	if name.Tagged() {
		out.Action = AlreadyTagged
		return out, nil
	}

	for n := r.minChars; n <= suffix.MaxChars; n++ {
		tag, err := suffix.Encode(sum, n)
		if err != nil {
			return out, err
		}
		candidate := name.WithTag(tag).Path()

		exists, err := fsutil.Exists(r.fs, candidate)
		if err != nil {
			return out, err
		}
		if !exists {
			out.Action = Rename
			out.Target = candidate
			out.Tag = tag
			return out, nil
		}

		same, err := r.sameContent(path, candidate)
		if err != nil {
			return out, err
		}
		if same {
			out.Action = Duplicate
			out.Target = candidate
			out.Tag = tag
			return out, nil
		}
		logger.Debug("tag collision, extending", "path", path, "candidate", candidate, "chars", n)
	}
	return out, fmt.Errorf("%s: %w", path, ErrTagSpaceExhausted)
}

// ResolveStrip decides the untagged name for path. With verify set, the tag
// must match the file's current digest before it is removed.
func (r *Resolver) ResolveStrip(path string, policy ConflictPolicy, verify bool) (Outcome, error) {
	name := suffix.Split(path)
	out := Outcome{Source: path}
	if !name.Tagged() {
		out.Action = NotTagged
		return out, nil
	}
	out.Tag = name.Tag

	if verify {
		sum, err := digest.File(r.fs, path)
		if err != nil {
			return out, err
		}
		out.Digest = sum
		out.HasDigest = true
		if !suffix.Verify(name.Tag, sum, r.minChars) {
			out.Action = VerifyFailed
			return out, nil
		}
	}

	target := name.WithTag("").Path()
	exists, err := fsutil.Exists(r.fs, target)
	if err != nil {
		return out, err
	}
	if !exists {
		out.Action = Rename
		out.Target = target
		return out, nil
	}

	same, err := r.sameContent(path, target)
	if err != nil {
		return out, err
	}
	out.Target = target
	if same {
		out.Action = Duplicate
		return out, nil
	}

	switch policy {
	case PolicyAddCounter:
		alt, err := r.freeCounterName(name)
		if err != nil {
			return out, err
		}
		out.Action = Rename
		out.Target = alt
		out.Countered = true
		return out, nil
	case PolicyRefuse, PolicyKeepSuffixed:
		out.Action = Conflict
		out.Policy = policy
		return out, nil
	default:
		return out, fmt.Errorf("%w: %q", ErrInvalidPolicy, policy)
	}
}

// freeCounterName returns the first STEM_N.EXT that does not exist.
func (r *Resolver) freeCounterName(name suffix.Name) (string, error) {
	for i := 1; i < r.maxCounter; i++ {
		candidate := filepath.Join(name.Dir, fmt.Sprintf("%s_%d%s", name.Stem, i, name.Ext))
		exists, err := fsutil.Exists(r.fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w (tried %d)", name.Path(), ErrCounterExhausted, r.maxCounter-1)
}

// sameContent compares two files byte-for-byte via digest.SameBytes. An
// occupant that is not a regular file never counts as identical.
func (r *Resolver) sameContent(src, occupant string) (bool, error) {
	regular, err := fsutil.IsRegular(r.fs, occupant)
	if err != nil {
		return false, err
	}
	if !regular {
		return false, nil
	}
	return digest.SameBytes(r.fs, src, occupant)
}
