package resolver

import (
	"testing"

	"github.com/jamesainslie/tagname/pkg/tagname/digest"
	"github.com/jamesainslie/tagname/pkg/tagname/suffix"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, opts ...Option) (*Resolver, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	r, err := New(fs, opts...)
	require.NoError(t, err)
	return r, fs
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func mustEncode(t *testing.T, sum digest.Sum, n int) string {
	t.Helper()
	tag, err := suffix.Encode(sum, n)
	require.NoError(t, err)
	return tag
}

func TestNew_ValidatesMinChars(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	for _, n := range []int{3, 0, suffix.MaxChars + 1} {
		_, err := New(fs, WithMinChars(n))
		assert.ErrorIs(t, err, ErrInvalidChars, "n=%d", n)
	}

	r, err := New(fs, WithMinChars(suffix.MinParseChars))
	require.NoError(t, err)
	assert.Equal(t, 4, r.MinChars())

	r, err = New(fs)
	require.NoError(t, err)
	assert.Equal(t, suffix.DefaultChars, r.MinChars())
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	for _, p := range Policies {
		got, err := ParsePolicy(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePolicy(" Add-Counter ")
	require.NoError(t, err)
	assert.Equal(t, PolicyAddCounter, got)

	_, err = ParsePolicy("overwrite")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestResolveAppend_NoCollision(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	writeFile(t, fs, "/photos/photo.jpg", "abc")
	sum := digest.Bytes([]byte("abc"))

	out, err := r.ResolveAppend("/photos/photo.jpg", sum)
	require.NoError(t, err)

	assert.Equal(t, Rename, out.Action)
	assert.Equal(t, mustEncode(t, sum, 6), out.Tag)
	assert.Equal(t, "/photos/photo__"+out.Tag+".jpg", out.Target)
	assert.True(t, out.HasDigest)
	assert.Equal(t, sum, out.Digest)
}

func TestResolveAppend_HelloScenario(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	writeFile(t, fs, "/cam/IMG_0001.jpg", "hello")

	sum, err := digest.File(fs, "/cam/IMG_0001.jpg")
	require.NoError(t, err)

	out, err := r.ResolveAppend("/cam/IMG_0001.jpg", sum)
	require.NoError(t, err)
	assert.Equal(t, Rename, out.Action)
	assert.Equal(t, "6o8WPb", out.Tag)
	assert.Equal(t, "/cam/IMG_0001__6o8WPb.jpg", out.Target)
}

func TestResolveAppend_AlreadyTagged(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	writeFile(t, fs, "/p/img__abcd.heic", "anything")

	out, err := r.ResolveAppend("/p/img__abcd.heic", digest.Bytes([]byte("anything")))
	require.NoError(t, err)
	assert.Equal(t, AlreadyTagged, out.Action)
	assert.Empty(t, out.Target)
}

func TestResolveAppend_Duplicate(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	sum := digest.Bytes([]byte("abc"))
	tag := mustEncode(t, sum, 6)
	writeFile(t, fs, "/p/photo.jpg", "abc")
	writeFile(t, fs, "/p/photo__"+tag+".jpg", "abc")

	out, err := r.ResolveAppend("/p/photo.jpg", sum)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, out.Action)
	assert.Equal(t, "/p/photo__"+tag+".jpg", out.Target)
}

func TestResolveAppend_ExtendsOnCollision(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	sum := digest.Bytes([]byte("abc"))
	base := mustEncode(t, sum, 6)
	colliding := "/p/photo__" + base + ".jpg"
	writeFile(t, fs, "/p/photo.jpg", "abc")
	writeFile(t, fs, colliding, "different")

	out, err := r.ResolveAppend("/p/photo.jpg", sum)
	require.NoError(t, err)

	require.Equal(t, Rename, out.Action)
	assert.Len(t, out.Tag, 7)
	assert.Equal(t, mustEncode(t, sum, 7), out.Tag)
	assert.NotEqual(t, colliding, out.Target)

	for _, p := range []string{colliding, out.Target} {
		n := suffix.Split(p)
		assert.True(t, n.Tagged())
		assert.Equal(t, "photo", n.Stem)
	}
}

func TestResolveAppend_ExtendsPastSeveralCollisions(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	sum := digest.Bytes([]byte("abc"))
	writeFile(t, fs, "/p/photo.jpg", "abc")
	writeFile(t, fs, "/p/photo__"+mustEncode(t, sum, 6)+".jpg", "other one")
	writeFile(t, fs, "/p/photo__"+mustEncode(t, sum, 7)+".jpg", "other two")
	require.NoError(t, fs.MkdirAll("/p/photo__"+mustEncode(t, sum, 8)+".jpg", 0o755))

	out, err := r.ResolveAppend("/p/photo.jpg", sum)
	require.NoError(t, err)
	assert.Equal(t, Rename, out.Action)
	assert.Len(t, out.Tag, 9)
}

func TestResolveAppend_ReadErrorOnOccupant(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	sum := digest.Bytes([]byte("abc"))
	writeFile(t, fs, "/p/photo__"+mustEncode(t, sum, 6)+".jpg", "abc")

	// Source missing: SameBytes cannot stat it.
	_, err := r.ResolveAppend("/p/photo.jpg", sum)
	assert.Error(t, err)
}

func TestResolveStrip_NotTagged(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	writeFile(t, fs, "/p/photo.jpg", "abc")

	out, err := r.ResolveStrip("/p/photo.jpg", PolicyRefuse, true)
	require.NoError(t, err)
	assert.Equal(t, NotTagged, out.Action)
}

func TestResolveStrip_Verified(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	sum := digest.Bytes([]byte("abc"))
	tag := mustEncode(t, sum, 6)
	src := "/p/photo__" + tag + ".jpg"
	writeFile(t, fs, src, "abc")

	out, err := r.ResolveStrip(src, PolicyRefuse, true)
	require.NoError(t, err)
	assert.Equal(t, Rename, out.Action)
	assert.Equal(t, "/p/photo.jpg", out.Target)
	assert.Equal(t, tag, out.Tag)
	assert.True(t, out.HasDigest)
	assert.Equal(t, sum, out.Digest)
}

func TestResolveStrip_ExtendedTagVerifies(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	sum := digest.Bytes([]byte("abc"))
	src := "/p/photo__" + mustEncode(t, sum, 8) + ".jpg"
	writeFile(t, fs, src, "abc")

	out, err := r.ResolveStrip(src, PolicyRefuse, true)
	require.NoError(t, err)
	assert.Equal(t, Rename, out.Action)
}

func TestResolveStrip_VerifyFailed(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	writeFile(t, fs, "/p/img__6o8WPa.heic", "hello")

	out, err := r.ResolveStrip("/p/img__6o8WPa.heic", PolicyRefuse, true)
	require.NoError(t, err)
	assert.Equal(t, VerifyFailed, out.Action)
	assert.Empty(t, out.Target)

	// Without verification the tag is stripped regardless of content.
	out, err = r.ResolveStrip("/p/img__6o8WPa.heic", PolicyRefuse, false)
	require.NoError(t, err)
	assert.Equal(t, Rename, out.Action)
	assert.Equal(t, "/p/img.heic", out.Target)
	assert.False(t, out.HasDigest)
}

func TestResolveStrip_ShortTagFailsVerify(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	sum := digest.Bytes([]byte("abc"))
	src := "/p/photo__" + mustEncode(t, sum, 4) + ".jpg"
	writeFile(t, fs, src, "abc")

	out, err := r.ResolveStrip(src, PolicyRefuse, true)
	require.NoError(t, err)
	assert.Equal(t, VerifyFailed, out.Action, "4-char tag parses but is below the 6-char minimum")
}

func TestResolveStrip_Duplicate(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	sum := digest.Bytes([]byte("abc"))
	src := "/p/photo__" + mustEncode(t, sum, 6) + ".jpg"
	writeFile(t, fs, src, "abc")
	writeFile(t, fs, "/p/photo.jpg", "abc")

	out, err := r.ResolveStrip(src, PolicyRefuse, true)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, out.Action)
}

func TestResolveStrip_ConflictPolicies(t *testing.T) {
	t.Parallel()

	sum := digest.Bytes([]byte("abc"))

	tests := []struct {
		name       string
		policy     ConflictPolicy
		existing   []string
		wantAction Action
		wantTarget string
	}{
		{
			name:       "refuse",
			policy:     PolicyRefuse,
			wantAction: Conflict,
			wantTarget: "/p/photo.jpg",
		},
		{
			name:       "keep suffixed",
			policy:     PolicyKeepSuffixed,
			wantAction: Conflict,
			wantTarget: "/p/photo.jpg",
		},
		{
			name:       "add counter first free",
			policy:     PolicyAddCounter,
			wantAction: Rename,
			wantTarget: "/p/photo_1.jpg",
		},
		{
			name:       "add counter skips taken",
			policy:     PolicyAddCounter,
			existing:   []string{"/p/photo_1.jpg", "/p/photo_2.jpg"},
			wantAction: Rename,
			wantTarget: "/p/photo_3.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, fs := newTestResolver(t)
			src := "/p/photo__" + mustEncode(t, sum, 6) + ".jpg"
			writeFile(t, fs, src, "abc")
			writeFile(t, fs, "/p/photo.jpg", "someone else")
			for _, p := range tt.existing {
				writeFile(t, fs, p, "taken")
			}

			out, err := r.ResolveStrip(src, tt.policy, true)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, out.Action)
			assert.Equal(t, tt.wantTarget, out.Target)
			if tt.wantAction == Conflict {
				assert.Equal(t, tt.policy, out.Policy)
			}
			if tt.policy == PolicyAddCounter {
				assert.True(t, out.Countered)
			}
		})
	}
}

func TestResolveStrip_CounterExhausted(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t, WithMaxCounter(3))
	src := "/p/photo__abcdef.jpg"
	writeFile(t, fs, src, "abc")
	writeFile(t, fs, "/p/photo.jpg", "x")
	writeFile(t, fs, "/p/photo_1.jpg", "y")
	writeFile(t, fs, "/p/photo_2.jpg", "z")

	_, err := r.ResolveStrip(src, PolicyAddCounter, false)
	assert.ErrorIs(t, err, ErrCounterExhausted)
}

func TestResolveStrip_UnknownPolicy(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	writeFile(t, fs, "/p/photo__abcdef.jpg", "abc")
	writeFile(t, fs, "/p/photo.jpg", "x")

	_, err := r.ResolveStrip("/p/photo__abcdef.jpg", ConflictPolicy("clobber"), false)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestResolveStrip_DigestReadError(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t)
	_, err := r.ResolveStrip("/p/missing__abcdef.jpg", PolicyRefuse, true)
	assert.ErrorIs(t, err, digest.ErrRead)
}

func TestAppendThenStrip_FixedPoints(t *testing.T) {
	t.Parallel()

	r, fs := newTestResolver(t)
	writeFile(t, fs, "/p/IMG_0001.heic", "hello")
	sum := digest.Bytes([]byte("hello"))

	out, err := r.ResolveAppend("/p/IMG_0001.heic", sum)
	require.NoError(t, err)
	require.Equal(t, Rename, out.Action)
	require.NoError(t, fs.Rename(out.Source, out.Target))

	again, err := r.ResolveAppend(out.Target, sum)
	require.NoError(t, err)
	assert.Equal(t, AlreadyTagged, again.Action)

	strip, err := r.ResolveStrip(out.Target, PolicyRefuse, true)
	require.NoError(t, err)
	require.Equal(t, Rename, strip.Action)
	assert.Equal(t, "/p/IMG_0001.heic", strip.Target)
	require.NoError(t, fs.Rename(strip.Source, strip.Target))

	stripAgain, err := r.ResolveStrip(strip.Target, PolicyRefuse, true)
	require.NoError(t, err)
	assert.Equal(t, NotTagged, stripAgain.Action)
}

func TestAction_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rename", Rename.String())
	assert.Equal(t, "verify-failed", VerifyFailed.String())
	assert.Equal(t, "unknown", Action(99).String())
}
