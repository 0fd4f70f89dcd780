package filter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/jamesainslie/tagname/pkg/tagname/suffix"
)

// Source says where the extension set came from.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourcePreset   Source = "preset"
	SourceDefault  Source = "default"
)

// Filter selects candidate files.
type Filter struct {
	explicit    []string
	hasExplicit bool
	preset      string
	patterns    []string

	exts    map[string]struct{}
	exclude []glob.Glob
	source  Source
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// WithExtensions sets an explicit extension list. It takes precedence over
// any preset, even when every entry is blank.
func WithExtensions(extensions ...string) Option {
	return func(f *Filter) {
		f.explicit = extensions
		f.hasExplicit = true
	}
}

// WithPreset selects a named extension preset.
func WithPreset(name string) Option {
	return func(f *Filter) {
		f.preset = name
	}
}

// WithExclude sets glob patterns for paths to skip. A pattern matches if it
// matches either the full path or the base name.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) {
		f.patterns = patterns
	}
}

// New builds a Filter. It fails on an unknown preset or an invalid glob.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}

	var exts []string
	switch {
	case f.hasExplicit:
		exts = NormalizeExtensions(f.explicit)
		f.source = SourceExplicit
	case f.preset != "":
		presetExts, err := PresetExtensions(f.preset)
		if err != nil {
			return nil, err
		}
		exts = presetExts
		f.source = SourcePreset
	default:
		exts = DefaultExtensions
		f.source = SourceDefault
	}

	f.exts = make(map[string]struct{}, len(exts))
	for _, e := range exts {
		f.exts[strings.ToLower(e)] = struct{}{}
	}

	for _, pattern := range f.patterns {
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

// NormalizeExtensions trims, lowercases and dot-prefixes extensions,
// dropping blanks and duplicates.
func NormalizeExtensions(extensions []string) []string {
	seen := make(map[string]struct{}, len(extensions))
	out := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// MatchExt reports whether the file's final extension is in the allow-list,
// compared case-insensitively.
func (f *Filter) MatchExt(path string) bool {
	_, ext := suffix.SplitExt(filepath.Base(path))
	_, ok := f.exts[strings.ToLower(ext)]
	return ok
}

// Excluded reports whether path matches an exclude pattern.
func (f *Filter) Excluded(path string, _ bool) bool {
	if len(f.exclude) == 0 {
		return false
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range f.exclude {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}

// Extensions returns the resolved extension set, sorted.
func (f *Filter) Extensions() []string {
	exts := make([]string, 0, len(f.exts))
	for e := range f.exts {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}

// Preset returns the configured preset name, or "" if none.
func (f *Filter) Preset() string {
	return f.preset
}

// Source reports which rule produced the extension set.
func (f *Filter) Source() Source {
	return f.source
}
