package suffix

import (
	"path/filepath"
	"strings"
)

// Name is a file path decomposed into directory, stem, optional tag and
// extension. Composing the parts reproduces the original path.
type Name struct {
	Dir  string
	Stem string
	Tag  string
	Ext  string
}

// Split decomposes path. When the stem carries a tag, Stem holds the base
// stem and Tag the tag; otherwise Tag is empty.
func Split(path string) Name {
	dir, file := filepath.Split(path)
	stem, ext := SplitExt(file)
	n := Name{Dir: filepath.Clean(dir), Stem: stem, Ext: ext}
	if dir == "" {
		n.Dir = ""
	}
	if base, tag, ok := Parse(stem); ok {
		n.Stem = base
		n.Tag = tag
	}
	return n
}

// SplitExt splits a file name at its final extension. Names whose only dot
// is the leading one (".profile") and names ending in a bare dot have no
// extension.
func SplitExt(file string) (stem, ext string) {
	ext = filepath.Ext(file)
	if ext == file || ext == "." {
		return file, ""
	}
	return strings.TrimSuffix(file, ext), ext
}

// Tagged reports whether the name carries a tag.
func (n Name) Tagged() bool {
	return n.Tag != ""
}

// WithTag returns a copy of n carrying tag. An empty tag strips it.
func (n Name) WithTag(tag string) Name {
	n.Tag = tag
	return n
}

// Base returns the file name without the directory.
func (n Name) Base() string {
	if n.Tag == "" {
		return n.Stem + n.Ext
	}
	return n.Stem + Separator + n.Tag + n.Ext
}

// Path returns the full path.
func (n Name) Path() string {
	if n.Dir == "" {
		return n.Base()
	}
	return filepath.Join(n.Dir, n.Base())
}
