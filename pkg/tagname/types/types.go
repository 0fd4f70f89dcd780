// Package types holds the run model shared by the engine, the output
// formatters and the CLI: the direction of a run, the counters it
// accumulates, per-file errors and the renames it performed or planned.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Mode is the direction of a run.
type Mode string

const (
	// ModeApply appends content tags.
	ModeApply Mode = "apply"
	// ModeStrip removes content tags.
	ModeStrip Mode = "strip"
)

// Stats are the counters of one run.
type Stats struct {
	// Scanned counts every regular file the walker reported.
	Scanned int64 `json:"scanned" yaml:"scanned"`

	// Considered counts files whose extension is in the allow-list.
	Considered int64 `json:"considered" yaml:"considered"`

	// Renamed counts completed renames, or planned ones in a dry run.
	Renamed int64 `json:"renamed" yaml:"renamed"`

	SkippedNotTarget     int64 `json:"skipped_not_target" yaml:"skipped_not_target"`
	SkippedDupeOrAlready int64 `json:"skipped_dupe_or_already" yaml:"skipped_dupe_or_already"`
	SkippedVerifyFail    int64 `json:"skipped_verify_fail" yaml:"skipped_verify_fail"`

	// Conflicts counts strip targets held by different content, including
	// those resolved with a counter name.
	Conflicts int64 `json:"conflicts" yaml:"conflicts"`

	// Errors contains per-file failures. The affected files are untouched.
	Errors []FileError `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Interrupted is set when the run was cancelled before visiting every file.
	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}

// Rate returns scanned files per second.
func (s Stats) Rate() float64 {
	sec := s.Elapsed.Seconds()
	if sec < 1e-9 {
		sec = 1e-9
	}
	return float64(s.Scanned) / sec
}

// FileError pairs a path with the operation that failed on it.
type FileError struct {
	Path  string `json:"path" yaml:"path"`
	Op    string `json:"op" yaml:"op"`
	Error string `json:"error" yaml:"error"`
}

// Change is one rename performed, or planned in a dry run.
type Change struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
	Tag string `json:"tag" yaml:"tag"`

	// Countered is set for strip renames to a STEM_N name.
	Countered bool `json:"countered,omitempty" yaml:"countered,omitempty"`
}

// ErrInvalidSize indicates that a size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ParseSize parses a human-readable size such as "10MiB", "512K" or "1048576".
// Unit suffixes follow go-humanize: "K", "M", "G" are decimal, "KiB", "MiB",
// "GiB" binary.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidSize, s)
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return int64(n), nil
}

// FormatSize converts a byte count to IEC units ("1.0 KiB").
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
