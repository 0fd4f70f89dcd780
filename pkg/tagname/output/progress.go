package output

import (
	"fmt"

	"github.com/jamesainslie/tagname/pkg/tagname/types"
)

// ProgressLine formats a running snapshot of the counters.
func ProgressLine(s types.Stats) string {
	return fmt.Sprintf("[progress] scanned=%d considered=%d renamed=%d skipped_not_target=%d skipped_dupe_or_already=%d skipped_verify_fail=%d conflicts=%d rate=%.1f/s",
		s.Scanned, s.Considered, s.Renamed,
		s.SkippedNotTarget, s.SkippedDupeOrAlready, s.SkippedVerifyFail, s.Conflicts,
		s.Rate())
}

// RenameLine formats a single rename as printed in verbose mode.
func RenameLine(oldPath, newPath string) string {
	return oldPath + "  ->  " + newPath
}

// ConflictLine formats a refused strip.
func ConflictLine(target, source string) string {
	return fmt.Sprintf("[conflict] would overwrite: %s (from %s)", target, source)
}
