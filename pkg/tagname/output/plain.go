package output

import (
	"bytes"
	"fmt"
)

// PlainFormatter writes the one-line counter summary, followed by the audit
// log path when one was written. It is stable for scripts.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	s := r.Stats
	fmt.Fprintf(w, "%s %s: scanned=%d considered=%d %s=%d skipped_not_target=%d skipped_dupe_or_already=%d skipped_verify_fail=%d conflicts=%d",
		r.ModeLabel(), r.StateLabel(),
		s.Scanned, s.Considered, r.RenamedKey(), s.Renamed,
		s.SkippedNotTarget, s.SkippedDupeOrAlready, s.SkippedVerifyFail, s.Conflicts)
	if len(s.Errors) > 0 {
		fmt.Fprintf(w, " errors=%d", len(s.Errors))
	}
	if s.Interrupted {
		w.WriteString(" interrupted")
	}
	w.WriteByte('\n')

	for _, e := range s.Errors {
		fmt.Fprintf(w, "[error] %s: %s: %s\n", e.Op, e.Path, e.Error)
	}
	if r.Applied && r.LogPath != "" {
		fmt.Fprintf(w, "Log: %s\n", r.LogPath)
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
