package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/tagname/pkg/tagname/types"
)

// jsonOutput is the JSON document layout.
type jsonOutput struct {
	Run     jsonRun           `json:"run"`
	Stats   jsonStats         `json:"stats"`
	Changes []types.Change    `json:"changes"`
	Errors  []types.FileError `json:"errors,omitempty"`
}

type jsonRun struct {
	ID         string   `json:"id"`
	Mode       string   `json:"mode"`
	Applied    bool     `json:"applied"`
	Root       string   `json:"root"`
	Chars      int      `json:"chars"`
	Extensions []string `json:"exts"`
	Preset     string   `json:"preset,omitempty"`
	Verify     bool     `json:"verify"`
	Policy     string   `json:"conflict_policy,omitempty"`
	LogPath    string   `json:"log_path,omitempty"`
}

type jsonStats struct {
	Scanned              int64   `json:"scanned"`
	Considered           int64   `json:"considered"`
	Renamed              int64   `json:"renamed"`
	SkippedNotTarget     int64   `json:"skipped_not_target"`
	SkippedDupeOrAlready int64   `json:"skipped_dupe_or_already"`
	SkippedVerifyFail    int64   `json:"skipped_verify_fail"`
	Conflicts            int64   `json:"conflicts"`
	Errors               int     `json:"errors"`
	Elapsed              string  `json:"elapsed"`
	Rate                 float64 `json:"rate"`
	Interrupted          bool    `json:"interrupted"`
}

// JSONFormatter formats the summary as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildJSON(r))
}

func buildJSON(r *Result) jsonOutput {
	changes := r.Changes
	if changes == nil {
		changes = []types.Change{}
	}
	s := r.Stats
	return jsonOutput{
		Run: jsonRun{
			ID:         r.RunID,
			Mode:       string(r.Mode),
			Applied:    r.Applied,
			Root:       r.Root,
			Chars:      r.Chars,
			Extensions: r.Extensions,
			Preset:     r.Preset,
			Verify:     r.Verify,
			Policy:     r.Policy,
			LogPath:    r.LogPath,
		},
		Stats: jsonStats{
			Scanned:              s.Scanned,
			Considered:           s.Considered,
			Renamed:              s.Renamed,
			SkippedNotTarget:     s.SkippedNotTarget,
			SkippedDupeOrAlready: s.SkippedDupeOrAlready,
			SkippedVerifyFail:    s.SkippedVerifyFail,
			Conflicts:            s.Conflicts,
			Errors:               len(s.Errors),
			Elapsed:              formatDurationString(s.Elapsed),
			Rate:                 s.Rate(),
			Interrupted:          s.Interrupted,
		},
		Changes: changes,
		Errors:  s.Errors,
	}
}

// formatDurationString formats a duration for machine-readable output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
