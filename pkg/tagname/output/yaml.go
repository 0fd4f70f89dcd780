package output

import (
	"bytes"

	"github.com/jamesainslie/tagname/pkg/tagname/types"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats the summary as YAML with the same layout as
// JSONFormatter.
type YAMLFormatter struct{}

type yamlOutput struct {
	Run struct {
		ID         string   `yaml:"id"`
		Mode       string   `yaml:"mode"`
		Applied    bool     `yaml:"applied"`
		Root       string   `yaml:"root"`
		Chars      int      `yaml:"chars"`
		Extensions []string `yaml:"exts"`
		Preset     string   `yaml:"preset,omitempty"`
		Verify     bool     `yaml:"verify"`
		Policy     string   `yaml:"conflict_policy,omitempty"`
		LogPath    string   `yaml:"log_path,omitempty"`
	} `yaml:"run"`
	Stats struct {
		Scanned              int64   `yaml:"scanned"`
		Considered           int64   `yaml:"considered"`
		Renamed              int64   `yaml:"renamed"`
		SkippedNotTarget     int64   `yaml:"skipped_not_target"`
		SkippedDupeOrAlready int64   `yaml:"skipped_dupe_or_already"`
		SkippedVerifyFail    int64   `yaml:"skipped_verify_fail"`
		Conflicts            int64   `yaml:"conflicts"`
		Errors               int     `yaml:"errors"`
		Elapsed              string  `yaml:"elapsed"`
		Rate                 float64 `yaml:"rate"`
		Interrupted          bool    `yaml:"interrupted"`
	} `yaml:"stats"`
	Changes []types.Change    `yaml:"changes"`
	Errors  []types.FileError `yaml:"errors,omitempty"`
}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	j := buildJSON(r)

	var out yamlOutput
	out.Run.ID = j.Run.ID
	out.Run.Mode = j.Run.Mode
	out.Run.Applied = j.Run.Applied
	out.Run.Root = j.Run.Root
	out.Run.Chars = j.Run.Chars
	out.Run.Extensions = j.Run.Extensions
	out.Run.Preset = j.Run.Preset
	out.Run.Verify = j.Run.Verify
	out.Run.Policy = j.Run.Policy
	out.Run.LogPath = j.Run.LogPath

	out.Stats.Scanned = j.Stats.Scanned
	out.Stats.Considered = j.Stats.Considered
	out.Stats.Renamed = j.Stats.Renamed
	out.Stats.SkippedNotTarget = j.Stats.SkippedNotTarget
	out.Stats.SkippedDupeOrAlready = j.Stats.SkippedDupeOrAlready
	out.Stats.SkippedVerifyFail = j.Stats.SkippedVerifyFail
	out.Stats.Conflicts = j.Stats.Conflicts
	out.Stats.Errors = j.Stats.Errors
	out.Stats.Elapsed = j.Stats.Elapsed
	out.Stats.Rate = j.Stats.Rate
	out.Stats.Interrupted = j.Stats.Interrupted

	out.Changes = j.Changes
	out.Errors = j.Errors

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
