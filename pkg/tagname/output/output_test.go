package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/tagname/pkg/tagname/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResult() *Result {
	return &Result{
		Mode:       types.ModeApply,
		Applied:    true,
		Root:       "/photos",
		RunID:      "0b6d3c4e-1111-4222-8333-444455556666",
		LogPath:    "/photos/rename-log.jsonl",
		Chars:      6,
		Extensions: []string{".heic"},
		Stats: types.Stats{
			Scanned:              12,
			Considered:           10,
			Renamed:              7,
			SkippedNotTarget:     2,
			SkippedDupeOrAlready: 3,
			Elapsed:              2 * time.Second,
		},
		Changes: []types.Change{
			{Old: "/photos/IMG_0001.heic", New: "/photos/IMG_0001__6o8WPb.heic", Tag: "6o8WPb"},
		},
	}
}

func TestRegistry_Available(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty", "yaml"}, Available())
}

func TestRegistry_UnknownFormatter(t *testing.T) {
	_, err := Get("table")
	assert.Error(t, err)
}

func TestPlainFormatter_Apply(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleResult()))

	want := "APPLY APPLIED: scanned=12 considered=10 renamed=7 skipped_not_target=2 " +
		"skipped_dupe_or_already=3 skipped_verify_fail=0 conflicts=0\n" +
		"Log: /photos/rename-log.jsonl\n"
	assert.Equal(t, want, buf.String())
}

func TestPlainFormatter_StripDryRun(t *testing.T) {
	r := sampleResult()
	r.Mode = types.ModeStrip
	r.Applied = false
	r.Stats.Conflicts = 1
	r.Stats.Errors = []types.FileError{{Path: "/photos/x__abcdef.heic", Op: "digest", Error: "boom"}}
	r.Stats.Interrupted = true

	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, r))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "STRIP DRY-RUN: scanned=12 considered=10 would_rename=7 "))
	assert.Contains(t, out, "conflicts=1 errors=1 interrupted\n")
	assert.Contains(t, out, "[error] digest: /photos/x__abcdef.heic: boom\n")
	assert.NotContains(t, out, "Log:")
}

func TestPrettyFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "APPLY APPLIED")
	assert.Contains(t, out, "/photos")
	assert.Contains(t, out, "renamed")
	assert.Contains(t, out, "IMG_0001__6o8WPb.heic")
	assert.Contains(t, out, "rename-log.jsonl")
}

func TestPrettyFormatter_TruncatesChanges(t *testing.T) {
	r := sampleResult()
	r.Changes = nil
	for i := 0; i < 5; i++ {
		r.Changes = append(r.Changes, types.Change{Old: "/p/a.heic", New: "/p/a__tag.heic"})
	}

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{MaxChanges: 2}).Format(&buf, r))
	assert.Contains(t, buf.String(), "... and 3 more")
}

func TestPrettyFormatter_DryRunHint(t *testing.T) {
	r := sampleResult()
	r.Applied = false

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "DRY-RUN")
	assert.Contains(t, out, "would_rename")
	assert.Contains(t, out, "--apply")
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResult()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	run := got["run"].(map[string]any)
	assert.Equal(t, "apply", run["mode"])
	assert.Equal(t, true, run["applied"])

	stats := got["stats"].(map[string]any)
	assert.EqualValues(t, 7, stats["renamed"])
	assert.EqualValues(t, 6, stats["rate"])
	assert.Equal(t, "2s", stats["elapsed"])

	changes := got["changes"].([]any)
	require.Len(t, changes, 1)
}

func TestJSONFormatter_EmptyChangesIsArray(t *testing.T) {
	r := sampleResult()
	r.Changes = nil

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, r))
	assert.Contains(t, buf.String(), `"changes": []`)
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleResult()))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	stats := got["stats"].(map[string]any)
	assert.Equal(t, 12, stats["scanned"])
	assert.Contains(t, buf.String(), "IMG_0001__6o8WPb.heic")
}

func TestProgressLine(t *testing.T) {
	s := types.Stats{Scanned: 100, Considered: 40, Renamed: 10, Elapsed: 4 * time.Second}
	want := "[progress] scanned=100 considered=40 renamed=10 skipped_not_target=0 " +
		"skipped_dupe_or_already=0 skipped_verify_fail=0 conflicts=0 rate=25.0/s"
	assert.Equal(t, want, ProgressLine(s))
}

func TestRenameAndConflictLines(t *testing.T) {
	assert.Equal(t, "/p/a.heic  ->  /p/a__6o8WPb.heic", RenameLine("/p/a.heic", "/p/a__6o8WPb.heic"))
	assert.Equal(t, "[conflict] would overwrite: /p/a.heic (from /p/a__6o8WPb.heic)",
		ConflictLine("/p/a.heic", "/p/a__6o8WPb.heic"))
}
