// Package audit writes and reads the append-only JSONL log of completed
// renames.
package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/tagname/pkg/tagname/types"
)

// Record describes one completed rename. Records are written only after the
// filesystem rename has succeeded.
type Record struct {
	Timestamp      int64      `json:"ts"`
	RunID          string     `json:"run_id"`
	Mode           types.Mode `json:"mode"`
	DryRun         bool       `json:"dry_run"`
	Root           string     `json:"root"`
	CharsMin       int        `json:"chars_min"`
	Preset         string     `json:"preset"`
	Extensions     []string   `json:"exts"`
	Verify         bool       `json:"verify"`
	ConflictPolicy string     `json:"conflict_policy,omitempty"`
	Old            string     `json:"old"`
	New            string     `json:"new"`
	SuffixUsed     string     `json:"suffix_used,omitempty"`
	SuffixRemoved  string     `json:"suffix_removed,omitempty"`
	Digest         string     `json:"blake3_b64url,omitempty"`
	Size           int64      `json:"size"`
	ModTime        int64      `json:"mtime"`
}

// Time returns the record timestamp.
func (r Record) Time() time.Time {
	return time.Unix(r.Timestamp, 0)
}

// Tag returns whichever tag the rename added or removed.
func (r Record) Tag() string {
	if r.SuffixUsed != "" {
		return r.SuffixUsed
	}
	return r.SuffixRemoved
}

// NewRunID returns a random identifier unique to one invocation.
func NewRunID() string {
	return uuid.NewString()
}
