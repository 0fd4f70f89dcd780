package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

const maxLineSize = 1 << 20

// Log is the parsed content of an audit log.
type Log struct {
	Records []Record
	// Skipped counts non-empty lines that could not be parsed.
	Skipped int
}

// Runs returns the distinct run identifiers in order of first appearance.
func (l Log) Runs() []string {
	seen := make(map[string]struct{})
	var runs []string
	for _, r := range l.Records {
		if _, ok := seen[r.RunID]; ok {
			continue
		}
		seen[r.RunID] = struct{}{}
		runs = append(runs, r.RunID)
	}
	return runs
}

// FilterRun returns the records of a single run. An empty id returns all.
func (l Log) FilterRun(id string) []Record {
	if id == "" {
		return l.Records
	}
	var out []Record
	for _, r := range l.Records {
		if r.RunID == id {
			out = append(out, r)
		}
	}
	return out
}

// Read parses JSONL from r in file order. Malformed lines are skipped and
// counted rather than failing the read.
func Read(r io.Reader) (Log, error) {
	var log Log
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Skipped++
			continue
		}
		log.Records = append(log.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return log, fmt.Errorf("failed to read audit log: %w", err)
	}
	if log.Records == nil {
		log.Records = []Record{}
	}
	return log, nil
}

// ReadFile parses the audit log at path.
func ReadFile(fsys afero.Fs, path string) (Log, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Log{}, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()
	return Read(f)
}
