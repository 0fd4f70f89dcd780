package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jamesainslie/tagname/pkg/tagname/logging"
	"github.com/spf13/afero"
)

// DefaultFileName is the log file created under the run root when no explicit
// path is configured.
const DefaultFileName = "rename-log.jsonl"

var logger = logging.Get("audit")

// ErrClosed is returned when writing to a closed Writer.
var ErrClosed = errors.New("audit log closed")

// Writer appends records to a JSONL file. It is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	path string
	f    afero.File
}

// DefaultPath returns the default log location for root.
func DefaultPath(root string) string {
	return filepath.Join(root, DefaultFileName)
}

// Open opens path for appending, creating it and its parent directory if
// needed.
func Open(fsys afero.Fs, path string) (*Writer, error) {
	if path == "" {
		return nil, errors.New("audit log path cannot be empty")
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	f, err := fsys.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	logger.Debug("audit log opened", "path", path)
	return &Writer{path: path, f: f}, nil
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.path
}

// Write appends rec as a single line. Each record is written with one call
// so a crash never leaves a record split across lines.
func (w *Writer) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return ErrClosed
	}
	if _, err := w.f.Write(data); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// Close syncs and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	syncErr := w.f.Sync()
	closeErr := w.f.Close()
	w.f = nil
	if closeErr != nil {
		return fmt.Errorf("failed to close audit log: %w", closeErr)
	}
	if syncErr != nil {
		return fmt.Errorf("failed to sync audit log: %w", syncErr)
	}
	return nil
}
