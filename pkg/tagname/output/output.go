// Package output renders the summary of a tagging run in several formats
// (pretty, plain, json, yaml) and formats progress lines.
//
// Formatters are looked up by name through a registry:
//
//	formatter, err := output.Get("plain")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/tagname/pkg/tagname/types"
)

// Result is everything a formatter needs to describe a finished run.
type Result struct {
	// Mode is the direction of the run.
	Mode types.Mode `json:"mode" yaml:"mode"`

	// Applied is false for a dry run.
	Applied bool `json:"applied" yaml:"applied"`

	// Root is the absolute directory that was walked.
	Root string `json:"root" yaml:"root"`

	// RunID identifies the run in the audit log.
	RunID string `json:"run_id" yaml:"run_id"`

	// LogPath is the audit log, set only when one was written.
	LogPath string `json:"log_path,omitempty" yaml:"log_path,omitempty"`

	Chars      int      `json:"chars" yaml:"chars"`
	Extensions []string `json:"exts" yaml:"exts"`
	Preset     string   `json:"preset,omitempty" yaml:"preset,omitempty"`
	Verify     bool     `json:"verify" yaml:"verify"`
	Policy     string   `json:"conflict_policy,omitempty" yaml:"conflict_policy,omitempty"`

	Stats   types.Stats    `json:"stats" yaml:"stats"`
	Changes []types.Change `json:"changes" yaml:"changes"`
}

// ModeLabel returns "APPLY" or "STRIP".
func (r *Result) ModeLabel() string {
	if r.Mode == types.ModeStrip {
		return "STRIP"
	}
	return "APPLY"
}

// StateLabel returns "APPLIED" or "DRY-RUN".
func (r *Result) StateLabel() string {
	if r.Applied {
		return "APPLIED"
	}
	return "DRY-RUN"
}

// RenamedKey returns the counter name used for renames in summaries.
func (r *Result) RenamedKey() string {
	if r.Applied {
		return "renamed"
	}
	return "would_rename"
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
