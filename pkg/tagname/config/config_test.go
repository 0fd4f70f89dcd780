package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/tagname/pkg/tagname/logging"
	"github.com/jamesainslie/tagname/pkg/tagname/resolver"
	"github.com/spf13/pflag"
)

// isolate points HOME and XDG_CONFIG_HOME at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "xdg", AppName, "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chars != DefaultChars {
		t.Errorf("Chars = %d, want %d", cfg.Chars, DefaultChars)
	}
	if !cfg.Verify {
		t.Error("Verify = false, want true")
	}
	if cfg.Policy() != resolver.PolicyRefuse {
		t.Errorf("Policy() = %q, want refuse", cfg.Policy())
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
	if cfg.ExtSet {
		t.Error("ExtSet = true without any ext configured")
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty", cfg.File)
	}
	size, err := cfg.LogMaxSize()
	if err != nil || size != logging.DefaultMaxSize {
		t.Errorf("LogMaxSize() = %d, %v; want %d", size, err, logging.DefaultMaxSize)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
chars: 8
preset: apple-camera
ext: []
exclude:
  - "*.tmp"
verify: false
conflict: add-counter
progress: 500
log: ~/logs/renames.jsonl
output: plain
logging:
  level: debug
  max_size: 1MiB
`)

	cfg, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
	if cfg.Chars != 8 {
		t.Errorf("Chars = %d, want 8", cfg.Chars)
	}
	if cfg.Preset != "apple-camera" {
		t.Errorf("Preset = %q", cfg.Preset)
	}
	if !cfg.ExtSet || len(cfg.Ext) != 0 {
		t.Errorf("ExtSet = %v, Ext = %v; want explicit empty list", cfg.ExtSet, cfg.Ext)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "*.tmp" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if cfg.Verify {
		t.Error("Verify = true, want false")
	}
	if cfg.Policy() != resolver.PolicyAddCounter {
		t.Errorf("Policy() = %q", cfg.Policy())
	}
	if cfg.Progress != 500 {
		t.Errorf("Progress = %d", cfg.Progress)
	}
	if want := filepath.Join(dir, "logs", "renames.jsonl"); cfg.Log != want {
		t.Errorf("Log = %q, want %q", cfg.Log, want)
	}
	if size, _ := cfg.LogMaxSize(); size != 1024*1024 {
		t.Errorf("LogMaxSize() = %d", size)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TAGNAME_CHARS", "10")
	t.Setenv("TAGNAME_CONFLICT", "keep-suffixed")
	t.Setenv("TAGNAME_LOGGING_LEVEL", "warn")

	cfg, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chars != 10 {
		t.Errorf("Chars = %d, want 10", cfg.Chars)
	}
	if cfg.Conflict != "keep-suffixed" {
		t.Errorf("Conflict = %q", cfg.Conflict)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_BoundFlags(t *testing.T) {
	isolate(t)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("chars", DefaultChars, "")
	flags.StringSlice("ext", nil, "")
	if err := flags.Parse([]string{"--chars", "7", "--ext", "jpg,.MOV"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	v := New("")
	if err := v.BindPFlag("chars", flags.Lookup("chars")); err != nil {
		t.Fatal(err)
	}
	if err := v.BindPFlag("ext", flags.Lookup("ext")); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chars != 7 {
		t.Errorf("Chars = %d, want 7", cfg.Chars)
	}
	if !cfg.ExtSet || len(cfg.Ext) != 2 {
		t.Errorf("ExtSet = %v, Ext = %v", cfg.ExtSet, cfg.Ext)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("chars: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(New(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chars != 12 {
		t.Errorf("Chars = %d, want 12", cfg.Chars)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "chars: [unterminated\n")

	if _, err := Load(New("")); err == nil {
		t.Error("Load() with malformed YAML succeeded")
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	base, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{name: "chars too small", mutate: func(c *Config) { c.Chars = 3 }, target: ErrInvalid},
		{name: "chars too large", mutate: func(c *Config) { c.Chars = 44 }, target: ErrInvalid},
		{name: "unknown policy", mutate: func(c *Config) { c.Conflict = "overwrite" }, target: ErrInvalidPolicy},
		{name: "unknown preset", mutate: func(c *Config) { c.Preset = "android" }, target: ErrInvalid},
		{name: "unknown output", mutate: func(c *Config) { c.Output = "xml" }, target: ErrInvalid},
		{name: "negative progress", mutate: func(c *Config) { c.Progress = -1 }, target: ErrInvalid},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "chatty" }, target: logging.ErrInvalidLevel},
		{name: "bad max size", mutate: func(c *Config) { c.Logging.MaxSize = "lots" }, target: ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.target) {
				t.Errorf("Validate() error = %v, want %v", err, tt.target)
			}
		})
	}

	if err := base.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestWriteDefault(t *testing.T) {
	dir := isolate(t)

	path, created, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if !created {
		t.Error("WriteDefault() created = false on first call")
	}
	if want := filepath.Join(dir, "xdg", AppName, "config.yaml"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	cfg, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load() of written default error = %v", err)
	}
	if cfg.Chars != DefaultChars || cfg.Conflict != DefaultConflict {
		t.Errorf("written default loads as chars=%d conflict=%q", cfg.Chars, cfg.Conflict)
	}

	_, created, err = WriteDefault()
	if err != nil || created {
		t.Errorf("second WriteDefault() = created %v, err %v; want existing file kept", created, err)
	}
}

func TestExpandPath(t *testing.T) {
	dir := isolate(t)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "a", "b"); got != want {
		t.Errorf("ExpandPath() = %q, want %q", got, want)
	}
	if got, _ := ExpandPath("/abs"); got != "/abs" {
		t.Errorf("ExpandPath(/abs) = %q", got)
	}
}
