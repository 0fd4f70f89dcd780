package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/tagname/pkg/tagname/filter"
	"github.com/jamesainslie/tagname/pkg/tagname/logging"
	"github.com/jamesainslie/tagname/pkg/tagname/output"
	"github.com/jamesainslie/tagname/pkg/tagname/resolver"
	"github.com/jamesainslie/tagname/pkg/tagname/suffix"
	"github.com/jamesainslie/tagname/pkg/tagname/types"
	"github.com/spf13/viper"
)

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid configuration")

	// ErrInvalidPolicy is returned for an unknown conflict policy.
	ErrInvalidPolicy = resolver.ErrInvalidPolicy
)

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	MaxSize    string            `mapstructure:"max_size" yaml:"max_size"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// Config is the effective configuration of a run.
type Config struct {
	Chars    int      `mapstructure:"chars" yaml:"chars"`
	Preset   string   `mapstructure:"preset" yaml:"preset"`
	Ext      []string `mapstructure:"ext" yaml:"ext"`
	Exclude  []string `mapstructure:"exclude" yaml:"exclude"`
	Verify   bool     `mapstructure:"verify" yaml:"verify"`
	Conflict string   `mapstructure:"conflict" yaml:"conflict"`
	Progress int      `mapstructure:"progress" yaml:"progress"`
	Log      string   `mapstructure:"log" yaml:"log"`
	Output   string   `mapstructure:"output" yaml:"output"`
	Strict   bool     `mapstructure:"strict" yaml:"strict"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// ExtSet is true when ext was given explicitly, even as an empty list.
	ExtSet bool `mapstructure:"-" yaml:"-"`

	// File is the config file that was read, or "" if none.
	File string `mapstructure:"-" yaml:"-"`
}

// New returns a viper instance with defaults, search paths and environment
// binding configured. A non-empty file overrides the search paths.
func New(file string) *viper.Viper {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, AppName))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", AppName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Load reads the config file, if any, and returns the validated configuration.
// A missing file is not an error; a malformed one is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ExtSet = v.IsSet("ext")
	cfg.File = v.ConfigFileUsed()

	if cfg.Log != "" {
		expanded, err := ExpandPath(cfg.Log)
		if err != nil {
			return nil, err
		}
		cfg.Log = expanded
	}
	if cfg.Logging.Path != "" {
		expanded, err := ExpandPath(cfg.Logging.Path)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Path = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c.Chars < suffix.MinParseChars || c.Chars > suffix.MaxChars {
		return fmt.Errorf("%w: chars must be between %d and %d, got %d",
			ErrInvalid, suffix.MinParseChars, suffix.MaxChars, c.Chars)
	}
	if _, err := resolver.ParsePolicy(c.Conflict); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Preset != "" {
		if _, err := filter.PresetExtensions(c.Preset); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if _, err := output.Get(c.Output); err != nil {
		return fmt.Errorf("%w: output: %w", ErrInvalid, err)
	}
	if c.Progress < 0 {
		return fmt.Errorf("%w: progress cannot be negative", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalid, err)
	}
	for comp, lvl := range c.Logging.Components {
		if _, err := logging.ParseLevel(lvl); err != nil {
			return fmt.Errorf("%w: logging.components.%s: %w", ErrInvalid, comp, err)
		}
	}
	if _, err := c.LogMaxSize(); err != nil {
		return fmt.Errorf("%w: logging.max_size: %w", ErrInvalid, err)
	}
	return nil
}

// Policy returns the parsed conflict policy.
func (c *Config) Policy() resolver.ConflictPolicy {
	p, _ := resolver.ParsePolicy(c.Conflict)
	return p
}

// LogMaxSize returns logging.max_size in bytes.
func (c *Config) LogMaxSize() (int64, error) {
	if c.Logging.MaxSize == "" {
		return logging.DefaultMaxSize, nil
	}
	return types.ParseSize(c.Logging.MaxSize)
}

// ConfigDir returns $XDG_CONFIG_HOME/tagname, falling back to ~/.config/tagname.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns $XDG_STATE_HOME/tagname for diagnostic logs.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// WriteDefault writes a commented default config file unless one already
// exists. It returns the path and whether a file was written.
func WriteDefault() (string, bool, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# tagname configuration

# Length of newly generated tags (%d..%d)
chars: %d

# Extension selection: an explicit list wins over a preset.
# Presets: %s. Without either only .heic files are considered.
preset: ""
# ext:
#   - .heic
#   - .jpg

# Glob patterns for paths to skip, matched against the full path and the name
exclude: []

# Strip mode: check that the tag matches the content before removing it
verify: true

# Strip mode: what to do when the untagged name holds different content
# (refuse, keep-suffixed, add-counter)
conflict: %s

# Print a progress line every N files (0 disables)
progress: 0

# Audit log path (default: <root>/rename-log.jsonl, written with --apply only)
log: ""

# Summary format: %s
output: %s

# Exit non-zero when any file failed
strict: false

logging:
  # debug, info, warn, error
  level: %s
  # Diagnostic log file (empty disables; suggested: %s)
  path: ""
  max_size: %s
`, suffix.MinParseChars, suffix.MaxChars, DefaultChars,
		strings.Join(filter.PresetNames(), ", "),
		DefaultConflict,
		strings.Join(output.Available(), ", "), DefaultOutput,
		DefaultLogLevel, logging.DefaultLogPath(), DefaultMaxSize)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}
