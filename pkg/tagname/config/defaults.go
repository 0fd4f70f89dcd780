// Package config loads tagname settings from a YAML file, TAGNAME_
// environment variables and bound command-line flags.
package config

import (
	"github.com/jamesainslie/tagname/pkg/tagname/resolver"
	"github.com/jamesainslie/tagname/pkg/tagname/suffix"
)

// Default configuration values.
const (
	DefaultChars    = suffix.DefaultChars
	DefaultConflict = string(resolver.PolicyRefuse)
	DefaultOutput   = "pretty"
	DefaultLogLevel = "info"
	DefaultMaxSize  = "10MiB"

	// EnvPrefix prefixes environment overrides (TAGNAME_CHARS, TAGNAME_LOGGING_LEVEL).
	EnvPrefix = "TAGNAME"

	// AppName names the per-user config and state directories.
	AppName = "tagname"
)

// defaults maps viper keys to their default values. "ext" has none so that
// an explicit empty list can be told apart from an unset one.
var defaults = map[string]any{
	"chars":            DefaultChars,
	"preset":           "",
	"exclude":          []string{},
	"verify":           true,
	"conflict":         DefaultConflict,
	"progress":         0,
	"log":              "",
	"output":           DefaultOutput,
	"strict":           false,
	"logging.level":    DefaultLogLevel,
	"logging.path":     "",
	"logging.max_size": DefaultMaxSize,
	"logging.components": map[string]string{
		"engine":   DefaultLogLevel,
		"resolver": DefaultLogLevel,
		"audit":    DefaultLogLevel,
		"cli":      DefaultLogLevel,
	},
}
