package main

import (
	"fmt"
	"io"

	"github.com/jamesainslie/tagname/pkg/tagname/config"
	"github.com/jamesainslie/tagname/pkg/tagname/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by the commands of one invocation.
type app struct {
	cfgFile string
	verbose bool
	quiet   bool

	v   *viper.Viper
	cfg *config.Config
}

var log = logging.Get("cli")

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"chars":    "chars",
	"preset":   "preset",
	"ext":      "ext",
	"exclude":  "exclude",
	"conflict": "conflict",
	"progress": "progress",
	"log":      "log",
	"output":   "output",
	"strict":   "strict",
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "tagname <root>",
		Short: "Tag file names with a short content digest",
		Long: `Tagname renames files under a directory by appending a short base64url
BLAKE3 tag to each name (IMG_0001.heic -> IMG_0001__6o8WPb.heic), so files
with the same name but different content never collide. Byte-identical
files are recognized and left alone. --strip reverses the operation.

Runs are dry runs unless --apply is given. Applied renames are recorded in
a JSONL audit log (default: <root>/rename-log.jsonl).

Examples:
  tagname ~/Pictures/export                    # preview tagging .heic files
  tagname --preset apple-camera --apply DIR    # tag photos, videos and sidecars
  tagname --ext .jpg --ext .png --chars 8 DIR  # explicit extensions, longer tags
  tagname --strip --apply DIR                  # remove verified tags
  tagname --strip --conflict add-counter DIR   # strip, using NAME_1.ext on conflict
  tagname history DIR/rename-log.jsonl         # inspect the audit log`,
		Args:               cobra.ExactArgs(1),
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE:               a.runTag,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ~/.config/tagname/config.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "print each rename as it is found and enable debug logging")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output (overrides --verbose and --progress)")

	f := cmd.Flags()
	f.Int("chars", config.DefaultChars, "tag length in base64url characters (minimum 4)")
	f.Bool("apply", false, "actually rename files (default is a dry run)")
	f.Bool("strip", false, "remove tags instead of appending them")
	f.String("preset", "", "predefined extension set (apple-camera, image, video)")
	f.StringSlice("ext", nil, "extensions to include, repeatable (overrides --preset)")
	f.StringSlice("exclude", nil, "glob patterns for paths to skip, repeatable")
	f.Bool("no-verify", false, "when stripping, do not check tags against file content")
	f.String("conflict", config.DefaultConflict, "when stripping onto different content: refuse, keep-suffixed or add-counter")
	f.Int("progress", 0, "print progress every N files to stderr (0 disables)")
	f.String("log", "", "audit log path (default: <root>/rename-log.jsonl with --apply)")
	f.StringP("output", "o", config.DefaultOutput, "summary format: pretty, plain, json, yaml")
	f.Bool("strict", false, "exit non-zero if any file failed")

	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// setup loads configuration with flag overrides and starts logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.v = config.New(a.cfgFile)
	for name, key := range flagKeys {
		if fl := cmd.Flags().Lookup(name); fl != nil {
			if err := a.v.BindPFlag(key, fl); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}
	if fl := cmd.Flags().Lookup("no-verify"); fl != nil && fl.Changed {
		a.v.Set("verify", fl.Value.String() != "true")
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	return a.initLogging(cmd.ErrOrStderr())
}

func (a *app) initLogging(console io.Writer) error {
	maxSize, err := a.cfg.LogMaxSize()
	if err != nil {
		return err
	}

	consoleLevel := "warn"
	switch {
	case a.quiet:
		consoleLevel = "error"
	case a.verbose:
		consoleLevel = "debug"
	}

	level := a.cfg.Logging.Level
	components := a.cfg.Logging.Components
	if a.verbose {
		level = "debug"
		components = nil
	}

	return logging.Init(logging.Config{
		Level:        level,
		Path:         a.cfg.Logging.Path,
		MaxSize:      maxSize,
		Components:   components,
		ConsoleLevel: consoleLevel,
		Console:      console,
	})
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	return logging.Close()
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
