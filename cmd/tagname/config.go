package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/jamesainslie/tagname/pkg/tagname/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage tagname configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/tagname/config.yaml (if set)
  2. ~/.config/tagname/config.yaml

Environment variables can override config file settings using the TAGNAME_ prefix:
  TAGNAME_CHARS=8
  TAGNAME_PRESET=apple-camera
  TAGNAME_CONFLICT=add-counter`,
		// A broken config file must not prevent inspecting or editing it.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, args); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the effective configuration after merging defaults, the config file and environment.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), a.cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Long:  `Create a default configuration file if one doesn't exist.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, created, err := config.WriteDefault()
			if err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists: %s\n", path)
				fmt.Fprintln(cmd.OutOrStdout(), "Use 'tagname config edit' to modify it.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created default config file: %s\n", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Edit configuration file",
		Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigEdit(cmd)
		},
	})
	return cmd
}

func runConfigShow(w io.Writer, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("no configuration loaded")
	}

	if cfg.File != "" {
		fmt.Fprintf(w, "Config file: %s\n\n", cfg.File)
	} else {
		fmt.Fprintf(w, "Config file: (using defaults, no file found)\n\n")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	fmt.Fprint(w, string(data))

	fmt.Fprintln(w, "\nEnvironment Overrides:")
	fmt.Fprintln(w, "----------------------")
	overrides := envOverrides()
	if len(overrides) == 0 {
		fmt.Fprintln(w, "(none)")
	}
	for _, kv := range overrides {
		fmt.Fprintln(w, kv)
	}
	return nil
}

func envOverrides() []string {
	prefix := config.EnvPrefix + "_"
	var out []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

func runConfigEdit(cmd *cobra.Command) error {
	path, _, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	log.Debug("opening config", "path", path, "editor", editor)

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = cmd.OutOrStdout()
	editorCmd.Stderr = cmd.ErrOrStderr()
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}
