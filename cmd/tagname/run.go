package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jamesainslie/tagname/pkg/tagname/audit"
	"github.com/jamesainslie/tagname/pkg/tagname/engine"
	"github.com/jamesainslie/tagname/pkg/tagname/filter"
	"github.com/jamesainslie/tagname/pkg/tagname/output"
	"github.com/jamesainslie/tagname/pkg/tagname/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// errFileFailures is returned under --strict when any file failed.
var errFileFailures = errors.New("one or more files could not be processed")

// buildFilter creates a filter.Filter from the effective configuration.
func (a *app) buildFilter() (*filter.Filter, error) {
	var opts []filter.Option
	if a.cfg.ExtSet {
		opts = append(opts, filter.WithExtensions(a.cfg.Ext...))
	}
	if a.cfg.Preset != "" {
		opts = append(opts, filter.WithPreset(a.cfg.Preset))
	}
	if len(a.cfg.Exclude) > 0 {
		opts = append(opts, filter.WithExclude(a.cfg.Exclude...))
	}
	return filter.New(opts...)
}

// runTag executes an append or strip run over args[0].
func (a *app) runTag(cmd *cobra.Command, args []string) error {
	apply, _ := cmd.Flags().GetBool("apply")
	strip, _ := cmd.Flags().GetBool("strip")
	mode := types.ModeApply
	if strip {
		mode = types.ModeStrip
	}

	formatter, err := output.Get(a.cfg.Output)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", a.cfg.Output, output.Available())
	}

	f, err := a.buildFilter()
	if err != nil {
		return err
	}

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}

	opts := engine.Options{
		Root:     root,
		Filter:   f,
		Mode:     mode,
		Apply:    apply,
		Chars:    a.cfg.Chars,
		Verify:   a.cfg.Verify,
		Policy:   a.cfg.Policy(),
		Progress: a.cfg.Progress,
		Verbose:  a.verbose,
		Quiet:    a.quiet,
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	}

	var logPath string
	if apply {
		logPath = a.cfg.Log
		if logPath == "" {
			logPath = audit.DefaultPath(root)
		}
		if logPath, err = filepath.Abs(logPath); err != nil {
			return fmt.Errorf("failed to resolve audit log path: %w", err)
		}
	}

	eng, err := engine.New(opts)
	if err != nil {
		return err
	}

	if apply {
		w, err := audit.Open(afero.NewOsFs(), logPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Error("failed to close audit log", "path", logPath, "error", err)
			}
		}()
		eng.SetAudit(w, logPath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	if !a.quiet {
		result := &output.Result{
			Mode:       mode,
			Applied:    apply,
			Root:       res.Root,
			RunID:      res.RunID,
			LogPath:    logPath,
			Chars:      a.cfg.Chars,
			Extensions: f.Extensions(),
			Preset:     f.Preset(),
			Verify:     a.cfg.Verify,
			Stats:      res.Stats,
			Changes:    res.Changes,
		}
		if mode == types.ModeStrip {
			result.Policy = string(a.cfg.Policy())
		}

		var buf bytes.Buffer
		if err := formatter.Format(&buf, result); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), buf.String())
	}

	if a.cfg.Strict && len(res.Stats.Errors) > 0 {
		return fmt.Errorf("%w (%d)", errFileFailures, len(res.Stats.Errors))
	}
	return nil
}
