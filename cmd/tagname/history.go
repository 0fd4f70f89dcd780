package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tagname/pkg/tagname/audit"
	"github.com/jamesainslie/tagname/pkg/tagname/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	run   string
	limit int
	runs  bool
}

func newHistoryCmd(a *app) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history [log]",
		Short: "View renames recorded in an audit log",
		Long: `View the renames recorded in a JSONL audit log, oldest first.

Without an argument the log in the current directory (rename-log.jsonl)
is read. Lines that cannot be parsed are skipped and counted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := audit.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			return runHistory(cmd.OutOrStdout(), cmd.ErrOrStderr(), afero.NewOsFs(), path, opts, a.quiet)
		},
	}

	cmd.Flags().StringVar(&opts.run, "run", "", "only show records of this run id")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 0, "show only the last N records (0 shows all)")
	cmd.Flags().BoolVar(&opts.runs, "runs", false, "list runs instead of individual renames")
	return cmd
}

func runHistory(stdout, stderr io.Writer, fsys afero.Fs, path string, opts *historyOptions, quiet bool) error {
	entries, err := audit.ReadFile(fsys, path)
	if err != nil {
		return err
	}
	if entries.Skipped > 0 && !quiet {
		fmt.Fprintf(stderr, "Skipped %d malformed line(s) in %s\n", entries.Skipped, path)
	}

	if opts.runs {
		printRuns(stdout, entries)
		return nil
	}

	records := entries.FilterRun(opts.run)
	if len(records) == 0 {
		if !quiet {
			fmt.Fprintln(stdout, "No history entries found.")
		}
		return nil
	}

	total := len(records)
	if opts.limit > 0 && total > opts.limit {
		records = records[total-opts.limit:]
	}

	fmt.Fprintf(stdout, "\n%-16s  %-5s  %-10s  %-9s  %s\n", "WHEN", "MODE", "TAG", "SIZE", "RENAME")
	fmt.Fprintln(stdout, strings.Repeat("-", 80))
	for _, r := range records {
		fmt.Fprintf(stdout, "%-16s  %-5s  %-10s  %-9s  %s -> %s\n",
			humanize.Time(r.Time()),
			r.Mode,
			truncateString(r.Tag(), 10),
			types.FormatSize(r.Size),
			r.Old,
			r.New,
		)
	}
	fmt.Fprintln(stdout, strings.Repeat("-", 80))
	if !quiet {
		fmt.Fprintf(stdout, "\nShowing %d of %d records. Use --limit or --run to narrow.\n", len(records), total)
	}
	return nil
}

func printRuns(w io.Writer, entries audit.Log) {
	runs := entries.Runs()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No history entries found.")
		return
	}

	fmt.Fprintf(w, "\n%-36s  %-5s  %-8s  %-16s  %s\n", "RUN", "MODE", "RENAMES", "WHEN", "ROOT")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, id := range runs {
		records := entries.FilterRun(id)
		first := records[0]
		fmt.Fprintf(w, "%-36s  %-5s  %-8s  %-16s  %s\n",
			id,
			first.Mode,
			humanize.Comma(int64(len(records))),
			humanize.Time(first.Time()),
			first.Root,
		)
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
