package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tagname/pkg/tagname/types"
)

// DefaultMaxChanges caps the rename listing of the pretty formatter.
const DefaultMaxChanges = 20

// PrettyFormatter formats the summary with colors and boxes using lipgloss.
type PrettyFormatter struct {
	// MaxChanges limits how many renames are listed. Zero means
	// DefaultMaxChanges, negative lists none.
	MaxChanges int
}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatCounters(r))
	w.WriteString(f.formatChanges(r))
	if len(r.Stats.Errors) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatErrors(r))
	}
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	title := TitleStyle.Render(r.ModeLabel() + " " + r.StateLabel())
	lines = append(lines, title)
	lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("Root:"), ValueStyle.Render(r.Root)))

	info := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Chars:"), ValueStyle.Render(fmt.Sprintf("%d", r.Chars))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Exts:"), ValueStyle.Render(strings.Join(r.Extensions, ","))),
	}
	if r.Preset != "" {
		info = append(info, fmt.Sprintf("%s %s", LabelStyle.Render("Preset:"), ValueStyle.Render(r.Preset)))
	}
	if r.Mode == types.ModeStrip {
		verify := "off"
		if r.Verify {
			verify = "on"
		}
		info = append(info,
			fmt.Sprintf("%s %s", LabelStyle.Render("Verify:"), ValueStyle.Render(verify)),
			fmt.Sprintf("%s %s", LabelStyle.Render("Conflict:"), ValueStyle.Render(r.Policy)))
	}
	lines = append(lines, strings.Join(info, "  "))

	if r.Stats.Interrupted {
		lines = append(lines, WarningStyle.Bold(true).Render("Run interrupted by user"))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

type counterRow struct {
	label string
	value int64
	style func(...string) string
}

func (f *PrettyFormatter) formatCounters(r *Result) string {
	s := r.Stats
	rows := []counterRow{
		{"scanned", s.Scanned, ValueStyle.Render},
		{"considered", s.Considered, ValueStyle.Render},
		{r.RenamedKey(), s.Renamed, SuccessStyle.Render},
		{"skipped_not_target", s.SkippedNotTarget, MutedStyle.Render},
		{"skipped_dupe_or_already", s.SkippedDupeOrAlready, MutedStyle.Render},
		{"skipped_verify_fail", s.SkippedVerifyFail, WarningStyle.Render},
		{"conflicts", s.Conflicts, WarningStyle.Render},
	}
	if len(s.Errors) > 0 {
		rows = append(rows, counterRow{"errors", int64(len(s.Errors)), ErrorStyle.Render})
	}

	width := 0
	for _, row := range rows {
		if len(row.label) > width {
			width = len(row.label)
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		label := LabelStyle.Render(padRight(row.label, width))
		sb.WriteString(fmt.Sprintf("  %s  %s\n", label, row.style(humanize.Comma(row.value))))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatChanges(r *Result) string {
	limit := f.MaxChanges
	if limit == 0 {
		limit = DefaultMaxChanges
	}
	if limit < 0 || len(r.Changes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n")
	shown := r.Changes
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, c := range shown {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			PathStyle.Render(c.Old), MutedStyle.Render("->"), PathStyle.Render(c.New)))
	}
	if rest := len(r.Changes) - len(shown); rest > 0 {
		sb.WriteString(MutedStyle.Render(fmt.Sprintf("  ... and %s more", humanize.Comma(int64(rest)))))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatErrors(r *Result) string {
	var sb strings.Builder
	sb.WriteString(ErrorStyle.Bold(true).Render("Errors:"))
	sb.WriteString("\n")
	for _, e := range r.Stats.Errors {
		sb.WriteString(ErrorStyle.Render(fmt.Sprintf("  %s %s: %s", e.Op, e.Path, e.Error)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	parts := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Elapsed:"), ValueStyle.Render(formatDuration(r.Stats.Elapsed.Seconds()))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Rate:"), ValueStyle.Render(fmt.Sprintf("%.1f/s", r.Stats.Rate()))),
	}
	if r.Applied && r.LogPath != "" {
		parts = append(parts, fmt.Sprintf("%s %s", LabelStyle.Render("Log:"), PathStyle.Render(r.LogPath)))
	}
	if !r.Applied {
		parts = append(parts, MutedStyle.Render("Use --apply to rename"))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats seconds in a human-friendly way.
func formatDuration(sec float64) string {
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
