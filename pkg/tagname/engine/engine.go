// Package engine runs a tagging pass over a directory tree: it snapshots the
// tree, filters by extension, resolves each candidate and then renames it or
// reports what it would do, keeping counters and an audit trail.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/tagname/pkg/tagname/audit"
	"github.com/jamesainslie/tagname/pkg/tagname/digest"
	"github.com/jamesainslie/tagname/pkg/tagname/filter"
	"github.com/jamesainslie/tagname/pkg/tagname/fsutil"
	"github.com/jamesainslie/tagname/pkg/tagname/logging"
	"github.com/jamesainslie/tagname/pkg/tagname/output"
	"github.com/jamesainslie/tagname/pkg/tagname/resolver"
	"github.com/jamesainslie/tagname/pkg/tagname/suffix"
	"github.com/jamesainslie/tagname/pkg/tagname/types"
	"github.com/jamesainslie/tagname/pkg/tagname/walker"
	"github.com/spf13/afero"
)

var logger = logging.Get("engine")

// ErrNotDirectory is returned when the root is not a directory.
var ErrNotDirectory = errors.New("root is not a directory")

// AuditWriter receives a record after every successful rename.
type AuditWriter interface {
	Write(rec audit.Record) error
}

// Options configures a run. The zero value of each field selects its default.
type Options struct {
	// Root is the directory to walk. It is made absolute.
	Root string

	// Fs is the filesystem to operate on. Defaults to the OS filesystem.
	Fs afero.Fs

	// Walker enumerates files. Defaults to a FastWalker on the OS
	// filesystem and an FsWalker otherwise, excluding what Filter excludes.
	Walker walker.Walker

	// Filter selects candidate files. Defaults to filter.New().
	Filter *filter.Filter

	// Mode selects append (apply) or strip.
	Mode types.Mode

	// Apply performs renames. When false the run is a dry run.
	Apply bool

	// Chars is the generated tag length and the strip verification minimum.
	Chars int

	// Verify recomputes the digest before stripping a tag.
	Verify bool

	// Policy decides strip conflicts. Defaults to refuse.
	Policy resolver.ConflictPolicy

	// Audit receives records in apply mode. Nil disables the audit log.
	Audit AuditWriter

	// AuditPath is skipped during the walk so the log never tags itself.
	AuditPath string

	// RunID identifies the run in audit records. Generated when empty.
	RunID string

	// Progress prints a progress line every Progress scanned files.
	Progress int

	Verbose bool
	Quiet   bool

	// Stdout receives verbose rename lines, Stderr progress and conflicts.
	Stdout io.Writer
	Stderr io.Writer

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of a run.
type Result struct {
	RunID   string
	Root    string
	Stats   types.Stats
	Changes []types.Change
}

// Engine executes one run.
type Engine struct {
	opts     Options
	root     string
	resolver *resolver.Resolver

	stats   types.Stats
	changes []types.Change
	start   time.Time
}

// New validates opts and prepares an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Root == "" {
		return nil, errors.New("root cannot be empty")
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	info, err := opts.Fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	switch opts.Mode {
	case "":
		opts.Mode = types.ModeApply
	case types.ModeApply, types.ModeStrip:
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	if opts.AuditPath != "" {
		if abs, err := filepath.Abs(opts.AuditPath); err == nil {
			opts.AuditPath = abs
		}
	}
	if opts.Chars == 0 {
		opts.Chars = suffix.DefaultChars
	}
	if opts.Policy == "" {
		opts.Policy = resolver.PolicyRefuse
	}
	if _, err := resolver.ParsePolicy(string(opts.Policy)); err != nil {
		return nil, err
	}
	if opts.Filter == nil {
		f, err := filter.New()
		if err != nil {
			return nil, err
		}
		opts.Filter = f
	}
	if opts.RunID == "" {
		opts.RunID = audit.NewRunID()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r, err := resolver.New(opts.Fs, resolver.WithMinChars(opts.Chars))
	if err != nil {
		return nil, err
	}

	e := &Engine{opts: opts, root: root, resolver: r}
	if e.opts.Walker == nil {
		e.opts.Walker = e.defaultWalker()
	}
	return e, nil
}

func (e *Engine) defaultWalker() walker.Walker {
	wopts := walker.Options{
		Exclude: e.opts.Filter.Excluded,
		OnError: func(path string, err error) {
			e.recordError(path, "walk", err)
		},
	}
	if _, ok := e.opts.Fs.(*afero.OsFs); ok {
		return walker.NewFastWalker(wopts)
	}
	return walker.NewFsWalker(e.opts.Fs, wopts)
}

// SetAudit attaches an audit log after construction, so the log is only
// created once the root has been validated. path is excluded from the walk.
func (e *Engine) SetAudit(w AuditWriter, path string) {
	e.opts.Audit = w
	e.opts.AuditPath = path
	if abs, err := filepath.Abs(path); err == nil {
		e.opts.AuditPath = abs
	}
}

// Root returns the absolute root of the run.
func (e *Engine) Root() string {
	return e.root
}

// RunID returns the run identifier.
func (e *Engine) RunID() string {
	return e.opts.RunID
}

// Run walks the tree and processes every file. Per-file failures are
// recorded in the returned stats; only a failing walk aborts the run.
// Cancelling ctx stops the run between files.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	e.start = e.opts.Now()
	e.stats = types.Stats{}
	e.changes = nil

	logger.Info("run started", "run_id", e.opts.RunID, "root", e.root, "mode", e.opts.Mode, "apply", e.opts.Apply)

	paths, err := walker.Collect(ctx, e.opts.Walker, e.root)
	if err != nil {
		if ctx.Err() == nil {
			return e.result(), fmt.Errorf("failed to walk %s: %w", e.root, err)
		}
		e.stats.Interrupted = true
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			e.stats.Interrupted = true
			break
		}
		if e.opts.AuditPath != "" && path == e.opts.AuditPath {
			continue
		}

		e.stats.Scanned++
		if e.opts.Progress > 0 && !e.opts.Quiet && e.stats.Scanned%int64(e.opts.Progress) == 0 {
			snapshot := e.stats
			snapshot.Elapsed = e.opts.Now().Sub(e.start)
			fmt.Fprintln(e.opts.Stderr, output.ProgressLine(snapshot))
		}
		e.processFile(path)
	}

	res := e.result()
	logger.Info("run finished",
		"run_id", e.opts.RunID,
		"scanned", res.Stats.Scanned,
		"renamed", res.Stats.Renamed,
		"conflicts", res.Stats.Conflicts,
		"errors", len(res.Stats.Errors),
		"interrupted", res.Stats.Interrupted)
	return res, nil
}

func (e *Engine) result() Result {
	stats := e.stats
	stats.Elapsed = e.opts.Now().Sub(e.start)
	return Result{
		RunID:   e.opts.RunID,
		Root:    e.root,
		Stats:   stats,
		Changes: e.changes,
	}
}

func (e *Engine) processFile(path string) {
	if !e.opts.Filter.MatchExt(path) {
		e.stats.SkippedNotTarget++
		return
	}
	e.stats.Considered++

	out, err := e.resolve(path)
	if err != nil {
		op := "resolve"
		if errors.Is(err, digest.ErrRead) {
			op = "digest"
		}
		if errors.Is(err, resolver.ErrCounterExhausted) {
			e.stats.Conflicts++
		}
		e.recordError(path, op, err)
		return
	}

	switch out.Action {
	case resolver.AlreadyTagged, resolver.Duplicate, resolver.NotTagged:
		logger.Debug("skipped", "path", path, "action", out.Action)
		e.stats.SkippedDupeOrAlready++
	case resolver.VerifyFailed:
		logger.Debug("tag does not match content", "path", path, "tag", out.Tag)
		e.stats.SkippedVerifyFail++
	case resolver.Conflict:
		e.stats.Conflicts++
		if out.Policy == resolver.PolicyRefuse && !e.opts.Quiet {
			fmt.Fprintln(e.opts.Stderr, output.ConflictLine(out.Target, out.Source))
		}
	case resolver.Rename:
		if out.Countered {
			e.stats.Conflicts++
		}
		e.rename(out)
	}
}

func (e *Engine) resolve(path string) (resolver.Outcome, error) {
	if e.opts.Mode == types.ModeStrip {
		return e.resolver.ResolveStrip(path, e.opts.Policy, e.opts.Verify)
	}
	if suffix.Split(path).Tagged() {
		return resolver.Outcome{Action: resolver.AlreadyTagged, Source: path}, nil
	}
	sum, err := digest.File(e.opts.Fs, path)
	if err != nil {
		return resolver.Outcome{Source: path}, err
	}
	return e.resolver.ResolveAppend(path, sum)
}

func (e *Engine) rename(out resolver.Outcome) {
	if e.opts.Verbose && !e.opts.Quiet {
		fmt.Fprintln(e.opts.Stdout, output.RenameLine(out.Source, out.Target))
	}

	change := types.Change{Old: out.Source, New: out.Target, Tag: out.Tag, Countered: out.Countered}
	if !e.opts.Apply {
		e.stats.Renamed++
		e.changes = append(e.changes, change)
		return
	}

	if err := fsutil.Rename(e.opts.Fs, out.Source, out.Target); err != nil {
		e.recordError(out.Source, "rename", err)
		return
	}
	e.stats.Renamed++
	e.changes = append(e.changes, change)
	logger.Debug("renamed", "old", out.Source, "new", out.Target)

	if e.opts.Audit == nil {
		return
	}
	rec, err := e.record(out)
	if err != nil {
		e.recordError(out.Target, "audit", err)
		return
	}
	if err := e.opts.Audit.Write(rec); err != nil {
		e.recordError(out.Target, "audit", err)
	}
}

func (e *Engine) record(out resolver.Outcome) (audit.Record, error) {
	info, err := e.opts.Fs.Stat(out.Target)
	if err != nil {
		return audit.Record{}, fmt.Errorf("failed to stat renamed file: %w", err)
	}

	rec := audit.Record{
		Timestamp:  e.opts.Now().Unix(),
		RunID:      e.opts.RunID,
		Mode:       e.opts.Mode,
		DryRun:     !e.opts.Apply,
		Root:       e.root,
		CharsMin:   e.opts.Chars,
		Preset:     e.opts.Filter.Preset(),
		Extensions: e.opts.Filter.Extensions(),
		Old:        out.Source,
		New:        out.Target,
		Size:       info.Size(),
		ModTime:    info.ModTime().Unix(),
	}
	if out.HasDigest {
		rec.Digest = out.Digest.Base64URL()
	}
	if e.opts.Mode == types.ModeStrip {
		rec.Verify = e.opts.Verify
		rec.ConflictPolicy = string(e.opts.Policy)
		rec.SuffixRemoved = out.Tag
	} else {
		rec.SuffixUsed = out.Tag
	}
	return rec, nil
}

func (e *Engine) recordError(path, op string, err error) {
	logger.Warn("file skipped", "path", path, "op", op, "error", err)
	e.stats.Errors = append(e.stats.Errors, types.FileError{
		Path:  path,
		Op:    op,
		Error: err.Error(),
	})
}
