// Package engine is the entry point for every fileflow operation. It wires
// the scanner, organizer, analyzer and cleaner to one configuration, one
// filesystem and one category registry, and returns structured reports;
// rendering and confirmation are left to the caller.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/fileflow/internal/analyzer"
	"github.com/fenilsonani/fileflow/internal/classifier"
	"github.com/fenilsonani/fileflow/internal/cleaner"
	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/logger"
	"github.com/fenilsonani/fileflow/internal/organizer"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/internal/scanner"
	"github.com/fenilsonani/fileflow/internal/security"
	"github.com/fenilsonani/fileflow/internal/watcher"
	"github.com/fenilsonani/fileflow/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Engine runs scan, organize, duplicate, sweep and analyze operations
type Engine struct {
	config    *config.Config
	fs        afero.Fs
	log       *logger.Logger
	progress  *progress.Reporter
	registry  *classifier.Registry
	validator *security.PathValidator

	scanner   *scanner.Scanner
	organizer *organizer.Organizer
	analyzer  *analyzer.Analyzer
	cleaner   *cleaner.Cleaner
}

// New creates an Engine. A nil cfg uses defaults, a nil fs the OS
// filesystem and a nil log discards output.
func New(cfg *config.Config, fs afero.Fs, log *logger.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.GetDefault()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logger.Discard()
	}

	table, err := cfg.CategoryTable(1)
	if err != nil {
		return nil, fmt.Errorf("invalid categories: %w", err)
	}

	e := &Engine{
		config:    cfg,
		fs:        fs,
		log:       log,
		progress:  progress.NewReporter(),
		registry:  classifier.NewRegistry(table),
		validator: security.NewPathValidator(cfg.ProtectedPaths...),
	}

	e.scanner = scanner.New(cfg, fs)
	e.organizer = organizer.New(cfg, e.scanner)
	e.analyzer = analyzer.New(cfg, e.scanner)
	e.cleaner = cleaner.New(cfg, fs, e.validator)

	e.organizer.SetProgressReporter(e.progress)
	e.analyzer.SetProgressReporter(e.progress)
	e.cleaner.SetProgressReporter(e.progress)

	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() *config.Config {
	return e.config
}

// Progress returns the reporter every operation publishes to
func (e *Engine) Progress() *progress.Reporter {
	return e.progress
}

// Categories returns the current category table snapshot
func (e *Engine) Categories() *classifier.Table {
	return e.registry.Snapshot()
}

// GetCategories returns category name to extensions
func (e *Engine) GetCategories() map[string][]string {
	return e.registry.GetCategories()
}

// SetCategory adds or replaces a category. Running operations keep the
// table they started with.
func (e *Engine) SetCategory(name string, exts []string) error {
	return e.editCategories("set", name, func() error { return e.registry.SetCategory(name, exts) })
}

// AddExtension adds ext to an existing category
func (e *Engine) AddExtension(category, ext string) error {
	return e.editCategories("add extension to", category, func() error { return e.registry.AddExtension(category, ext) })
}

// RemoveCategory deletes a category
func (e *Engine) RemoveCategory(name string) error {
	return e.editCategories("remove", name, func() error { return e.registry.RemoveCategory(name) })
}

// editCategories applies edit and mirrors the new table into the config so
// it can be saved
func (e *Engine) editCategories(verb, name string, edit func() error) error {
	if err := edit(); err != nil {
		return err
	}
	t := e.registry.Snapshot()
	e.config.SetCategoryTable(t)
	e.log.Info("Category table v%d: %s %s", t.Version(), verb, name)
	e.log.Debug("Categories in match order: %s", strings.Join(t.Names(), ", "))
	return nil
}

// rootFor resolves root to an absolute path. Destructive operations also
// refuse protected system locations.
func (e *Engine) rootFor(root string, destructive bool) (string, error) {
	if !destructive {
		abs, err := filepath.Abs(root)
		if err != nil {
			return "", &scanner.ScanError{Kind: scanner.IOFailure, Path: root, Err: err}
		}
		return abs, nil
	}

	abs, err := e.validator.ValidateRoot(root)
	if err != nil {
		return "", &scanner.ScanError{Kind: scanner.KindOf(err), Path: root, Err: err}
	}
	return abs, nil
}

// begin logs the start of an operation and returns a function logging its end
func (e *Engine) begin(op, root string) func(err error) {
	runID := uuid.NewString()[:8]
	start := time.Now()
	e.log.Info("[%s] %s %s", runID, op, root)
	return func(err error) {
		if err != nil {
			e.log.Error("[%s] %s failed after %s: %v", runID, op, progress.FormatDuration(time.Since(start)), err)
			return
		}
		e.log.Info("[%s] %s finished in %s", runID, op, progress.FormatDuration(time.Since(start)))
	}
}

// Scan lists every regular file below root. Unreadable directories are
// returned as errors without failing the scan.
func (e *Engine) Scan(ctx context.Context, root string) ([]scanner.FileRecord, []scanner.DirError, error) {
	abs, err := e.rootFor(root, false)
	if err != nil {
		return nil, nil, err
	}
	done := e.begin("scan", abs)

	result, err := e.scanner.Scan(ctx, abs)
	done(err)
	if err == nil {
		e.log.Debug("Scanned %d directories, %d files, %d errors", result.Directories, len(result.Files), len(result.Errors))
	}
	return result.Files, result.Errors, err
}

// Organize moves every file below root into root/<Category>/
func (e *Engine) Organize(ctx context.Context, root string) (*organizer.OrganizeReport, error) {
	table := e.registry.Snapshot()
	abs, err := e.rootFor(root, true)
	if err != nil {
		return &organizer.OrganizeReport{Root: root, ByCategory: map[string]int{}, Outcomes: []organizer.MoveOutcome{}}, err
	}
	done := e.begin("organize", abs)

	report, err := e.organizer.Organize(ctx, abs, table)
	done(err)
	if report != nil {
		e.log.Info("Organized %d/%d files (%d skipped, %d failed)", report.Succeeded, report.Total, report.Skipped, report.Failed)
		for _, f := range report.Failures() {
			e.log.Warn("Move failed: %s: %v", f.Source, f.Err)
		}
	}
	return report, err
}

// FindDuplicates scans root and groups files with identical content
func (e *Engine) FindDuplicates(ctx context.Context, root string) (*scanner.DuplicateReport, error) {
	abs, err := e.rootFor(root, false)
	if err != nil {
		return &scanner.DuplicateReport{Groups: []scanner.DigestGroup{}}, err
	}
	done := e.begin("find duplicates", abs)

	result, err := e.scanner.Scan(ctx, abs)
	if err != nil {
		done(err)
		return &scanner.DuplicateReport{Algorithm: e.config.HashAlgorithm, Groups: []scanner.DigestGroup{}}, err
	}

	report, err := e.scanner.FindDuplicates(ctx, result.Files)
	done(err)
	for _, hf := range report.HashFailures {
		e.log.Warn("Could not hash %s: %v", hf.Path, hf.Err)
	}
	e.log.Info("Found %d duplicate groups, %s reclaimable", len(report.Groups), utils.FormatBytes(report.ReclaimableBytes))
	return report, err
}

// RemoveDuplicates deletes every member of each group except the kept one
func (e *Engine) RemoveDuplicates(ctx context.Context, groups []scanner.DigestGroup) (*cleaner.CleanResult, error) {
	done := e.begin("remove duplicates", fmt.Sprintf("%d groups", len(groups)))
	result, err := e.cleaner.RemoveDuplicates(ctx, groups)
	done(err)
	e.logClean(result)
	return result, err
}

// Sweep lists temporary files below root without deleting anything
func (e *Engine) Sweep(ctx context.Context, root string) (*scanner.SweepReport, error) {
	abs, err := e.rootFor(root, true)
	if err != nil {
		return &scanner.SweepReport{Root: root, Candidates: []scanner.SweepCandidate{}}, err
	}
	done := e.begin("sweep", abs)

	report, err := e.scanner.Sweep(ctx, abs)
	done(err)
	if report != nil {
		e.log.Info("Found %d temporary files, %s", len(report.Candidates), utils.FormatBytes(report.TotalBytes))
	}
	return report, err
}

// ExecuteSweep deletes sweep candidates. Failures are collected, not fatal.
func (e *Engine) ExecuteSweep(ctx context.Context, candidates []scanner.SweepCandidate) (*cleaner.CleanResult, error) {
	targets := make([]cleaner.Target, len(candidates))
	for i, c := range candidates {
		targets[i] = cleaner.Target{FileRecord: c.FileRecord, Category: c.Reason + ":" + c.Rule}
	}

	done := e.begin("execute sweep", fmt.Sprintf("%d files", len(targets)))
	result, err := e.cleaner.Clean(ctx, "sweep", targets)
	done(err)
	e.logClean(result)
	return result, err
}

func (e *Engine) logClean(result *cleaner.CleanResult) {
	if result == nil {
		return
	}
	verb := "Deleted"
	if result.DryRun {
		verb = "Would delete"
	}
	e.log.Info("%s %d files (%s), %d skipped, %d failed",
		verb, result.DeletedCount(), utils.FormatBytes(result.DeletedSize), len(result.Skipped), len(result.Errors))
	for _, de := range result.Errors {
		e.log.Warn("%s", de.UserMessage())
	}
	if !result.Accounted() {
		e.log.Error("Deletion tally mismatch: %d requested, %d deleted, %d skipped, %d failed",
			result.Requested, result.DeletedCount(), len(result.Skipped), len(result.Errors))
	}
	if result.ManifestPath != "" {
		e.log.Info("Deletion manifest written to %s", result.ManifestPath)
	}
}

// Analyze scans root and aggregates size, category and age statistics
func (e *Engine) Analyze(ctx context.Context, root string) (*analyzer.AggregateStats, error) {
	table := e.registry.Snapshot()
	abs, err := e.rootFor(root, false)
	if err != nil {
		return analyzer.NewStats(e.config.Analyze.TopN), err
	}
	done := e.begin("analyze", abs)

	stats, err := e.analyzer.Analyze(ctx, abs, table)
	done(err)
	return stats, err
}

// Watch organizes files as they appear directly inside root until ctx is
// cancelled. Category directories and names matching the sweep rules are
// ignored.
func (e *Engine) Watch(ctx context.Context, root string) (*watcher.Summary, error) {
	abs, err := e.rootFor(root, true)
	if err != nil {
		return nil, err
	}
	info, err := e.fs.Stat(abs)
	if err != nil {
		return nil, &scanner.ScanError{Kind: scanner.KindOf(err), Path: abs, Err: err}
	}
	if !info.IsDir() {
		return nil, &scanner.ScanError{Kind: scanner.NotADirectory, Path: abs}
	}

	mover := e.organizer.NewMover()
	handler := func(path string) organizer.MoveOutcome {
		info, err := e.fs.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return organizer.MoveOutcome{Source: path, Status: organizer.Skipped, Reason: "vanished"}
			}
			return organizer.MoveOutcome{Source: path, Status: organizer.Failed, Err: err, Reason: err.Error()}
		}
		if !info.Mode().IsRegular() {
			return organizer.MoveOutcome{Source: path, Status: organizer.Skipped, Reason: "not a regular file"}
		}
		// the table is re-read per file so category edits apply to later arrivals
		return organizer.Place(mover, abs, scanner.NewRecord(path, info, false), e.registry.Snapshot())
	}
	debounce := time.Duration(e.config.Watch.DebounceSeconds) * time.Second
	done := e.begin("watch", abs)
	summary, err := watcher.New(abs, debounce, handler, e.watchIgnored, e.log).Run(ctx)
	done(err)
	return summary, err
}

// watchIgnored reports whether watch mode should leave path alone: category
// directories and names matching the sweep rules
func (e *Engine) watchIgnored(path string) bool {
	name := filepath.Base(path)
	if e.registry.Snapshot().IsTargetDir(name) {
		return true
	}
	_, _, temp := scanner.MatchTemp(name, e.config.Sweep.Suffixes, e.config.Sweep.Patterns)
	return temp
}
