package cleaner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/filelock"
	"github.com/fenilsonani/fileflow/internal/pool"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/internal/scanner"
	"github.com/fenilsonani/fileflow/internal/security"
	"github.com/fenilsonani/fileflow/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// retryDelays is the backoff between attempts for retryable failures
var retryDelays = []time.Duration{50 * time.Millisecond, 200 * time.Millisecond, time.Second}

// CleanResult represents the result of a deletion run. Every requested
// file ends up in exactly one of Deleted, Skipped or Errors.
type CleanResult struct {
	RunID         string
	Operation     string
	Requested     int
	Deleted       []string
	DeletedSize   int64
	Skipped       []string
	SkippedReason map[string]string
	Errors        []*DeletionError
	DryRun        bool
	ManifestPath  string
	Duration      time.Duration
}

// DeletedCount returns the number of removed (or, in dry-run, removable) files
func (r *CleanResult) DeletedCount() int {
	return len(r.Deleted)
}

// Accounted reports whether every requested file has an outcome
func (r *CleanResult) Accounted() bool {
	return len(r.Deleted)+len(r.Skipped)+len(r.Errors) == r.Requested
}

func (r *CleanResult) sort() {
	sort.Strings(r.Deleted)
	sort.Strings(r.Skipped)
	sort.Slice(r.Errors, func(i, j int) bool { return r.Errors[i].Path < r.Errors[j].Path })
}

// Cleaner handles file deletion
type Cleaner struct {
	config           *config.Config
	fs               afero.Fs
	validator        *security.PathValidator
	progressReporter *progress.Reporter
}

// New creates a new Cleaner. A nil validator gets the default protected set
// plus cfg.ProtectedPaths.
func New(cfg *config.Config, fs afero.Fs, validator *security.PathValidator) *Cleaner {
	if cfg == nil {
		cfg = config.GetDefault()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if validator == nil {
		validator = security.NewPathValidator(cfg.ProtectedPaths...)
	}
	return &Cleaner{
		config:    cfg,
		fs:        fs,
		validator: validator,
	}
}

// SetProgressReporter sets the progress reporter for the cleaner
func (c *Cleaner) SetProgressReporter(pr *progress.Reporter) {
	c.progressReporter = pr
}

// Target is one file to delete together with the reason it was selected
type Target struct {
	scanner.FileRecord
	Category string
}

// RemoveDuplicates deletes every non-kept member of each group. A group
// whose kept file is missing or changed is left untouched, so content is
// never lost.
func (c *Cleaner) RemoveDuplicates(ctx context.Context, groups []scanner.DigestGroup) (*CleanResult, error) {
	var targets []Target
	var held []*DeletionError

	for _, g := range groups {
		if len(g.Files) < 2 {
			continue
		}
		keep := g.Keep()
		if err := c.checkUnchanged(keep); err != nil {
			for _, dup := range g.Duplicates() {
				held = append(held, &DeletionError{
					Path:     dup.Path,
					Reason:   ErrorChanged,
					Original: fmt.Errorf("kept copy %s unavailable: %w", keep.Path, err),
				})
			}
			continue
		}
		for _, dup := range g.Duplicates() {
			targets = append(targets, Target{FileRecord: dup, Category: "duplicate of " + keep.Path})
		}
	}

	result, err := c.Clean(ctx, "remove-duplicates", targets)
	result.Requested += len(held)
	result.Errors = append(result.Errors, held...)
	result.sort()
	return result, err
}

// Clean deletes targets concurrently. Each deletion is independent: a
// failure is recorded and the run continues.
func (c *Cleaner) Clean(ctx context.Context, operation string, targets []Target) (*CleanResult, error) {
	start := time.Now()
	result := &CleanResult{
		RunID:         uuid.NewString(),
		Operation:     operation,
		Requested:     len(targets),
		SkippedReason: make(map[string]string),
		DryRun:        c.config.DryRun,
	}
	manifest := NewDeletionManifest(result.RunID, operation)

	tracker := c.progressReporter.Track(operation, progress.PhaseDeleting, len(targets))

	var mu sync.Mutex
	err := pool.ForEach(ctx, c.config.Workers, targets, func(ctx context.Context, t Target) {
		skipReason, delErr := c.deleteWithRetry(ctx, t, manifest)

		mu.Lock()
		switch {
		case delErr != nil:
			result.Errors = append(result.Errors, delErr)
		case skipReason != "":
			result.Skipped = append(result.Skipped, t.Path)
			result.SkippedReason[t.Path] = skipReason
		default:
			result.Deleted = append(result.Deleted, t.Path)
			result.DeletedSize += t.Size
		}
		mu.Unlock()

		tracker.Step(t.Path, t.Size, delErr != nil)
	})

	// targets never dispatched after cancellation are reported as skipped
	if err != nil {
		done := make(map[string]bool, len(targets))
		for _, p := range result.Deleted {
			done[p] = true
		}
		for _, p := range result.Skipped {
			done[p] = true
		}
		for _, e := range result.Errors {
			done[e.Path] = true
		}
		for _, t := range targets {
			if !done[t.Path] {
				result.Skipped = append(result.Skipped, t.Path)
				result.SkippedReason[t.Path] = "cancelled"
			}
		}
	}

	result.sort()
	result.Duration = time.Since(start)

	if !result.DryRun && c.config.Organize.ManifestDir != "" && manifest.Len() > 0 {
		path, saveErr := manifest.Save(c.config.Organize.ManifestDir)
		if saveErr != nil && err == nil {
			err = fmt.Errorf("failed to save deletion manifest: %w", saveErr)
		}
		result.ManifestPath = path
	}

	tracker.Finish(err)
	return result, err
}

// deleteWithRetry retries only failures CategorizeError marks retryable
func (c *Cleaner) deleteWithRetry(ctx context.Context, t Target, manifest *DeletionManifest) (string, *DeletionError) {
	skip, delErr := c.deleteFile(t, manifest)
	for attempt := 0; delErr != nil && delErr.Retryable && attempt < len(retryDelays); attempt++ {
		select {
		case <-ctx.Done():
			return "", delErr
		case <-time.After(retryDelays[attempt]):
		}
		skip, delErr = c.deleteFile(t, manifest)
	}
	return skip, delErr
}

// deleteFile removes one file after re-checking it against the scan
func (c *Cleaner) deleteFile(t Target, manifest *DeletionManifest) (string, *DeletionError) {
	if err := c.validator.ValidatePathForDeletion(t.Path); err != nil {
		return "", &DeletionError{Path: t.Path, Reason: ErrorInvalidPath, Original: err}
	}

	info, err := IsSafeToDelete(c.fs, t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "already gone", nil
		}
		if info != nil {
			reason := ErrorInvalidPath
			if info.IsDir() {
				reason = ErrorIsDirectory
			}
			return "", &DeletionError{Path: t.Path, Reason: reason, Original: err}
		}
		return "", CategorizeError(t.Path, err)
	}

	// A path that became a symlink after the scan could point anywhere
	if info.Mode()&os.ModeSymlink != 0 && !t.Symlink {
		return "", &DeletionError{Path: t.Path, Reason: ErrorChanged, Original: fmt.Errorf("file changed to symlink")}
	}
	if !t.Symlink && info.Size() != t.Size {
		return "", &DeletionError{
			Path:     t.Path,
			Reason:   ErrorChanged,
			Original: fmt.Errorf("size changed from %d to %d", t.Size, info.Size()),
		}
	}

	if c.config.DryRun {
		return "", nil
	}

	if err := c.fs.Remove(t.Path); err != nil {
		if os.IsNotExist(err) {
			return "already gone", nil
		}
		return "", CategorizeError(t.Path, err)
	}

	manifest.Add(t.Path, t.Size, t.Category)
	return "", nil
}

// checkUnchanged verifies a scanned file still exists with the same size
func (c *Cleaner) checkUnchanged(f scanner.FileRecord) error {
	info, err := c.fs.Stat(f.Path)
	if err != nil {
		return err
	}
	if info.Size() != f.Size {
		return fmt.Errorf("size changed from %d to %d", f.Size, info.Size())
	}
	return nil
}

// DeletionManifest records successfully deleted files
type DeletionManifest struct {
	RunID     string
	Operation string
	Files     []DeletedFileInfo
	Timestamp time.Time
	TotalSize int64
	mu        sync.Mutex
}

// DeletedFileInfo contains information about a deleted file
type DeletedFileInfo struct {
	Path      string
	Size      int64
	Category  string
	DeletedAt time.Time
}

// NewDeletionManifest creates an empty manifest for one run
func NewDeletionManifest(runID, operation string) *DeletionManifest {
	return &DeletionManifest{
		RunID:     runID,
		Operation: operation,
		Timestamp: time.Now(),
	}
}

// Add records a deleted file
func (m *DeletionManifest) Add(path string, size int64, category string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Files = append(m.Files, DeletedFileInfo{
		Path:      path,
		Size:      size,
		Category:  category,
		DeletedAt: time.Now(),
	})
	m.TotalSize += size
}

// Len returns the number of recorded files
func (m *DeletionManifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Files)
}

// Save writes the manifest as deletion-<timestamp>-<run>.log in dir and
// returns its path
func (m *DeletionManifest) Save(dir string) (string, error) {
	m.mu.Lock()
	files := append([]DeletedFileInfo(nil), m.Files...)
	total := m.TotalSize
	m.mu.Unlock()

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var sb strings.Builder
	sb.WriteString("# fileflow deletion manifest\n")
	fmt.Fprintf(&sb, "# Run: %s\n", m.RunID)
	fmt.Fprintf(&sb, "# Operation: %s\n", m.Operation)
	fmt.Fprintf(&sb, "# Date: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "# Total files: %d\n", len(files))
	fmt.Fprintf(&sb, "# Total size: %s\n\n", utils.FormatBytes(total))

	for _, f := range files {
		fmt.Fprintf(&sb, "%s\t%d\t%s\t%s\n",
			f.DeletedAt.Format(time.RFC3339), f.Size, f.Category, f.Path)
	}

	name := fmt.Sprintf("deletion-%s-%s.log", m.Timestamp.Format("20060102-150405"), m.RunID[:8])
	path := filepath.Join(dir, name)
	if err := filelock.WriteAtomic(path, []byte(sb.String()), 0600); err != nil {
		return "", err
	}
	return path, nil
}
