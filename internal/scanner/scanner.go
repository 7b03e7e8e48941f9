package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/pool"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/spf13/afero"
)

// Scanner enumerates regular files below a root directory
type Scanner struct {
	config           *config.Config
	fs               afero.Fs
	progressReporter *progress.Reporter
}

// New creates a new Scanner
func New(cfg *config.Config, fs afero.Fs) *Scanner {
	if cfg == nil {
		cfg = config.GetDefault()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Scanner{
		config: cfg,
		fs:     fs,
	}
}

// SetProgressReporter sets a custom progress reporter
func (s *Scanner) SetProgressReporter(pr *progress.Reporter) {
	s.progressReporter = pr
}

// Fs returns the filesystem the scanner reads
func (s *Scanner) Fs() afero.Fs {
	return s.fs
}

// Scan lists every regular file below root in two passes. The first pass
// collects all directories without following symlinks; the second lists
// each directory's immediate entries on the worker pool. Unreadable
// directories are reported in ScanResult.Errors and do not stop the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	result := &ScanResult{
		Root:   root,
		Files:  []FileRecord{},
		Errors: []DirError{},
	}

	info, err := s.fs.Stat(root)
	if err != nil {
		return result, &ScanError{Kind: KindOf(err), Path: root, Err: err}
	}
	if !info.IsDir() {
		return result, &ScanError{Kind: NotADirectory, Path: root}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	dirs := s.collectDirectories(root)
	result.Directories = len(dirs)

	tracker := s.progressReporter.Track("scan", progress.PhaseScanning, len(dirs))

	var mu sync.Mutex
	err = pool.ForEach(ctx, s.config.Workers, dirs, func(_ context.Context, dir string) {
		files, errs := s.listDirectory(dir)

		var bytes int64
		for _, f := range files {
			bytes += f.Size
		}

		mu.Lock()
		result.merge(files, errs)
		mu.Unlock()

		tracker.Step(dir, bytes, len(errs) > 0)
	})

	result.sortByPath()
	tracker.Finish(err)
	return result, err
}

// collectDirectories walks breadth-first and returns root plus every
// directory below it. Symlinked directories are never entered, which also
// rules out cycles. Directories that cannot be listed are still returned so
// the listing pass records their error.
func (s *Scanner) collectDirectories(root string) []string {
	dirs := []string{root}
	for i := 0; i < len(dirs); i++ {
		entries, err := afero.ReadDir(s.fs, dirs[i])
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || s.excluded(entry.Name()) {
				continue
			}
			dirs = append(dirs, filepath.Join(dirs[i], entry.Name()))
		}
	}
	return dirs
}

// listDirectory returns the regular files directly inside dir. A symlink
// counts as a file when its target is a regular file; dangling links are
// reported as errors.
func (s *Scanner) listDirectory(dir string) ([]FileRecord, []DirError) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, []DirError{newDirError(dir, err)}
	}

	var files []FileRecord
	var errs []DirError
	for _, entry := range entries {
		if s.excluded(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		mode := entry.Mode()

		switch {
		case mode.IsRegular():
			files = append(files, NewRecord(path, entry, false))
		case mode&os.ModeSymlink != 0:
			target, err := s.fs.Stat(path)
			if err != nil {
				errs = append(errs, newDirError(path, err))
				continue
			}
			if target.Mode().IsRegular() {
				files = append(files, NewRecord(path, target, true))
			}
		}
	}
	return files, errs
}

// excluded reports whether name matches a configured exclude pattern
func (s *Scanner) excluded(name string) bool {
	for _, pattern := range s.config.ExcludePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
