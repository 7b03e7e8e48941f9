// Package analyzer builds size, category and age statistics for a
// directory tree.
package analyzer

import (
	"context"
	"sync"

	"github.com/fenilsonani/fileflow/internal/classifier"
	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/pool"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/internal/scanner"
	"github.com/spf13/afero"
)

// Analyzer aggregates statistics over scanned files
type Analyzer struct {
	config           *config.Config
	fs               afero.Fs
	scanner          *scanner.Scanner
	progressReporter *progress.Reporter
}

// New creates an Analyzer that scans with s
func New(cfg *config.Config, s *scanner.Scanner) *Analyzer {
	if cfg == nil {
		cfg = config.GetDefault()
	}
	if s == nil {
		s = scanner.New(cfg, nil)
	}
	return &Analyzer{
		config:  cfg,
		fs:      s.Fs(),
		scanner: s,
	}
}

// SetProgressReporter sets the progress reporter for scan and analyze phases
func (a *Analyzer) SetProgressReporter(pr *progress.Reporter) {
	a.progressReporter = pr
	a.scanner.SetProgressReporter(pr)
}

// Analyze scans root once and aggregates every file found
func (a *Analyzer) Analyze(ctx context.Context, root string, table *classifier.Table) (*AggregateStats, error) {
	scan, err := a.scanner.Scan(ctx, root)
	if err != nil {
		stats := NewStats(a.config.Analyze.TopN)
		stats.Root = root
		return stats, err
	}

	stats, err := a.Aggregate(ctx, scan.Files, table)
	stats.Root = root
	stats.ScanErrors = scan.Errors
	return stats, err
}

// Aggregate re-stats and classifies files in one batch per worker and
// merges the partial results. Files that can no longer be stat'ed are
// counted in StatErrors.
func (a *Analyzer) Aggregate(ctx context.Context, files []scanner.FileRecord, table *classifier.Table) (*AggregateStats, error) {
	total := NewStats(a.config.Analyze.TopN)
	batches := pool.Batches(files, pool.Width(a.config.Workers))

	tracker := a.progressReporter.Track("analyze", progress.PhaseAnalyzing, len(files))

	var mu sync.Mutex
	err := pool.ForEach(ctx, a.config.Workers, batches, func(ctx context.Context, batch []scanner.FileRecord) {
		partial := NewStats(a.config.Analyze.TopN)
		for _, f := range batch {
			if ctx.Err() != nil {
				break
			}
			info, err := a.fs.Stat(f.Path)
			if err != nil {
				partial.StatErrors++
				tracker.Step(f.Path, 0, true)
				continue
			}
			rec := scanner.NewRecord(f.Path, info, f.Symlink)
			partial.Add(rec, table.Classify(rec.Ext))
			tracker.Step(f.Path, rec.Size, false)
		}

		mu.Lock()
		total.Merge(partial)
		mu.Unlock()
	})

	if err == nil {
		err = ctx.Err()
	}
	tracker.Finish(err)
	return total, err
}
