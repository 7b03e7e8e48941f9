package organizer

import (
	"context"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/fenilsonani/fileflow/internal/classifier"
	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/pool"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/internal/scanner"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Skip reasons
const (
	ReasonNoExtension      = "no extension"
	ReasonAlreadyOrganized = "already organized"
	ReasonCancelled        = "cancelled"
)

// OrganizeReport is the outcome of one organize run. Every scanned file has
// exactly one outcome and Succeeded+Skipped+Failed == Total.
type OrganizeReport struct {
	RunID        string             `json:"run_id" yaml:"run_id"`
	Root         string             `json:"root" yaml:"root"`
	DryRun       bool               `json:"dry_run" yaml:"dry_run"`
	TableVersion int64              `json:"table_version" yaml:"table_version"`
	Total        int                `json:"total" yaml:"total"`
	Succeeded    int                `json:"succeeded" yaml:"succeeded"`
	Skipped      int                `json:"skipped" yaml:"skipped"`
	Failed       int                `json:"failed" yaml:"failed"`
	Outcomes     []MoveOutcome      `json:"outcomes" yaml:"outcomes"`
	ByCategory   map[string]int     `json:"by_category" yaml:"by_category"`
	ScanErrors   []scanner.DirError `json:"-" yaml:"-"`
	Duration     time.Duration      `json:"duration" yaml:"duration"`
}

// Failures returns the failed outcomes
func (r *OrganizeReport) Failures() []MoveOutcome {
	var out []MoveOutcome
	for _, o := range r.Outcomes {
		if o.Status == Failed {
			out = append(out, o)
		}
	}
	return out
}

// Organizer buckets files below a root into <root>/<Category>/ directories
type Organizer struct {
	config           *config.Config
	fs               afero.Fs
	scanner          *scanner.Scanner
	progressReporter *progress.Reporter
}

// New creates an Organizer that scans with s
func New(cfg *config.Config, s *scanner.Scanner) *Organizer {
	if cfg == nil {
		cfg = config.GetDefault()
	}
	if s == nil {
		s = scanner.New(cfg, nil)
	}
	return &Organizer{
		config:  cfg,
		fs:      s.Fs(),
		scanner: s,
	}
}

// SetProgressReporter sets the progress reporter for scan and move phases
func (o *Organizer) SetProgressReporter(pr *progress.Reporter) {
	o.progressReporter = pr
	o.scanner.SetProgressReporter(pr)
}

// NewMover returns a Mover configured like the ones Organize uses
func (o *Organizer) NewMover() *Mover {
	return NewMover(o.fs, o.config.Organize.MaxSuffixAttempts, o.config.DryRun)
}

// Organize scans root once and moves each file into the directory of its
// category under root. Files without an extension and files already in
// their category directory are skipped. A scan error on root aborts with an
// empty report; unreadable subdirectories are listed in ScanErrors.
func (o *Organizer) Organize(ctx context.Context, root string, table *classifier.Table) (*OrganizeReport, error) {
	start := time.Now()
	report := &OrganizeReport{
		RunID:        uuid.NewString(),
		Root:         root,
		DryRun:       o.config.DryRun,
		TableVersion: table.Version(),
		Outcomes:     []MoveOutcome{},
		ByCategory:   make(map[string]int),
	}

	scan, err := o.scanner.Scan(ctx, root)
	if err != nil {
		report.Duration = time.Since(start)
		return report, err
	}
	report.ScanErrors = scan.Errors

	err = o.OrganizeFiles(ctx, root, scan.Files, table, o.NewMover(), report)
	report.Duration = time.Since(start)
	return report, err
}

// OrganizeFiles places files into report using m. Destinations are
// reserved one file at a time in path order before any move runs, so a
// name clash always resolves the same way whatever the worker count and a
// dry run shows exactly the names a real run will use. Files never
// dispatched because ctx was cancelled are recorded as skipped.
func (o *Organizer) OrganizeFiles(ctx context.Context, root string, files []scanner.FileRecord, table *classifier.Table, m *Mover, report *OrganizeReport) error {
	outcomes := make([]MoveOutcome, len(files))
	tracker := o.progressReporter.Track("organize", progress.PhaseMoving, len(files))

	var nMoved, nSkipped, nFailed atomic.Int64
	settle := func(i int, out MoveOutcome) {
		outcomes[i] = out
		switch out.Status {
		case Moved:
			nMoved.Add(1)
		case Skipped:
			nSkipped.Add(1)
		default:
			nFailed.Add(1)
		}
		tracker.Step(files[i].Path, files[i].Size, out.Status == Failed)
	}

	order := make([]int, len(files))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return files[order[a]].Path < files[order[b]].Path })

	var pending []plannedMove
	for _, i := range order {
		if ctx.Err() != nil {
			break
		}
		p, out, ok := plan(m, root, files[i], table)
		if !ok {
			settle(i, out)
			continue
		}
		p.index = i
		pending = append(pending, p)
	}

	err := pool.ForEach(ctx, o.config.Workers, pending, func(_ context.Context, p plannedMove) {
		out := m.MoveTo(files[p.index], p.dest)
		out.Category = p.category
		settle(p.index, out)
	})

	for i := range outcomes {
		if outcomes[i].Status == 0 {
			outcomes[i] = MoveOutcome{Source: files[i].Path, Status: Skipped, Reason: ReasonCancelled}
			nSkipped.Add(1)
		}
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Source < outcomes[j].Source })

	report.Total += len(files)
	report.Succeeded += int(nMoved.Load())
	report.Skipped += int(nSkipped.Load())
	report.Failed += int(nFailed.Load())
	report.Outcomes = append(report.Outcomes, outcomes...)
	for _, out := range outcomes {
		if out.Status == Moved {
			report.ByCategory[out.Category]++
		}
	}

	tracker.Finish(err)
	return err
}

// plannedMove is a file whose destination has been reserved
type plannedMove struct {
	index    int
	category string
	dest     string
}

// plan classifies file and reserves its destination. When ok is false the
// file is settled by out and no move is needed.
func plan(m *Mover, root string, file scanner.FileRecord, table *classifier.Table) (p plannedMove, out MoveOutcome, ok bool) {
	category := table.Classify(file.Ext)
	if category == "" {
		return p, MoveOutcome{Source: file.Path, Status: Skipped, Reason: ReasonNoExtension}, false
	}

	destDir := filepath.Join(root, category)
	if filepath.Dir(file.Path) == destDir {
		return p, MoveOutcome{Source: file.Path, Status: Skipped, Category: category, Reason: ReasonAlreadyOrganized}, false
	}

	dest, err := m.Reserve(destDir, filepath.Base(file.Path))
	if err != nil {
		out = failed(MoveOutcome{Source: file.Path, Category: category}, err)
		return p, out, false
	}
	return plannedMove{category: category, dest: dest}, out, true
}

// Place classifies one file and moves it under root. It never returns a
// zero outcome.
func Place(m *Mover, root string, file scanner.FileRecord, table *classifier.Table) MoveOutcome {
	p, out, ok := plan(m, root, file, table)
	if !ok {
		return out
	}
	out = m.MoveTo(file, p.dest)
	out.Category = p.category
	return out
}
