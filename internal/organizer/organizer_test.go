package organizer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fenilsonani/fileflow/internal/classifier"
	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/internal/scanner"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrganizer(fs afero.Fs, mutate func(*config.Config)) *Organizer {
	cfg := config.GetDefault()
	cfg.Workers = 4
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, scanner.New(cfg, fs))
}

func assertTally(t *testing.T, r *OrganizeReport) {
	t.Helper()
	assert.Equal(t, r.Total, r.Succeeded+r.Skipped+r.Failed, "tally must add up")
	assert.Len(t, r.Outcomes, r.Total, "one outcome per file")

	dests := make(map[string]bool)
	for _, o := range r.Outcomes {
		if o.Status != Moved {
			continue
		}
		assert.False(t, dests[o.Destination], "destination %s used twice", o.Destination)
		dests[o.Destination] = true
	}
}

func outcomeFor(r *OrganizeReport, source string) MoveOutcome {
	for _, o := range r.Outcomes {
		if o.Source == source {
			return o
		}
	}
	return MoveOutcome{}
}

func TestOrganizeLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/r/a.jpg", "image-a")
	writeFile(t, fs, "/r/sub/b.JPG", "image-b")
	writeFile(t, fs, "/r/c.pdf", "doc")
	writeFile(t, fs, "/r/d.xyz", "unknown")
	writeFile(t, fs, "/r/Makefile", "no ext")

	report, err := newTestOrganizer(fs, nil).Organize(context.Background(), "/r", classifier.Default())
	require.NoError(t, err)
	assertTally(t, report)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, map[string]int{"Images": 2, "Documents": 1, classifier.Others: 1}, report.ByCategory)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, int64(1), report.TableVersion)

	for path, content := range map[string]string{
		"/r/Images/a.jpg":    "image-a",
		"/r/Images/b.JPG":    "image-b",
		"/r/Documents/c.pdf": "doc",
		"/r/Others/d.xyz":    "unknown",
		"/r/Makefile":        "no ext",
	} {
		assert.Equal(t, content, readFile(t, fs, path), path)
	}

	skip := outcomeFor(report, "/r/Makefile")
	assert.Equal(t, Skipped, skip.Status)
	assert.Equal(t, ReasonNoExtension, skip.Reason)
}

func TestOrganizeOthersUsesCollisionSuffix(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/r/Others/data.xyz", "old")
	writeFile(t, fs, "/r/in/data.xyz", "new")

	report, err := newTestOrganizer(fs, nil).Organize(context.Background(), "/r", classifier.Default())
	require.NoError(t, err)

	out := outcomeFor(report, "/r/in/data.xyz")
	require.Equal(t, Moved, out.Status)
	assert.Equal(t, "/r/Others/data_1.xyz", out.Destination)
	assert.Equal(t, "old", readFile(t, fs, "/r/Others/data.xyz"))
}

func TestOrganizeIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/r/a.jpg", "a")
	writeFile(t, fs, "/r/b.pdf", "b")

	o := newTestOrganizer(fs, nil)
	_, err := o.Organize(context.Background(), "/r", classifier.Default())
	require.NoError(t, err)

	second, err := o.Organize(context.Background(), "/r", classifier.Default())
	require.NoError(t, err)
	assertTally(t, second)

	assert.Equal(t, 0, second.Succeeded)
	assert.Equal(t, 2, second.Skipped)
	for _, out := range second.Outcomes {
		assert.Equal(t, ReasonAlreadyOrganized, out.Reason)
	}

	exists, _ := afero.Exists(fs, "/r/Images/a_1.jpg")
	assert.False(t, exists, "a second run must not rename organized files")
}

func TestOrganizeMisplacedFileMoves(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/r/Images/notes.pdf", "doc")

	report, err := newTestOrganizer(fs, nil).Organize(context.Background(), "/r", classifier.Default())
	require.NoError(t, err)

	out := outcomeFor(report, "/r/Images/notes.pdf")
	assert.Equal(t, Moved, out.Status)
	assert.Equal(t, "/r/Documents/notes.pdf", out.Destination)
}

func TestOrganizeDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/r/x/a.jpg", "1")
	writeFile(t, fs, "/r/y/a.jpg", "2")

	o := newTestOrganizer(fs, func(cfg *config.Config) { cfg.DryRun = true })
	report, err := o.Organize(context.Background(), "/r", classifier.Default())
	require.NoError(t, err)
	assertTally(t, report)

	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, "/r/Images/a.jpg", outcomeFor(report, "/r/x/a.jpg").Destination)
	assert.Equal(t, "/r/Images/a_1.jpg", outcomeFor(report, "/r/y/a.jpg").Destination)

	exists, _ := afero.DirExists(fs, "/r/Images")
	assert.False(t, exists, "dry run must not touch the filesystem")
}

func TestOrganizeClashesResolveInPathOrder(t *testing.T) {
	want := map[string]string{
		"/r/x/a.jpg":   "/r/Images/a.jpg",
		"/r/y/a.jpg":   "/r/Images/a_1.jpg",
		"/r/z/q/a.jpg": "/r/Images/a_2.jpg",
	}

	for _, dryRun := range []bool{true, false} {
		for workers := 1; workers <= 8; workers++ {
			t.Run(fmt.Sprintf("dry=%v/workers=%d", dryRun, workers), func(t *testing.T) {
				fs := afero.NewMemMapFs()
				for src := range want {
					writeFile(t, fs, src, src)
				}

				o := newTestOrganizer(fs, func(cfg *config.Config) {
					cfg.Workers = workers
					cfg.DryRun = dryRun
				})
				report, err := o.Organize(context.Background(), "/r", classifier.Default())
				require.NoError(t, err)
				assertTally(t, report)

				for src, dest := range want {
					assert.Equal(t, dest, outcomeFor(report, src).Destination, src)
					if !dryRun {
						assert.Equal(t, src, readFile(t, fs, dest))
					}
				}
			})
		}
	}
}

func TestOrganizeCustomTable(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/r/main.go", "package main")

	table, err := classifier.NewTable(7, []classifier.Category{{Name: "Go", Extensions: []string{".go"}}})
	require.NoError(t, err)

	report, err := newTestOrganizer(fs, nil).Organize(context.Background(), "/r", table)
	require.NoError(t, err)
	assert.Equal(t, int64(7), report.TableVersion)
	assert.Equal(t, "/r/Go/main.go", outcomeFor(report, "/r/main.go").Destination)
}

func TestOrganizeMissingRoot(t *testing.T) {
	report, err := newTestOrganizer(afero.NewMemMapFs(), nil).Organize(context.Background(), "/missing", classifier.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, scanner.ErrPathNotFound))
	assert.Equal(t, 0, report.Total)
	assert.Empty(t, report.Outcomes)
}

func TestOrganizeFilesCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := []scanner.FileRecord{
		writeFile(t, fs, "/r/a.jpg", "a"),
		writeFile(t, fs, "/r/b.jpg", "b"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrganizer(fs, nil)
	report := &OrganizeReport{ByCategory: map[string]int{}}
	err := o.OrganizeFiles(ctx, "/r", files, classifier.Default(), o.NewMover(), report)

	assert.True(t, errors.Is(err, context.Canceled))
	assertTally(t, report)
	assert.Equal(t, 2, report.Skipped)
	for _, out := range report.Outcomes {
		assert.Equal(t, ReasonCancelled, out.Reason)
	}
}

func TestOrganizePublishesProgress(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/r/a.jpg", "a")

	o := newTestOrganizer(fs, nil)
	pr := progress.NewReporter()
	o.SetProgressReporter(pr)

	_, err := o.Organize(context.Background(), "/r", classifier.Default())
	require.NoError(t, err)

	last := pr.Last()
	require.NotNil(t, last)
	assert.Equal(t, "organize", last.Operation)
	assert.Equal(t, progress.PhaseComplete, last.Phase)
}

func TestOrganizeTallyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	exts := []string{".jpg", ".pdf", ".mp3", ".xyz", ""}
	properties.Property("every file gets one outcome and destinations are unique", prop.ForAll(
		func(picks []int, workers int) bool {
			fs := afero.NewMemMapFs()
			for i, p := range picks {
				// few distinct names so collisions are common
				name := fmt.Sprintf("/r/d%d/f%d%s", i, i%3, exts[p%len(exts)])
				if err := afero.WriteFile(fs, name, []byte(name), 0644); err != nil {
					return false
				}
			}

			o := newTestOrganizer(fs, func(cfg *config.Config) { cfg.Workers = workers })
			report, err := o.Organize(context.Background(), "/r", classifier.Default())
			if err != nil {
				return false
			}
			if report.Total != len(picks) || report.Succeeded+report.Skipped+report.Failed != report.Total {
				return false
			}

			dests := make(map[string]bool)
			for _, out := range report.Outcomes {
				if out.Status != Moved {
					continue
				}
				if dests[out.Destination] {
					return false
				}
				dests[out.Destination] = true
				if data, err := afero.ReadFile(fs, out.Destination); err != nil || string(data) != out.Source {
					return false
				}
			}
			return report.Failed == 0
		},
		gen.SliceOfN(20, gen.IntRange(0, 100)),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
