package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/internal/testutil"
	"github.com/spf13/afero"
)

// memFile writes a file into fs, creating parents, with the given mtime
func memFile(t *testing.T, fs afero.Fs, path, content string, mtime time.Time) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := fs.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestScanner(fs afero.Fs, workers int) *Scanner {
	cfg := config.GetDefault()
	cfg.Workers = workers
	return New(cfg, fs)
}

// =============================================================================
// Scan Tests
// =============================================================================

func TestScan_MatchesIndependentWalk(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.jpg", []byte("a"))
	f.CreateFile("docs/b.pdf", []byte("bb"))
	f.CreateFile("docs/deep/er/c.txt", []byte("ccc"))
	f.CreateFile("music/d.mp3", []byte("dddd"))
	f.CreateDir("empty")

	s := newTestScanner(afero.NewOsFs(), 4)
	result, err := s.Scan(context.Background(), f.RootDir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want, err := testutil.CountFiles(f.RootDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != want {
		t.Errorf("Scan() found %d files, independent walk found %d", len(result.Files), want)
	}
	if result.Directories != 6 {
		t.Errorf("Directories = %d, want 6", result.Directories)
	}
	if result.TotalSize() != 10 {
		t.Errorf("TotalSize() = %d, want 10", result.TotalSize())
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}

	for i := 1; i < len(result.Files); i++ {
		if result.Files[i-1].Path >= result.Files[i].Path {
			t.Errorf("files not sorted by path: %s >= %s", result.Files[i-1].Path, result.Files[i].Path)
		}
	}
}

func TestScan_RecordFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	memFile(t, fs, "/data/Photo.JPG", "12345", mtime)

	result, err := newTestScanner(fs, 2).Scan(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(result.Files))
	}

	rec := result.Files[0]
	if rec.Path != "/data/Photo.JPG" {
		t.Errorf("Path = %s", rec.Path)
	}
	if rec.Size != 5 {
		t.Errorf("Size = %d, want 5", rec.Size)
	}
	if !rec.ModTime.Equal(mtime) {
		t.Errorf("ModTime = %v, want %v", rec.ModTime, mtime)
	}
	if rec.Ext != ".jpg" {
		t.Errorf("Ext = %s, want .jpg", rec.Ext)
	}
}

func TestScan_WorkerCountDoesNotChangeResult(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{"/r/1.txt", "/r/a/2.txt", "/r/a/b/3.txt", "/r/c/4.txt", "/r/c/d/e/5.txt"} {
		memFile(t, fs, p, p, time.Time{})
	}

	one, err := newTestScanner(fs, 1).Scan(context.Background(), "/r")
	if err != nil {
		t.Fatal(err)
	}
	many, err := newTestScanner(fs, 16).Scan(context.Background(), "/r")
	if err != nil {
		t.Fatal(err)
	}

	if len(one.Files) != 5 || len(many.Files) != 5 {
		t.Fatalf("expected 5 files, got %d and %d", len(one.Files), len(many.Files))
	}
	for i := range one.Files {
		if one.Files[i].Path != many.Files[i].Path {
			t.Errorf("file %d differs: %s vs %s", i, one.Files[i].Path, many.Files[i].Path)
		}
	}
}

func TestScan_MissingRoot(t *testing.T) {
	s := newTestScanner(afero.NewMemMapFs(), 4)

	result, err := s.Scan(context.Background(), "/nope")
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
	if KindOf(err) != PathNotFound {
		t.Errorf("KindOf() = %s, want PathNotFound", KindOf(err))
	}
	if len(result.Files) != 0 {
		t.Error("expected empty result")
	}
}

func TestScan_RootIsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/file.txt", "x", time.Time{})

	_, err := newTestScanner(fs, 4).Scan(context.Background(), "/file.txt")
	if !errors.Is(err, ErrNotADirectory) {
		t.Errorf("expected ErrNotADirectory, got %v", err)
	}
}

func TestScan_UnreadableDirectoryIsRecorded(t *testing.T) {
	testutil.SkipIfRoot(t)
	testutil.SkipOnWindows(t)

	f := testutil.NewFixture(t)
	f.CreateFile("ok.txt", []byte("ok"))
	f.CreateFile("open/inner.txt", []byte("inner"))
	locked := f.CreateUnreadableDir("locked")

	result, err := newTestScanner(afero.NewOsFs(), 4).Scan(context.Background(), f.RootDir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(result.Files) != 2 {
		t.Errorf("expected 2 readable files, got %d", len(result.Files))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 directory error, got %d: %v", len(result.Errors), result.Errors)
	}
	if result.Errors[0].Path != locked {
		t.Errorf("error path = %s, want %s", result.Errors[0].Path, locked)
	}
	if result.Errors[0].Kind != PermissionDenied {
		t.Errorf("error kind = %s, want PermissionDenied", result.Errors[0].Kind)
	}
}

func TestScan_Symlinks(t *testing.T) {
	testutil.SkipOnWindows(t)

	f := testutil.NewFixture(t)
	target := f.CreateFile("real/target.txt", []byte("target"))
	f.CreateSymlink(target, "links/file-link.txt")
	f.CreateSymlink(f.Path("real"), "links/dir-link")
	f.CreateBrokenSymlink("links/dangling.txt")

	result, err := newTestScanner(afero.NewOsFs(), 4).Scan(context.Background(), f.RootDir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	// target.txt and file-link.txt; dir-link is not followed
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(result.Files), result.Files)
	}

	var link *FileRecord
	for i := range result.Files {
		if result.Files[i].Path == f.Path("links/file-link.txt") {
			link = &result.Files[i]
		}
	}
	if link == nil {
		t.Fatal("file symlink not reported")
	}
	if !link.Symlink || link.Size != int64(len("target")) {
		t.Errorf("symlink record = %+v", *link)
	}

	if len(result.Errors) != 1 || result.Errors[0].Path != f.Path("links/dangling.txt") {
		t.Errorf("expected one error for the dangling link, got %v", result.Errors)
	}
}

func TestScan_SymlinkCycleTerminates(t *testing.T) {
	testutil.SkipOnWindows(t)

	f := testutil.NewFixture(t)
	f.CreateFile("a/file.txt", []byte("x"))
	f.CreateSymlink(f.RootDir, "a/loop")

	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err := newTestScanner(afero.NewOsFs(), 2).Scan(context.Background(), f.RootDir)
		if err != nil {
			t.Errorf("Scan() error = %v", err)
			return
		}
		if len(result.Files) != 1 {
			t.Errorf("expected 1 file, got %d", len(result.Files))
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("scan did not terminate on a symlink cycle")
	}
}

func TestScan_ExcludePatterns(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/r/keep.txt", "x", time.Time{})
	memFile(t, fs, "/r/skip.keep", "x", time.Time{})
	memFile(t, fs, "/r/.git/config", "x", time.Time{})

	cfg := config.GetDefault()
	cfg.ExcludePatterns = []string{"*.keep", ".git"}

	result, err := New(cfg, fs).Scan(context.Background(), "/r")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 1 || result.Files[0].Path != "/r/keep.txt" {
		t.Errorf("unexpected files %+v", result.Files)
	}
	if result.Directories != 1 {
		t.Errorf("excluded directory should not be listed, got %d directories", result.Directories)
	}
}

func TestScan_CancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/r/a.txt", "x", time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScanner(fs, 2).Scan(ctx, "/r")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestScan_PublishesProgress(t *testing.T) {
	fs := afero.NewMemMapFs()
	memFile(t, fs, "/r/a/1.txt", "x", time.Time{})
	memFile(t, fs, "/r/b/2.txt", "x", time.Time{})

	reporter := progress.NewReporter()
	s := newTestScanner(fs, 2)
	s.SetProgressReporter(reporter)

	if _, err := s.Scan(context.Background(), "/r"); err != nil {
		t.Fatal(err)
	}

	last := reporter.Last()
	if last == nil || last.Phase != progress.PhaseComplete {
		t.Fatalf("expected completion event, got %+v", last)
	}
	if last.Done != 3 || last.Total != 3 {
		t.Errorf("progress = %d/%d, want 3/3", last.Done, last.Total)
	}
}

// =============================================================================
// Error Kind Tests
// =============================================================================

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"not exist", os.ErrNotExist, PathNotFound},
		{"wrapped not exist", &os.PathError{Op: "open", Path: "/x", Err: os.ErrNotExist}, PathNotFound},
		{"permission", os.ErrPermission, PermissionDenied},
		{"collision", ErrNameCollisionExhausted, NameCollisionExhausted},
		{"scan error", &ScanError{Kind: NotADirectory, Path: "/x"}, NotADirectory},
		{"other", errors.New("disk on fire"), IOFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}
