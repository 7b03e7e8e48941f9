package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/fileflow/internal/analyzer"
	"github.com/fenilsonani/fileflow/internal/classifier"
	"github.com/fenilsonani/fileflow/internal/cleaner"
	"github.com/fenilsonani/fileflow/internal/organizer"
	"github.com/fenilsonani/fileflow/internal/scanner"
	"gopkg.in/yaml.v3"
)

func record(path string, size int64) scanner.FileRecord {
	return scanner.FileRecord{
		Path:    path,
		Size:    size,
		ModTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Ext:     classifier.ExtOf(path),
	}
}

func sampleOrganize() *organizer.OrganizeReport {
	return &organizer.OrganizeReport{
		RunID:     "run-1",
		Root:      "/data",
		Total:     3,
		Succeeded: 1,
		Skipped:   1,
		Failed:    1,
		Outcomes: []organizer.MoveOutcome{
			{Source: "/data/a.jpg", Status: organizer.Moved, Destination: "/data/Images/a.jpg", Category: "Images"},
			{Source: "/data/Makefile", Status: organizer.Skipped, Reason: organizer.ReasonNoExtension},
			{Source: "/data/b.pdf", Status: organizer.Failed, Category: "Documents", Reason: "permission denied", Err: errors.New("permission denied")},
		},
		ByCategory: map[string]int{"Images": 1},
	}
}

// ===== Formats =====

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatSummary, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"table", FormatTable, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, "xml").ReportOrganize(sampleOrganize()); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestCategoryColorStable(t *testing.T) {
	for _, name := range []string{"Images", "Documents", "Others", ""} {
		if CategoryColor(name) != CategoryColor(name) {
			t.Errorf("color for %q changed between calls", name)
		}
	}
}

func TestShortenPath(t *testing.T) {
	long := "/very/long/path/to/some/deeply/nested/file.txt"
	got := shortenPath(long, 20)
	if len(got) != 20 || !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "file.txt") {
		t.Errorf("shortenPath() = %q", got)
	}
	if shortenPath("/a", 20) != "/a" {
		t.Error("short paths are unchanged")
	}
}

// ===== Organize =====

func TestReportOrganizeSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatSummary).ReportOrganize(sampleOrganize()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Organize Summary", "Total Files: 3", "Images: 1 files", "Failed moves:", "/data/b.pdf: permission denied"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal output must not contain escape codes")
	}
}

func TestReportOrganizeListsRenamedFiles(t *testing.T) {
	rep := &organizer.OrganizeReport{
		Root:      "/data",
		Total:     2,
		Succeeded: 2,
		Outcomes: []organizer.MoveOutcome{
			{Source: "/data/x/a.jpg", Status: organizer.Moved, Destination: "/data/Images/a.jpg", Category: "Images"},
			{Source: "/data/y/a.jpg", Status: organizer.Moved, Destination: "/data/Images/a_1.jpg", Category: "Images"},
		},
		ByCategory: map[string]int{"Images": 2},
	}

	var buf bytes.Buffer
	if err := New(&buf, FormatSummary).ReportOrganize(rep); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/data/y/a.jpg -> a_1.jpg") {
		t.Errorf("renamed file not listed:\n%s", out)
	}
	if strings.Contains(out, "/data/x/a.jpg ->") {
		t.Errorf("file that kept its name listed as renamed:\n%s", out)
	}
}

func TestReportOrganizeJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatJSON).ReportOrganize(sampleOrganize()); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		RunID    string `json:"run_id"`
		Total    int    `json:"total"`
		Outcomes []struct {
			Source string `json:"source"`
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.RunID != "run-1" || decoded.Total != 3 || len(decoded.Outcomes) != 3 {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
	if decoded.Outcomes[0].Status != "moved" {
		t.Errorf("status = %q, want moved", decoded.Outcomes[0].Status)
	}
	if decoded.Outcomes[2].Error != "permission denied" {
		t.Errorf("error = %q", decoded.Outcomes[2].Error)
	}
}

func TestReportOrganizeTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatTable).ReportOrganize(sampleOrganize()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Source", "/data/Images/a.jpg", organizer.ReasonNoExtension, "Moved: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

// ===== Duplicates =====

func TestReportDuplicatesYAML(t *testing.T) {
	report := &scanner.DuplicateReport{
		Algorithm: "md5",
		Groups: []scanner.DigestGroup{{
			Digest: "0123456789abcdef",
			Size:   10,
			Files:  []scanner.FileRecord{record("/d/a.jpg", 10), record("/d/b.jpg", 10)},
		}},
		FilesConsidered:  2,
		FilesHashed:      2,
		DuplicateCount:   1,
		ReclaimableBytes: 10,
		HashFailures:     []scanner.HashFailure{{Path: "/d/locked", Err: errors.New("boom")}},
	}

	var buf bytes.Buffer
	if err := New(&buf, FormatYAML).ReportDuplicates(report); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Groups []struct {
			Keep       string   `yaml:"keep"`
			Duplicates []string `yaml:"duplicates"`
		} `yaml:"groups"`
		HashFailures []struct {
			Path string `yaml:"path"`
		} `yaml:"hash_failures"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if len(decoded.Groups) != 1 || decoded.Groups[0].Keep != "/d/a.jpg" {
		t.Fatalf("unexpected groups: %+v", decoded.Groups)
	}
	if len(decoded.Groups[0].Duplicates) != 1 || decoded.Groups[0].Duplicates[0] != "/d/b.jpg" {
		t.Errorf("unexpected duplicates: %v", decoded.Groups[0].Duplicates)
	}
	if len(decoded.HashFailures) != 1 {
		t.Errorf("hash failures lost: %+v", decoded.HashFailures)
	}

	buf.Reset()
	if err := New(&buf, FormatSummary).ReportDuplicates(report); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "keep   /d/a.jpg") || !strings.Contains(buf.String(), "remove /d/b.jpg") {
		t.Errorf("summary missing keep/remove lines:\n%s", buf.String())
	}
}

// ===== Sweep =====

func TestReportSweepSummary(t *testing.T) {
	report := &scanner.SweepReport{
		Root: "/d",
		Candidates: []scanner.SweepCandidate{
			{FileRecord: record("/d/x.tmp", 5), Reason: scanner.MatchSuffix, Rule: ".tmp"},
			{FileRecord: record("/d/cache_data.bin", 7), Reason: scanner.MatchPattern, Rule: "cache"},
		},
		TotalBytes: 12,
	}

	var buf bytes.Buffer
	if err := New(&buf, FormatSummary).ReportSweep(report); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Temporary Files: 2", "suffix .tmp: 1 files", "pattern cache: 1 files"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

// ===== Analyze =====

func TestReportAnalyze(t *testing.T) {
	stats := analyzer.NewStats(5)
	stats.Root = "/d"
	stats.Add(record("/d/a.jpg", 100), "Images")
	stats.Add(record("/d/b.pdf", 50), "Documents")

	var buf bytes.Buffer
	if err := New(&buf, FormatSummary).ReportAnalyze(stats); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Total Files: 2", "Images: 1 files", "Top Extensions:", "Largest Files:", "/d/a.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := New(&buf, FormatJSON).ReportAnalyze(stats); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Stats struct {
			TotalFiles int `json:"total_files"`
		} `json:"stats"`
		TopExtensions []analyzer.ExtensionCount `json:"top_extensions"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Stats.TotalFiles != 2 || len(decoded.TopExtensions) != 2 {
		t.Errorf("unexpected decode: %+v", decoded)
	}
}

func TestReportAnalyzeNamesMissingExtension(t *testing.T) {
	stats := analyzer.NewStats(5)
	stats.Add(record("/d/a.jpg", 100), "Images")
	stats.Add(record("/d/Makefile", 10), "Others")

	for _, format := range []OutputFormat{FormatSummary, FormatTable} {
		var buf bytes.Buffer
		if err := New(&buf, format).ReportAnalyze(stats); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "(none)") {
			t.Errorf("%s output should show files without an extension as (none):\n%s", format, out)
		}
	}

	var buf bytes.Buffer
	if err := New(&buf, FormatSummary).ReportAnalyze(stats); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(none) (1)") {
		t.Errorf("summary should count the missing extension:\n%s", buf.String())
	}
}

// ===== Clean =====

func TestReportClean(t *testing.T) {
	result := &cleaner.CleanResult{
		Operation:     "sweep",
		Requested:     3,
		Deleted:       []string{"/d/x.tmp"},
		DeletedSize:   2048,
		Skipped:       []string{"/d/gone.tmp"},
		SkippedReason: map[string]string{"/d/gone.tmp": "already gone"},
		Errors: []*cleaner.DeletionError{
			{Path: "/d/locked.tmp", Reason: cleaner.ErrorPermissionDenied, Original: errors.New("denied")},
		},
		ManifestPath: "/logs/deletion.log",
	}

	var buf bytes.Buffer
	if err := New(&buf, FormatSummary).ReportClean(result); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Deleted: 1 files", "2.0 KiB", "Skipped: 1 files", "Permission denied: 1", "Manifest: /logs/deletion.log"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	result.DryRun = true
	if err := New(&buf, FormatSummary).ReportClean(result); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Would delete: 1 files") {
		t.Errorf("dry run wording missing:\n%s", buf.String())
	}
}

// ===== Categories =====

func TestReportCategories(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatJSON).ReportCategories(classifier.Default()); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Version    int64 `json:"version"`
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
		Fallback string `json:"fallback"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Version != 1 || len(decoded.Categories) != 9 || decoded.Categories[0].Name != "Images" {
		t.Errorf("unexpected categories: %+v", decoded)
	}
	if decoded.Fallback != classifier.Others {
		t.Errorf("fallback = %q", decoded.Fallback)
	}
}
