package reporter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fenilsonani/fileflow/internal/analyzer"
	"github.com/fenilsonani/fileflow/internal/classifier"
	"github.com/fenilsonani/fileflow/internal/cleaner"
	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/organizer"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/internal/scanner"
	"github.com/fenilsonani/fileflow/pkg/utils"
)

const pathWidth = 60

type errorView struct {
	Path  string `json:"path" yaml:"path"`
	Kind  string `json:"kind" yaml:"kind"`
	Error string `json:"error" yaml:"error"`
}

func dirErrorViews(errs []scanner.DirError) []errorView {
	views := make([]errorView, len(errs))
	for i, e := range errs {
		views[i] = errorView{Path: e.Path, Kind: e.Kind.String(), Error: fmt.Sprint(e.Err)}
	}
	return views
}

func (r *Reporter) scanErrors(errs []scanner.DirError) {
	if len(errs) == 0 {
		return
	}
	r.printf("\n%s %d\n", r.warn("Unreadable entries:"), len(errs))
	for _, e := range errs {
		r.printf("  %s %s\n", e.Path, r.dim("("+e.Kind.String()+")"))
	}
}

// =============================================================================
// Scan
// =============================================================================

// ReportScan renders the files found below root
func (r *Reporter) ReportScan(root string, files []scanner.FileRecord, errs []scanner.DirError) error {
	var total int64
	for _, f := range files {
		total += f.Size
	}

	view := struct {
		Timestamp          string               `json:"timestamp" yaml:"timestamp"`
		Root               string               `json:"root" yaml:"root"`
		TotalFiles         int                  `json:"total_files" yaml:"total_files"`
		TotalSize          int64                `json:"total_size" yaml:"total_size"`
		TotalSizeFormatted string               `json:"total_size_formatted" yaml:"total_size_formatted"`
		Files              []scanner.FileRecord `json:"files" yaml:"files"`
		Errors             []errorView          `json:"errors" yaml:"errors"`
	}{
		Timestamp:          timestamp(),
		Root:               root,
		TotalFiles:         len(files),
		TotalSize:          total,
		TotalSizeFormatted: utils.FormatBytes(total),
		Files:              files,
		Errors:             dirErrorViews(errs),
	}

	summary := func() error {
		r.title("Scan Summary")
		r.printf("Root: %s\n", root)
		r.printf("Total Files: %s\n", utils.FormatCount(len(files)))
		r.printf("Total Size: %s\n", utils.FormatBytes(total))
		r.scanErrors(errs)
		return nil
	}
	tbl := func() error {
		rows := make([][]string, len(files))
		for i, f := range files {
			rows[i] = []string{shortenPath(f.Path, pathWidth), utils.FormatBytes(f.Size), displayExt(f.Ext), f.ModTime.Format("2006-01-02 15:04:05")}
		}
		r.table([]string{"Path", "Size", "Ext", "Modified"}, rows)
		r.printf("Total: %d files, %s\n", len(files), utils.FormatBytes(total))
		r.scanErrors(errs)
		return nil
	}
	return r.render(view, summary, tbl)
}

// =============================================================================
// Organize
// =============================================================================

// ReportOrganize renders where every file went
func (r *Reporter) ReportOrganize(report *organizer.OrganizeReport) error {
	type outcomeView struct {
		organizer.MoveOutcome `yaml:",inline"`
		Error                 string `json:"error,omitempty" yaml:"error,omitempty"`
	}
	outcomes := make([]outcomeView, len(report.Outcomes))
	for i, o := range report.Outcomes {
		outcomes[i] = outcomeView{MoveOutcome: o}
		if o.Err != nil {
			outcomes[i].Error = o.Err.Error()
		}
	}

	view := struct {
		Timestamp    string         `json:"timestamp" yaml:"timestamp"`
		RunID        string         `json:"run_id" yaml:"run_id"`
		Root         string         `json:"root" yaml:"root"`
		DryRun       bool           `json:"dry_run" yaml:"dry_run"`
		TableVersion int64          `json:"table_version" yaml:"table_version"`
		Total        int            `json:"total" yaml:"total"`
		Succeeded    int            `json:"succeeded" yaml:"succeeded"`
		Skipped      int            `json:"skipped" yaml:"skipped"`
		Failed       int            `json:"failed" yaml:"failed"`
		ByCategory   map[string]int `json:"by_category" yaml:"by_category"`
		Outcomes     []outcomeView  `json:"outcomes" yaml:"outcomes"`
		Errors       []errorView    `json:"errors" yaml:"errors"`
		Duration     string         `json:"duration" yaml:"duration"`
	}{
		Timestamp:    timestamp(),
		RunID:        report.RunID,
		Root:         report.Root,
		DryRun:       report.DryRun,
		TableVersion: report.TableVersion,
		Total:        report.Total,
		Succeeded:    report.Succeeded,
		Skipped:      report.Skipped,
		Failed:       report.Failed,
		ByCategory:   report.ByCategory,
		Outcomes:     outcomes,
		Errors:       dirErrorViews(report.ScanErrors),
		Duration:     report.Duration.String(),
	}

	summary := func() error {
		r.title("Organize Summary")
		r.printf("Root: %s\n", report.Root)
		if report.DryRun {
			r.printf("%s\n", r.warn("Dry run: nothing was moved"))
		}
		moved := "Moved"
		if report.DryRun {
			moved = "Would move"
		}
		r.printf("Total Files: %d\n", report.Total)
		r.printf("%s: %s  Skipped: %d  Failed: %s\n", moved, r.success(fmt.Sprint(report.Succeeded)), report.Skipped, r.failures(report.Failed))

		if len(report.ByCategory) > 0 {
			r.printf("\nBreakdown by Category:\n")
			for _, name := range sortedByCount(report.ByCategory) {
				r.printf("  %s: %d files\n", r.category(name), report.ByCategory[name])
			}
		}

		var renamed []organizer.MoveOutcome
		for _, o := range report.Outcomes {
			if o.Renamed() {
				renamed = append(renamed, o)
			}
		}
		if len(renamed) > 0 {
			r.printf("\nRenamed to avoid name clashes:\n")
			for _, o := range renamed {
				r.printf("  %s -> %s\n", o.Source, filepath.Base(o.Destination))
			}
		}

		if failures := report.Failures(); len(failures) > 0 {
			r.printf("\n%s\n", r.danger("Failed moves:"))
			for _, f := range failures {
				r.printf("  %s: %s\n", f.Source, f.Reason)
			}
		}
		r.scanErrors(report.ScanErrors)
		r.printf("\n%s\n", r.dim("Completed in "+progress.FormatDuration(report.Duration)))
		return nil
	}
	tbl := func() error {
		rows := make([][]string, 0, len(report.Outcomes))
		for _, o := range report.Outcomes {
			detail := o.Destination
			if o.Status != organizer.Moved {
				detail = o.Reason
			}
			rows = append(rows, []string{shortenPath(o.Source, pathWidth), o.Status.String(), o.Category, shortenPath(detail, pathWidth)})
		}
		r.table([]string{"Source", "Status", "Category", "Destination"}, rows)
		r.printf("Total: %d  Moved: %d  Skipped: %d  Failed: %d\n", report.Total, report.Succeeded, report.Skipped, report.Failed)
		return nil
	}
	return r.render(view, summary, tbl)
}

func (r *Reporter) failures(n int) string {
	if n == 0 {
		return "0"
	}
	return r.danger(fmt.Sprint(n))
}

// sortedByCount orders names by count descending, then by name
func sortedByCount(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// =============================================================================
// Duplicates
// =============================================================================

// ReportDuplicates renders duplicate groups with the kept copy first
func (r *Reporter) ReportDuplicates(report *scanner.DuplicateReport) error {
	type groupView struct {
		Digest     string   `json:"digest" yaml:"digest"`
		Size       int64    `json:"size" yaml:"size"`
		Keep       string   `json:"keep" yaml:"keep"`
		Duplicates []string `json:"duplicates" yaml:"duplicates"`
	}
	groups := make([]groupView, len(report.Groups))
	for i, g := range report.Groups {
		dups := g.Duplicates()
		paths := make([]string, len(dups))
		for j, d := range dups {
			paths[j] = d.Path
		}
		groups[i] = groupView{Digest: g.Digest, Size: g.Size, Keep: g.Keep().Path, Duplicates: paths}
	}
	failures := make([]errorView, len(report.HashFailures))
	for i, hf := range report.HashFailures {
		failures[i] = errorView{Path: hf.Path, Kind: scanner.KindOf(hf.Err).String(), Error: fmt.Sprint(hf.Err)}
	}

	view := struct {
		Timestamp                 string      `json:"timestamp" yaml:"timestamp"`
		Algorithm                 string      `json:"algorithm" yaml:"algorithm"`
		FilesConsidered           int         `json:"files_considered" yaml:"files_considered"`
		FilesHashed               int         `json:"files_hashed" yaml:"files_hashed"`
		DuplicateCount            int         `json:"duplicate_count" yaml:"duplicate_count"`
		ReclaimableBytes          int64       `json:"reclaimable_bytes" yaml:"reclaimable_bytes"`
		ReclaimableBytesFormatted string      `json:"reclaimable_bytes_formatted" yaml:"reclaimable_bytes_formatted"`
		Groups                    []groupView `json:"groups" yaml:"groups"`
		HashFailures              []errorView `json:"hash_failures" yaml:"hash_failures"`
	}{
		Timestamp:                 timestamp(),
		Algorithm:                 report.Algorithm,
		FilesConsidered:           report.FilesConsidered,
		FilesHashed:               report.FilesHashed,
		DuplicateCount:            report.DuplicateCount,
		ReclaimableBytes:          report.ReclaimableBytes,
		ReclaimableBytesFormatted: utils.FormatBytes(report.ReclaimableBytes),
		Groups:                    groups,
		HashFailures:              failures,
	}

	summary := func() error {
		r.title("Duplicate Summary")
		r.printf("Files Considered: %d (hashed %d with %s)\n", report.FilesConsidered, report.FilesHashed, report.Algorithm)
		r.printf("Duplicate Groups: %d\n", len(report.Groups))
		r.printf("Redundant Copies: %d\n", report.DuplicateCount)
		r.printf("Reclaimable: %s\n", r.warn(utils.FormatBytes(report.ReclaimableBytes)))

		for _, g := range groups {
			r.printf("\n%s %s\n", r.dim(shortDigest(g.Digest)), utils.FormatBytes(g.Size))
			r.printf("  keep   %s\n", g.Keep)
			for _, d := range g.Duplicates {
				r.printf("  remove %s\n", d)
			}
		}
		if len(failures) > 0 {
			r.printf("\n%s %d\n", r.warn("Could not hash:"), len(failures))
			for _, f := range failures {
				r.printf("  %s: %s\n", f.Path, f.Error)
			}
		}
		return nil
	}
	tbl := func() error {
		var rows [][]string
		for _, g := range groups {
			rows = append(rows, []string{shortDigest(g.Digest), utils.FormatBytes(g.Size), "keep", shortenPath(g.Keep, pathWidth)})
			for _, d := range g.Duplicates {
				rows = append(rows, []string{shortDigest(g.Digest), utils.FormatBytes(g.Size), "remove", shortenPath(d, pathWidth)})
			}
		}
		r.table([]string{"Digest", "Size", "Action", "Path"}, rows)
		r.printf("Groups: %d, reclaimable %s\n", len(groups), utils.FormatBytes(report.ReclaimableBytes))
		return nil
	}
	return r.render(view, summary, tbl)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// =============================================================================
// Sweep
// =============================================================================

// ReportSweep renders temporary file candidates
func (r *Reporter) ReportSweep(report *scanner.SweepReport) error {
	view := struct {
		Timestamp           string                   `json:"timestamp" yaml:"timestamp"`
		Root                string                   `json:"root" yaml:"root"`
		TotalFiles          int                      `json:"total_files" yaml:"total_files"`
		TotalBytes          int64                    `json:"total_bytes" yaml:"total_bytes"`
		TotalBytesFormatted string                   `json:"total_bytes_formatted" yaml:"total_bytes_formatted"`
		Candidates          []scanner.SweepCandidate `json:"candidates" yaml:"candidates"`
		Errors              []errorView              `json:"errors" yaml:"errors"`
	}{
		Timestamp:           timestamp(),
		Root:                report.Root,
		TotalFiles:          len(report.Candidates),
		TotalBytes:          report.TotalBytes,
		TotalBytesFormatted: utils.FormatBytes(report.TotalBytes),
		Candidates:          report.Candidates,
		Errors:              dirErrorViews(report.Errors),
	}

	summary := func() error {
		r.title("Sweep Summary")
		r.printf("Root: %s\n", report.Root)
		r.printf("Temporary Files: %d\n", len(report.Candidates))
		r.printf("Total Size: %s\n", r.warn(utils.FormatBytes(report.TotalBytes)))

		byRule := make(map[string]int)
		for _, c := range report.Candidates {
			byRule[c.Reason+" "+c.Rule]++
		}
		if len(byRule) > 0 {
			r.printf("\nBreakdown by Rule:\n")
			for _, rule := range sortedByCount(byRule) {
				r.printf("  %s: %d files\n", rule, byRule[rule])
			}
		}
		r.scanErrors(report.Errors)
		return nil
	}
	tbl := func() error {
		rows := make([][]string, len(report.Candidates))
		for i, c := range report.Candidates {
			rows[i] = []string{shortenPath(c.Path, pathWidth), utils.FormatBytes(c.Size), c.Reason + " " + c.Rule, utils.FormatAge(c.ModTime)}
		}
		r.table([]string{"Path", "Size", "Rule", "Modified"}, rows)
		r.printf("Total: %d files, %s\n", len(report.Candidates), utils.FormatBytes(report.TotalBytes))
		r.scanErrors(report.Errors)
		return nil
	}
	return r.render(view, summary, tbl)
}

// =============================================================================
// Analyze
// =============================================================================

// ReportAnalyze renders aggregate directory statistics
func (r *Reporter) ReportAnalyze(stats *analyzer.AggregateStats) error {
	topN := stats.TopN
	if topN < 1 {
		topN = analyzer.DefaultTopN
	}

	view := struct {
		Timestamp           string                    `json:"timestamp" yaml:"timestamp"`
		TotalBytesFormatted string                    `json:"total_bytes_formatted" yaml:"total_bytes_formatted"`
		AverageSize         float64                   `json:"average_size" yaml:"average_size"`
		TopExtensions       []analyzer.ExtensionCount `json:"top_extensions" yaml:"top_extensions"`
		Stats               *analyzer.AggregateStats  `json:"stats" yaml:"stats"`
		Errors              []errorView               `json:"errors" yaml:"errors"`
	}{
		Timestamp:           timestamp(),
		TotalBytesFormatted: utils.FormatBytes(stats.TotalBytes),
		AverageSize:         stats.AverageSize(),
		TopExtensions:       stats.TopExtensions(topN),
		Stats:               stats,
		Errors:              dirErrorViews(stats.ScanErrors),
	}

	summary := func() error {
		r.title("Directory Analysis")
		if stats.Root != "" {
			r.printf("Root: %s\n", stats.Root)
		}
		r.printf("Total Files: %s\n", utils.FormatCount(stats.TotalFiles))
		r.printf("Total Size: %s\n", utils.FormatBytes(stats.TotalBytes))
		r.printf("Average Size: %s\n", utils.FormatBytes(int64(stats.AverageSize())))

		if names := stats.CategoryNames(); len(names) > 0 {
			r.printf("\nBreakdown by Category:\n")
			for _, name := range names {
				ct := stats.Categories[name]
				r.printf("  %s: %d files, %s\n", r.category(name), ct.Count, utils.FormatBytes(ct.Bytes))
			}
		}
		if exts := stats.TopExtensions(topN); len(exts) > 0 {
			parts := make([]string, len(exts))
			for i, e := range exts {
				parts[i] = fmt.Sprintf("%s (%d)", displayExt(e.Ext), e.Count)
			}
			r.printf("\nTop Extensions: %s\n", strings.Join(parts, ", "))
		}
		if len(stats.Largest) > 0 {
			r.printf("\nLargest Files:\n")
			for i, f := range stats.Largest {
				r.printf("  %2d. %-10s %s\n", i+1, utils.FormatBytes(f.Size), f.Path)
			}
		}
		if stats.Oldest != nil {
			r.printf("\nOldest: %s %s\n", stats.Oldest.Path, r.dim("("+utils.FormatAge(stats.Oldest.ModTime)+")"))
		}
		if stats.Newest != nil {
			r.printf("Newest: %s %s\n", stats.Newest.Path, r.dim("("+utils.FormatAge(stats.Newest.ModTime)+")"))
		}
		if stats.StatErrors > 0 {
			r.printf("\n%s %d\n", r.warn("Stat errors:"), stats.StatErrors)
		}
		r.scanErrors(stats.ScanErrors)
		return nil
	}
	tbl := func() error {
		names := stats.CategoryNames()
		rows := make([][]string, len(names))
		for i, name := range names {
			ct := stats.Categories[name]
			share := 0.0
			if stats.TotalBytes > 0 {
				share = float64(ct.Bytes) / float64(stats.TotalBytes) * 100
			}
			rows[i] = []string{name, fmt.Sprint(ct.Count), utils.FormatBytes(ct.Bytes), fmt.Sprintf("%.1f%%", share)}
		}
		r.table([]string{"Category", "Files", "Size", "Share"}, rows)

		if exts := stats.TopExtensions(topN); len(exts) > 0 {
			extRows := make([][]string, len(exts))
			for i, e := range exts {
				extRows[i] = []string{displayExt(e.Ext), fmt.Sprint(e.Count)}
			}
			r.table([]string{"Extension", "Files"}, extRows)
		}

		largest := make([][]string, len(stats.Largest))
		for i, f := range stats.Largest {
			largest[i] = []string{fmt.Sprint(i + 1), shortenPath(f.Path, pathWidth), utils.FormatBytes(f.Size)}
		}
		if len(largest) > 0 {
			r.table([]string{"#", "Largest Files", "Size"}, largest)
		}
		r.printf("Total: %d files, %s\n", stats.TotalFiles, utils.FormatBytes(stats.TotalBytes))
		return nil
	}
	return r.render(view, summary, tbl)
}

// displayExt names the empty extension key
func displayExt(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return ext
}

// =============================================================================
// Deletion results
// =============================================================================

// ReportClean renders the outcome of a duplicate removal or sweep
func (r *Reporter) ReportClean(result *cleaner.CleanResult) error {
	type failureView struct {
		Path      string `json:"path" yaml:"path"`
		Reason    string `json:"reason" yaml:"reason"`
		Error     string `json:"error" yaml:"error"`
		Retryable bool   `json:"retryable" yaml:"retryable"`
	}
	failures := make([]failureView, len(result.Errors))
	for i, de := range result.Errors {
		failures[i] = failureView{Path: de.Path, Reason: de.Reason.String(), Error: fmt.Sprint(de.Original), Retryable: de.Retryable}
	}

	view := struct {
		Timestamp            string            `json:"timestamp" yaml:"timestamp"`
		RunID                string            `json:"run_id" yaml:"run_id"`
		Operation            string            `json:"operation" yaml:"operation"`
		DryRun               bool              `json:"dry_run" yaml:"dry_run"`
		Requested            int               `json:"requested" yaml:"requested"`
		Deleted              []string          `json:"deleted" yaml:"deleted"`
		DeletedSize          int64             `json:"deleted_size" yaml:"deleted_size"`
		DeletedSizeFormatted string            `json:"deleted_size_formatted" yaml:"deleted_size_formatted"`
		Skipped              map[string]string `json:"skipped" yaml:"skipped"`
		Errors               []failureView     `json:"errors" yaml:"errors"`
		ManifestPath         string            `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty"`
		Duration             string            `json:"duration" yaml:"duration"`
	}{
		Timestamp:            timestamp(),
		RunID:                result.RunID,
		Operation:            result.Operation,
		DryRun:               result.DryRun,
		Requested:            result.Requested,
		Deleted:              result.Deleted,
		DeletedSize:          result.DeletedSize,
		DeletedSizeFormatted: utils.FormatBytes(result.DeletedSize),
		Skipped:              result.SkippedReason,
		Errors:               failures,
		ManifestPath:         result.ManifestPath,
		Duration:             result.Duration.String(),
	}

	summary := func() error {
		r.title("Cleanup Summary")
		if result.DryRun {
			r.printf("%s\n", r.warn("Dry run: nothing was deleted"))
			r.printf("Would delete: %d files (%s)\n", result.DeletedCount(), utils.FormatBytes(result.DeletedSize))
		} else {
			r.printf("Deleted: %s files\n", r.success(fmt.Sprint(result.DeletedCount())))
			r.printf("Space freed: %s\n", utils.FormatBytes(result.DeletedSize))
		}
		if len(result.Skipped) > 0 {
			r.printf("Skipped: %d files\n", len(result.Skipped))
		}
		if len(result.Errors) > 0 {
			r.printf("%s %d files\n", r.danger("Failed:"), len(result.Errors))
			r.printf("%s", cleaner.FormatErrorSummary(result.Errors))
		}
		if result.ManifestPath != "" {
			r.printf("\nManifest: %s\n", result.ManifestPath)
		}
		return nil
	}
	tbl := func() error {
		rows := make([][]string, 0, result.Requested)
		for _, p := range result.Deleted {
			action := "deleted"
			if result.DryRun {
				action = "would delete"
			}
			rows = append(rows, []string{shortenPath(p, pathWidth), action, ""})
		}
		for _, p := range result.Skipped {
			rows = append(rows, []string{shortenPath(p, pathWidth), "skipped", result.SkippedReason[p]})
		}
		for _, f := range failures {
			rows = append(rows, []string{shortenPath(f.Path, pathWidth), "failed", f.Reason})
		}
		r.table([]string{"Path", "Result", "Reason"}, rows)
		r.printf("Deleted: %d (%s)  Skipped: %d  Failed: %d\n", result.DeletedCount(), utils.FormatBytes(result.DeletedSize), len(result.Skipped), len(result.Errors))
		return nil
	}
	return r.render(view, summary, tbl)
}

// =============================================================================
// Categories
// =============================================================================

// ReportCategories renders the category table in lookup order
func (r *Reporter) ReportCategories(t *classifier.Table) error {
	type categoryView struct {
		Name       string   `json:"name" yaml:"name"`
		Extensions []string `json:"extensions" yaml:"extensions"`
	}
	cats := t.Categories()
	views := make([]categoryView, len(cats))
	for i, c := range cats {
		views[i] = categoryView{Name: c.Name, Extensions: c.Extensions}
	}
	view := struct {
		Version    int64          `json:"version" yaml:"version"`
		Categories []categoryView `json:"categories" yaml:"categories"`
		Fallback   string         `json:"fallback" yaml:"fallback"`
	}{
		Version:    t.Version(),
		Categories: views,
		Fallback:   classifier.Others,
	}

	summary := func() error {
		r.title(fmt.Sprintf("Categories (v%d)", t.Version()))
		for _, c := range cats {
			r.printf("%s: %s\n", r.category(c.Name), strings.Join(c.Extensions, " "))
		}
		r.printf("%s\n", r.dim("Anything else goes to "+classifier.Others))
		return nil
	}
	tbl := func() error {
		rows := make([][]string, len(cats))
		for i, c := range cats {
			rows[i] = []string{c.Name, fmt.Sprint(len(c.Extensions)), strings.Join(c.Extensions, " ")}
		}
		r.table([]string{"Category", "Count", "Extensions"}, rows)
		return nil
	}
	return r.render(view, summary, tbl)
}

// =============================================================================
// History
// =============================================================================

// ReportHistory renders recorded runs, newest first
func (r *Reporter) ReportHistory(records []*config.RunRecord) error {
	view := struct {
		Runs []*config.RunRecord `json:"runs" yaml:"runs"`
	}{Runs: records}

	line := func(rec *config.RunRecord) []string {
		mode := ""
		if rec.DryRun {
			mode = "dry run"
		}
		return []string{
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.Operation,
			shortenPath(rec.Root, 40),
			fmt.Sprint(rec.Files),
			utils.FormatBytes(rec.Bytes),
			fmt.Sprint(rec.Failed),
			mode,
		}
	}

	summary := func() error {
		r.title("Run History")
		if len(records) == 0 {
			r.printf("%s\n", r.dim("No runs recorded"))
			return nil
		}
		for _, rec := range records {
			f := line(rec)
			r.printf("%s  %-9s %s: %s files, %s, %s failed %s\n", f[0], f[1], f[2], f[3], f[4], f[5], r.dim(f[6]))
		}
		return nil
	}
	tbl := func() error {
		rows := make([][]string, len(records))
		for i, rec := range records {
			rows[i] = line(rec)
		}
		r.table([]string{"When", "Operation", "Root", "Files", "Size", "Failed", "Mode"}, rows)
		return nil
	}
	return r.render(view, summary, tbl)
}
