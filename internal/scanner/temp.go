package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/spf13/afero"
)

// Sweep match reasons
const (
	MatchSuffix  = "suffix"
	MatchPattern = "pattern"
)

// SweepCandidate is a file the temp-file rules selected
type SweepCandidate struct {
	FileRecord `yaml:",inline"`
	Reason     string `json:"reason" yaml:"reason"` // MatchSuffix or MatchPattern
	Rule       string `json:"rule" yaml:"rule"`     // the suffix or substring that matched
}

// SweepReport lists temp-file candidates. Nothing is deleted while building it.
type SweepReport struct {
	Root       string
	Candidates []SweepCandidate
	TotalBytes int64
	Errors     []DirError
}

// MatchTemp reports whether name looks like a temporary file: it ends with
// one of suffixes, or its lower-cased form contains one of patterns.
func MatchTemp(name string, suffixes, patterns []string) (reason, rule string, ok bool) {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return MatchSuffix, suffix, true
		}
	}
	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return MatchPattern, pattern, true
		}
	}
	return "", "", false
}

// Sweep walks root once and collects regular files matching the temp-file
// rules, sorted by path.
func (s *Scanner) Sweep(ctx context.Context, root string) (*SweepReport, error) {
	report := &SweepReport{
		Root:       root,
		Candidates: []SweepCandidate{},
		Errors:     []DirError{},
	}

	info, err := s.fs.Stat(root)
	if err != nil {
		return report, &ScanError{Kind: KindOf(err), Path: root, Err: err}
	}
	if !info.IsDir() {
		return report, &ScanError{Kind: NotADirectory, Path: root}
	}

	tracker := s.progressReporter.Track("sweep", progress.PhaseSweeping, 0)
	suffixes, patterns := s.config.Sweep.Suffixes, s.config.Sweep.Patterns

	err = afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Permission denied or vanished entries - record and continue
			report.Errors = append(report.Errors, newDirError(path, err))
			return nil
		}
		if info.IsDir() {
			if path != root && s.excluded(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || s.excluded(info.Name()) {
			return nil
		}

		reason, rule, ok := MatchTemp(info.Name(), suffixes, patterns)
		if !ok {
			return nil
		}
		report.Candidates = append(report.Candidates, SweepCandidate{
			FileRecord: NewRecord(path, info, false),
			Reason:     reason,
			Rule:       rule,
		})
		report.TotalBytes += info.Size()
		tracker.Step(path, info.Size(), false)
		return nil
	})

	sort.Slice(report.Candidates, func(i, j int) bool {
		return report.Candidates[i].Path < report.Candidates[j].Path
	})
	tracker.Finish(err)
	return report, err
}
