package scanner

import (
	"context"
	"sort"
	"sync"

	"github.com/fenilsonani/fileflow/internal/pool"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/pkg/utils"
)

// DigestGroup is a set of files with identical content. Files are in
// canonical order: Files[0] is kept, the rest are duplicates.
type DigestGroup struct {
	Digest string       `json:"digest" yaml:"digest"`
	Size   int64        `json:"size" yaml:"size"`
	Files  []FileRecord `json:"files" yaml:"files"`
}

// Keep returns the member that survives duplicate removal
func (g DigestGroup) Keep() FileRecord {
	return g.Files[0]
}

// Duplicates returns every member except the kept one
func (g DigestGroup) Duplicates() []FileRecord {
	return g.Files[1:]
}

// Reclaimable returns the bytes freed by removing the duplicates
func (g DigestGroup) Reclaimable() int64 {
	return g.Size * int64(len(g.Files)-1)
}

// HashFailure is a file left out of grouping because it could not be read
type HashFailure struct {
	Path string
	Err  error
}

// DuplicateReport is the outcome of duplicate detection
type DuplicateReport struct {
	Algorithm        string
	Groups           []DigestGroup
	FilesConsidered  int
	FilesHashed      int
	HashFailures     []HashFailure
	DuplicateCount   int
	ReclaimableBytes int64
}

// FindDuplicates groups files by content digest. Only files sharing their
// size with another file are hashed; symlinks and files below the
// configured minimum size are ignored. Files that fail to hash are listed
// in HashFailures instead of being grouped.
func (s *Scanner) FindDuplicates(ctx context.Context, files []FileRecord) (*DuplicateReport, error) {
	report := &DuplicateReport{
		Algorithm:    s.config.HashAlgorithm,
		Groups:       []DigestGroup{},
		HashFailures: []HashFailure{},
	}
	if report.Algorithm == "" {
		report.Algorithm = utils.HashMD5
	}

	candidates := sizeCandidates(files, s.config.MinDuplicateSize())
	report.FilesConsidered = len(candidates)

	type key struct {
		size   int64
		digest string
	}
	var mu sync.Mutex
	byDigest := make(map[key][]FileRecord)

	tracker := s.progressReporter.Track("duplicates", progress.PhaseHashing, len(candidates))
	err := pool.ForEach(ctx, s.config.Workers, candidates, func(_ context.Context, f FileRecord) {
		digest, err := utils.HashFile(s.fs, f.Path, report.Algorithm)

		mu.Lock()
		if err != nil {
			report.HashFailures = append(report.HashFailures, HashFailure{Path: f.Path, Err: err})
		} else {
			report.FilesHashed++
			k := key{size: f.Size, digest: digest}
			byDigest[k] = append(byDigest[k], f)
		}
		mu.Unlock()

		tracker.Step(f.Path, f.Size, err != nil)
	})
	tracker.Finish(err)

	for k, members := range byDigest {
		if len(members) < 2 {
			continue
		}
		CanonicalOrder(members)
		group := DigestGroup{Digest: k.digest, Size: k.size, Files: members}
		report.Groups = append(report.Groups, group)
		report.DuplicateCount += len(members) - 1
		report.ReclaimableBytes += group.Reclaimable()
	}

	sort.Slice(report.Groups, func(i, j int) bool {
		a, b := report.Groups[i], report.Groups[j]
		if a.Reclaimable() != b.Reclaimable() {
			return a.Reclaimable() > b.Reclaimable()
		}
		return a.Digest < b.Digest
	})
	sort.Slice(report.HashFailures, func(i, j int) bool {
		return report.HashFailures[i].Path < report.HashFailures[j].Path
	})

	return report, err
}

// sizeCandidates drops files whose size no other file shares
func sizeCandidates(files []FileRecord, minSize int64) []FileRecord {
	bySize := make(map[int64]int, len(files))
	for _, f := range files {
		if f.Symlink || f.Size < minSize {
			continue
		}
		bySize[f.Size]++
	}

	out := make([]FileRecord, 0, len(files))
	for _, f := range files {
		if f.Symlink || f.Size < minSize {
			continue
		}
		if bySize[f.Size] > 1 {
			out = append(out, f)
		}
	}
	return out
}
