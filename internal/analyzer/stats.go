package analyzer

import (
	"sort"

	"github.com/fenilsonani/fileflow/internal/classifier"
	"github.com/fenilsonani/fileflow/internal/scanner"
)

// DefaultTopN is the number of largest files kept when none is configured
const DefaultTopN = 10

// CategoryTotal is the file count and byte sum of one category
type CategoryTotal struct {
	Count int   `json:"count" yaml:"count"`
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// ExtensionCount is one row of the extension histogram
type ExtensionCount struct {
	Ext   string `json:"ext" yaml:"ext"`
	Count int    `json:"count" yaml:"count"`
}

// AggregateStats summarizes a set of files. Partial stats built from
// disjoint inputs merge to the same result in any order.
type AggregateStats struct {
	Root       string                   `json:"root,omitempty" yaml:"root,omitempty"`
	TotalFiles int                      `json:"total_files" yaml:"total_files"`
	TotalBytes int64                    `json:"total_bytes" yaml:"total_bytes"`
	Categories map[string]CategoryTotal `json:"categories" yaml:"categories"`
	Extensions map[string]int           `json:"extensions" yaml:"extensions"`
	Largest    []scanner.FileRecord     `json:"largest" yaml:"largest"`
	Oldest     *scanner.FileRecord      `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	Newest     *scanner.FileRecord      `json:"newest,omitempty" yaml:"newest,omitempty"`
	StatErrors int                      `json:"stat_errors" yaml:"stat_errors"`
	TopN       int                      `json:"top_n" yaml:"top_n"`
	ScanErrors []scanner.DirError       `json:"-" yaml:"-"`
}

// NewStats returns empty stats keeping the topN largest files
func NewStats(topN int) *AggregateStats {
	if topN < 1 {
		topN = DefaultTopN
	}
	return &AggregateStats{
		Categories: make(map[string]CategoryTotal),
		Extensions: make(map[string]int),
		Largest:    []scanner.FileRecord{},
		TopN:       topN,
	}
}

// Add counts one file under category. An empty category counts as Others.
func (s *AggregateStats) Add(f scanner.FileRecord, category string) {
	if category == "" {
		category = classifier.Others
	}

	s.TotalFiles++
	s.TotalBytes += f.Size

	ct := s.Categories[category]
	ct.Count++
	ct.Bytes += f.Size
	s.Categories[category] = ct
	s.Extensions[f.Ext]++

	s.Largest = append(s.Largest, f)
	s.trimLargest()

	if s.Oldest == nil || older(f, *s.Oldest) {
		rec := f
		s.Oldest = &rec
	}
	if s.Newest == nil || newer(f, *s.Newest) {
		rec := f
		s.Newest = &rec
	}
}

// Merge folds other into s. Sums are added, extrema compared with a path
// tie-break and the largest lists combined and re-truncated.
func (s *AggregateStats) Merge(other *AggregateStats) {
	if other == nil {
		return
	}
	if other.TopN > s.TopN {
		s.TopN = other.TopN
	}

	s.TotalFiles += other.TotalFiles
	s.TotalBytes += other.TotalBytes
	s.StatErrors += other.StatErrors

	for name, ot := range other.Categories {
		ct := s.Categories[name]
		ct.Count += ot.Count
		ct.Bytes += ot.Bytes
		s.Categories[name] = ct
	}
	for ext, n := range other.Extensions {
		s.Extensions[ext] += n
	}

	s.Largest = append(s.Largest, other.Largest...)
	s.trimLargest()

	if other.Oldest != nil && (s.Oldest == nil || older(*other.Oldest, *s.Oldest)) {
		rec := *other.Oldest
		s.Oldest = &rec
	}
	if other.Newest != nil && (s.Newest == nil || newer(*other.Newest, *s.Newest)) {
		rec := *other.Newest
		s.Newest = &rec
	}

	if len(other.ScanErrors) > 0 {
		s.ScanErrors = append(s.ScanErrors, other.ScanErrors...)
		sort.Slice(s.ScanErrors, func(i, j int) bool { return s.ScanErrors[i].Path < s.ScanErrors[j].Path })
	}
}

// AverageSize returns the mean file size, 0 for no files
func (s *AggregateStats) AverageSize() float64 {
	if s.TotalFiles == 0 {
		return 0
	}
	return float64(s.TotalBytes) / float64(s.TotalFiles)
}

// TopExtensions returns the n most frequent extensions, count descending
// then extension ascending. n < 1 returns all.
func (s *AggregateStats) TopExtensions(n int) []ExtensionCount {
	out := make([]ExtensionCount, 0, len(s.Extensions))
	for ext, count := range s.Extensions {
		out = append(out, ExtensionCount{Ext: ext, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Ext < out[j].Ext
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryNames returns categories by bytes descending, then name
func (s *AggregateStats) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.Categories[names[i]], s.Categories[names[j]]
		if a.Bytes != b.Bytes {
			return a.Bytes > b.Bytes
		}
		return names[i] < names[j]
	})
	return names
}

func (s *AggregateStats) trimLargest() {
	sort.Slice(s.Largest, func(i, j int) bool {
		if s.Largest[i].Size != s.Largest[j].Size {
			return s.Largest[i].Size > s.Largest[j].Size
		}
		return s.Largest[i].Path < s.Largest[j].Path
	})
	if len(s.Largest) > s.TopN {
		s.Largest = s.Largest[:s.TopN]
	}
}

func older(a, b scanner.FileRecord) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.Before(b.ModTime)
	}
	return a.Path < b.Path
}

func newer(a, b scanner.FileRecord) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.Path < b.Path
}
