package scanner

import (
	"os"
	"sort"
	"time"

	"github.com/fenilsonani/fileflow/internal/classifier"
)

// FileRecord is a regular file observed during a scan. Fields are a
// snapshot; the file may change or vanish before it is acted on.
type FileRecord struct {
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	Ext     string    `json:"ext" yaml:"ext"`
	Symlink bool      `json:"symlink,omitempty" yaml:"symlink,omitempty"` // path is a link; Size/ModTime describe its target
}

// NewRecord builds a FileRecord from a stat result
func NewRecord(path string, info os.FileInfo, symlink bool) FileRecord {
	return FileRecord{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Ext:     classifier.ExtOf(path),
		Symlink: symlink,
	}
}

// ScanResult represents the result of a scan operation
type ScanResult struct {
	Root        string
	Files       []FileRecord
	Errors      []DirError
	Directories int
}

// TotalSize returns the sum of file sizes
func (r *ScanResult) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

// merge combines two ScanResults
func (r *ScanResult) merge(files []FileRecord, errs []DirError) {
	r.Files = append(r.Files, files...)
	r.Errors = append(r.Errors, errs...)
}

// sortByPath orders files and errors by path
func (r *ScanResult) sortByPath() {
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })
	sort.Slice(r.Errors, func(i, j int) bool { return r.Errors[i].Path < r.Errors[j].Path })
}

// CanonicalOrder sorts files by modification time, oldest first, breaking
// ties by path. The first element is the copy a duplicate group keeps.
func CanonicalOrder(files []FileRecord) {
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.Before(files[j].ModTime)
		}
		return files[i].Path < files[j].Path
	})
}
