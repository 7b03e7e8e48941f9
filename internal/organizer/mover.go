// Package organizer moves scanned files into per-category directories.
package organizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/fenilsonani/fileflow/internal/scanner"
	"github.com/spf13/afero"
)

// DefaultMaxSuffixAttempts bounds the name_N search when none is configured
const DefaultMaxSuffixAttempts = 10000

// Status is the result class of one move
type Status int

const (
	Moved Status = iota + 1
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Moved:
		return "moved"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// MarshalText renders the status name in json/yaml reports
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MoveOutcome is what happened to one input file
type MoveOutcome struct {
	Source      string `json:"source" yaml:"source"`
	Status      Status `json:"status" yaml:"status"`
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Err         error  `json:"-" yaml:"-"`
}

// Renamed reports whether a collision forced a suffixed name
func (o MoveOutcome) Renamed() bool {
	return o.Status == Moved && filepath.Base(o.Source) != filepath.Base(o.Destination)
}

// MoveError represents an error that occurred during file movement
type MoveError struct {
	Kind scanner.ErrorKind
	Path string
	Err  error
}

func (e *MoveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind
func (e *MoveError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// ErrorKind reports the kind for scanner.KindOf
func (e *MoveError) ErrorKind() scanner.ErrorKind {
	return e.Kind
}

func newMoveError(path string, err error) *MoveError {
	return &MoveError{Kind: scanner.KindOf(err), Path: path, Err: err}
}

// Mover relocates files into destination directories without overwriting.
// Destination names are handed out by Reserve under a per-directory lock,
// so two files can never be given the same path by one Mover. Other
// processes writing the same directory are not coordinated.
type Mover struct {
	fs          afero.Fs
	maxAttempts int
	dryRun      bool

	mu       sync.Mutex
	dirLocks map[string]*sync.Mutex
	reserved map[string]struct{} // destinations handed out but not yet on disk
}

// NewMover creates a Mover. In dry-run mode nothing is touched and planned
// destinations stay reserved so a plan never hands out the same path twice.
func NewMover(fs afero.Fs, maxAttempts int, dryRun bool) *Mover {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxSuffixAttempts
	}
	return &Mover{
		fs:          fs,
		maxAttempts: maxAttempts,
		dryRun:      dryRun,
		dirLocks:    make(map[string]*sync.Mutex),
		reserved:    make(map[string]struct{}),
	}
}

// DryRun reports whether the mover only plans
func (m *Mover) DryRun() bool {
	return m.dryRun
}

func (m *Mover) lockDir(dir string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.dirLocks[dir]
	if !ok {
		l = &sync.Mutex{}
		m.dirLocks[dir] = l
	}
	return l
}

// Move relocates file into destDir, creating destDir if needed. When the
// base name is taken the first free name_N.ext (N from 1) is used.
func (m *Mover) Move(file scanner.FileRecord, destDir string) MoveOutcome {
	dest, err := m.Reserve(destDir, filepath.Base(file.Path))
	if err != nil {
		return failed(MoveOutcome{Source: file.Path}, err)
	}
	return m.MoveTo(file, dest)
}

// Reserve hands out the destination for name in destDir: the first of
// name, name_1.ext, name_2.ext, ... that is neither on disk nor reserved.
// Reserving in a fixed order yields the same names on every run.
func (m *Mover) Reserve(destDir, name string) (string, *MoveError) {
	destDir = filepath.Clean(destDir)

	l := m.lockDir(destDir)
	l.Lock()
	defer l.Unlock()

	dest, err := m.freeName(destDir, name)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.reserved[dest] = struct{}{}
	m.mu.Unlock()
	return dest, nil
}

// MoveTo moves file to dest, a path returned by Reserve. If something
// outside this Mover has created dest since, the next free name is used.
func (m *Mover) MoveTo(file scanner.FileRecord, dest string) MoveOutcome {
	outcome := MoveOutcome{Source: file.Path}
	destDir := filepath.Dir(dest)

	l := m.lockDir(destDir)
	l.Lock()
	defer l.Unlock()

	if _, err := lstat(m.fs, file.Path); err != nil {
		m.release(dest)
		return failed(outcome, newMoveError(file.Path, err))
	}

	if m.dryRun {
		outcome.Status = Moved
		outcome.Destination = dest
		return outcome
	}
	defer m.release(dest)

	if err := m.fs.MkdirAll(destDir, 0755); err != nil {
		return failed(outcome, newMoveError(destDir, err))
	}

	onDisk, err := m.onDisk(dest)
	if err != nil {
		return failed(outcome, newMoveError(dest, err))
	}
	if onDisk {
		var moveErr *MoveError
		if dest, moveErr = m.freeName(destDir, filepath.Base(file.Path)); moveErr != nil {
			return failed(outcome, moveErr)
		}
	}

	if err := m.rename(file.Path, dest); err != nil {
		return failed(outcome, err)
	}

	outcome.Status = Moved
	outcome.Destination = dest
	return outcome
}

func failed(outcome MoveOutcome, err *MoveError) MoveOutcome {
	outcome.Status = Failed
	outcome.Err = err
	outcome.Reason = err.Error()
	return outcome
}

func (m *Mover) release(dest string) {
	m.mu.Lock()
	delete(m.reserved, dest)
	m.mu.Unlock()
}

// freeName returns the first destination path that is neither on disk nor
// reserved
func (m *Mover) freeName(dir, name string) (string, *MoveError) {
	stem, ext := SplitName(name)
	for n := 0; n <= m.maxAttempts; n++ {
		candidate := name
		if n > 0 {
			candidate = stem + "_" + strconv.Itoa(n) + ext
		}
		path := filepath.Join(dir, candidate)

		taken, err := m.taken(path)
		if err != nil {
			return "", newMoveError(path, err)
		}
		if !taken {
			return path, nil
		}
	}
	return "", &MoveError{
		Kind: scanner.NameCollisionExhausted,
		Path: filepath.Join(dir, name),
		Err:  fmt.Errorf("%w after %d attempts", scanner.ErrNameCollisionExhausted, m.maxAttempts),
	}
}

func (m *Mover) taken(path string) (bool, error) {
	m.mu.Lock()
	_, ok := m.reserved[path]
	m.mu.Unlock()
	if ok {
		return true, nil
	}
	return m.onDisk(path)
}

// onDisk uses Lstat so a dangling symlink still counts as taken
func (m *Mover) onDisk(path string) (bool, error) {
	_, err := lstat(m.fs, path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// rename moves src to dst, copying across filesystems when rename cannot
func (m *Mover) rename(src, dst string) *MoveError {
	err := m.fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return newMoveError(src, err)
	}
	return m.copyAndRemove(src, dst)
}

// copyAndRemove copies src to dst and deletes src. A partial copy is
// removed on failure.
func (m *Mover) copyAndRemove(src, dst string) *MoveError {
	in, err := m.fs.Open(src)
	if err != nil {
		return newMoveError(src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return newMoveError(src, err)
	}

	out, err := m.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return newMoveError(dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		m.fs.Remove(dst)
		return newMoveError(dst, err)
	}
	if err := out.Close(); err != nil {
		m.fs.Remove(dst)
		return newMoveError(dst, err)
	}
	_ = m.fs.Chtimes(dst, info.ModTime(), info.ModTime())

	if err := m.fs.Remove(src); err != nil {
		m.fs.Remove(dst)
		return newMoveError(src, err)
	}
	return nil
}

// SplitName splits a base name into stem and extension, keeping the
// extension's case. Dotfiles and names ending in a dot have no extension.
func SplitName(name string) (stem, ext string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 || strings.TrimLeft(name[:i], ".") == "" {
		return name, ""
	}
	return name[:i], name[i:]
}

func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if lfs, ok := fs.(afero.Lstater); ok {
		info, _, err := lfs.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}
