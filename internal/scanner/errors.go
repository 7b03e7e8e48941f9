package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"

	"github.com/fenilsonani/fileflow/internal/security"
)

// ErrorKind classifies filesystem failures shared by scanning, moving and
// deleting.
type ErrorKind int

const (
	IOFailure ErrorKind = iota
	PathNotFound
	PermissionDenied
	NameCollisionExhausted
	NotADirectory
	ProtectedPath
)

// Sentinel errors matched with errors.Is
var (
	ErrIOFailure              = errors.New("i/o failure")
	ErrPathNotFound           = errors.New("path not found")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrNameCollisionExhausted = errors.New("name collision attempts exhausted")
	ErrNotADirectory          = errors.New("not a directory")
)

// String returns a human-readable representation of the kind
func (k ErrorKind) String() string {
	switch k {
	case PathNotFound:
		return "PathNotFound"
	case PermissionDenied:
		return "PermissionDenied"
	case NameCollisionExhausted:
		return "NameCollisionExhausted"
	case NotADirectory:
		return "NotADirectory"
	case ProtectedPath:
		return "ProtectedPath"
	default:
		return "IOFailure"
	}
}

// Sentinel returns the error value errors.Is matches for k
func (k ErrorKind) Sentinel() error {
	switch k {
	case PathNotFound:
		return ErrPathNotFound
	case PermissionDenied:
		return ErrPermissionDenied
	case NameCollisionExhausted:
		return ErrNameCollisionExhausted
	case NotADirectory:
		return ErrNotADirectory
	case ProtectedPath:
		return security.ErrProtectedPath
	default:
		return ErrIOFailure
	}
}

// KindOf maps an error to its kind
func KindOf(err error) ErrorKind {
	var kinded interface{ ErrorKind() ErrorKind }
	switch {
	case err == nil:
		return IOFailure
	case errors.As(err, &kinded):
		return kinded.ErrorKind()
	case errors.Is(err, ErrNameCollisionExhausted):
		return NameCollisionExhausted
	case errors.Is(err, security.ErrProtectedPath):
		return ProtectedPath
	case errors.Is(err, fs.ErrNotExist):
		return PathNotFound
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EPERM):
		return PermissionDenied
	case errors.Is(err, syscall.ENOTDIR):
		return NotADirectory
	default:
		return IOFailure
	}
}

// ScanError aborts a whole operation, e.g. a missing root
type ScanError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind
func (e *ScanError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// ErrorKind reports the kind for KindOf
func (e *ScanError) ErrorKind() ErrorKind {
	return e.Kind
}

// DirError records a directory (or entry) that could not be read. It does
// not abort the scan.
type DirError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e DirError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Path, e.Err)
}

func (e DirError) Unwrap() error {
	return e.Err
}

func newDirError(path string, err error) DirError {
	return DirError{Path: path, Kind: KindOf(err), Err: err}
}
