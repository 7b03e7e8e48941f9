package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fenilsonani/fileflow/internal/scanner"
)

// ErrorReason categorizes why a deletion failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorIsDirectory
	ErrorInvalidPath
	ErrorChanged
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorIsDirectory:
		return "Is a directory"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorChanged:
		return "Changed since scan"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// DeletionError represents a detailed deletion error
type DeletionError struct {
	Path      string
	Reason    ErrorReason
	Original  error
	Retryable bool
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

// Unwrap returns the underlying error
func (e *DeletionError) Unwrap() error {
	return e.Original
}

// ErrorKind maps the reason onto the shared filesystem error kinds
func (e *DeletionError) ErrorKind() scanner.ErrorKind {
	switch e.Reason {
	case ErrorPermissionDenied:
		return scanner.PermissionDenied
	case ErrorFileNotFound:
		return scanner.PathNotFound
	case ErrorInvalidPath:
		if errors.Is(e.Original, scanner.ProtectedPath.Sentinel()) {
			return scanner.ProtectedPath
		}
		return scanner.IOFailure
	default:
		return scanner.IOFailure
	}
}

// UserMessage returns a user-friendly error message
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		return fmt.Sprintf("Permission denied: %s", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("File is being used: %s (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("Already gone: %s", e.Path)
	case ErrorIsDirectory:
		return fmt.Sprintf("Refusing to delete directory: %s", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("Invalid or unsafe path: %s (%v)", e.Path, e.Original)
	case ErrorChanged:
		return fmt.Sprintf("Modified since scan, left in place: %s", e.Path)
	default:
		return fmt.Sprintf("Error deleting %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	// Check if file not found
	if os.IsNotExist(err) {
		delErr.Reason = ErrorFileNotFound
		return delErr
	}

	// Check if permission error
	if os.IsPermission(err) {
		delErr.Reason = ErrorPermissionDenied
		return delErr
	}

	// Check syscall errors
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			delErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			delErr.Reason = ErrorFileInUse
			delErr.Retryable = true
		case syscall.ENOENT:
			delErr.Reason = ErrorFileNotFound
		case syscall.EISDIR, syscall.ENOTEMPTY:
			delErr.Reason = ErrorIsDirectory
		}
	}

	return delErr
}

// GroupErrors groups deletion errors by reason
func GroupErrors(errs []*DeletionError) map[ErrorReason][]*DeletionError {
	grouped := make(map[ErrorReason][]*DeletionError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a user-friendly summary of errors
func FormatErrorSummary(errs []*DeletionError) string {
	if len(errs) == 0 {
		return ""
	}

	grouped := GroupErrors(errs)
	var sb strings.Builder
	sb.WriteString("\nIssues encountered:\n")

	// Permission denied
	if perms, ok := grouped[ErrorPermissionDenied]; ok {
		fmt.Fprintf(&sb, "   ├─ Permission denied: %d files\n", len(perms))
		sb.WriteString("   │  └─ Tip: check ownership of the containing directories\n")
	}

	// File in use
	if busy, ok := grouped[ErrorFileInUse]; ok {
		fmt.Fprintf(&sb, "   ├─ File in use: %d files\n", len(busy))
		sb.WriteString("   │  └─ Tip: Close applications and retry\n")
	}

	// File not found
	if notFound, ok := grouped[ErrorFileNotFound]; ok {
		fmt.Fprintf(&sb, "   ├─ Already gone: %d files\n", len(notFound))
	}

	// Changed since scan
	if changed, ok := grouped[ErrorChanged]; ok {
		fmt.Fprintf(&sb, "   ├─ Changed since scan: %d files\n", len(changed))
		sb.WriteString("   │  └─ Tip: rescan before deleting\n")
	}

	// Unsafe paths
	if invalid, ok := grouped[ErrorInvalidPath]; ok {
		fmt.Fprintf(&sb, "   ├─ Refused as unsafe: %d files\n", len(invalid))
	}

	// Directories
	if dirs, ok := grouped[ErrorIsDirectory]; ok {
		fmt.Fprintf(&sb, "   ├─ Directories: %d items\n", len(dirs))
	}

	// Unknown errors
	if unknown, ok := grouped[ErrorUnknown]; ok {
		fmt.Fprintf(&sb, "   └─ Other errors: %d files\n", len(unknown))
	}

	return sb.String()
}
