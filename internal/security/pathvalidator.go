package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrProtectedPath is returned for paths fileflow refuses to modify
var ErrProtectedPath = errors.New("protected path")

// PathValidator handles secure path validation for file operations
type PathValidator struct {
	protectedPaths []string
	cache          *VerdictCache
}

// NewPathValidator creates a new PathValidator with default protected paths
// plus any extra absolute paths.
func NewPathValidator(extra ...string) *PathValidator {
	pv := &PathValidator{
		protectedPaths: []string{
			// Unix system directories
			"/",
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib64",
			"/proc",
			"/root",
			"/sbin",
			"/sys",
			"/usr",
			"/var",
			// macOS system directories
			"/System",
			"/Applications",
			"/Library",
		},
		cache: NewVerdictCache(4096),
	}
	for _, p := range extra {
		pv.AddProtectedPath(p)
	}
	return pv
}

// ValidateRoot checks a directory before a destructive operation (organize,
// duplicate removal, sweep) runs over it, and returns its cleaned absolute form.
func (pv *PathValidator) ValidateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve symlinks: %w", err)
		}
		resolved = abs
	}

	for _, candidate := range []string{abs, filepath.Clean(resolved)} {
		if err := pv.checkProtectedPaths(candidate); err != nil {
			return "", err
		}
	}
	return abs, nil
}

// ValidatePathForDeletion performs validation on a single file before it is
// removed. Results are memoized per parent directory.
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	// Path must be absolute and already clean
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	dir := filepath.Dir(path)
	verdict, ok := pv.cache.Get(dir)
	if !ok {
		verdict = pv.validateDir(dir)
		pv.cache.Set(dir, verdict)
	}
	if verdict != nil {
		return verdict
	}

	return pv.checkProtectedPaths(path)
}

// validateDir resolves symlinks in dir so ../ tricks cannot reach a
// protected location.
func (pv *PathValidator) validateDir(dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to resolve symlinks: %w", err)
		}
		resolved = dir
	}
	return pv.checkProtectedPaths(filepath.Clean(resolved))
}

// checkProtectedPaths rejects a protected directory and its direct children
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return fmt.Errorf("%w: %s", ErrProtectedPath, cleanPath)
		}

		prefix := protected
		if prefix != "/" {
			prefix += "/"
		} else {
			// every absolute path is below "/"; only the root itself is refused
			continue
		}
		if strings.HasPrefix(cleanPath, prefix) {
			rel, _ := filepath.Rel(protected, cleanPath)
			if !strings.Contains(rel, "/") {
				return fmt.Errorf("%w: critical system path %s", ErrProtectedPath, cleanPath)
			}
		}
	}

	return nil
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	cleanPath := filepath.Clean(path)
	pv.protectedPaths = append(pv.protectedPaths, cleanPath)
	if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil && resolved != cleanPath {
		pv.protectedPaths = append(pv.protectedPaths, resolved)
	}
	pv.cache.Reset()
}

// ValidateGlobPattern validates that a glob pattern is safe
func ValidateGlobPattern(pattern string) error {
	// Check for dangerous characters
	if strings.Contains(pattern, "..") {
		return fmt.Errorf("glob pattern contains directory traversal: %s", pattern)
	}

	// Try to match the pattern to ensure it's valid
	_, err := filepath.Match(pattern, "test")
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	return nil
}
