// Package filelock serializes writers of small state files (config, deletion
// manifests) across processes and replaces their contents atomically.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockSuffix is appended to a target path to name its lock file
const LockSuffix = ".lock"

// Lock is an advisory inter-process lock bound to a path
type Lock struct {
	fl   *flock.Flock
	path string
}

// New returns an unlocked Lock for path
func New(path string) *Lock {
	return &Lock{fl: flock.New(path), path: path}
}

// Lock blocks until the lock is held
func (l *Lock) Lock() error {
	if err := l.fl.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.path, err)
	}
	return nil
}

// TryLock acquires the lock if nobody else holds it
func (l *Lock) TryLock() (bool, error) {
	ok, err := l.fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock %s: %w", l.path, err)
	}
	return ok, nil
}

// Unlock releases the lock
func (l *Lock) Unlock() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, err)
	}
	return nil
}

// WriteAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old or the new contents.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".fileflow-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	committed = true
	return nil
}

// WriteLocked holds path+LockSuffix while atomically replacing path. The
// parent directory is created first since the lock file lives in it.
func WriteLocked(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lock := New(path + LockSuffix)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	return WriteAtomic(path, data, perm)
}
