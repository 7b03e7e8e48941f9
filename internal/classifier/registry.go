package classifier

import (
	"sync"
	"sync/atomic"
)

// Registry publishes the current category table. Readers take a snapshot
// once per operation; edits swap in a new version and never touch a table
// that is already in use.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[Table]
}

// NewRegistry starts a registry at t, or at the built-in table when t is nil
func NewRegistry(t *Table) *Registry {
	if t == nil {
		t = Default()
	}
	r := &Registry{}
	r.current.Store(t)
	return r
}

// Snapshot returns the table in effect now
func (r *Registry) Snapshot() *Table {
	return r.current.Load()
}

// GetCategories returns category name to extensions for the current table
func (r *Registry) GetCategories() map[string][]string {
	return r.Snapshot().Map()
}

// SetCategory adds or replaces a category
func (r *Registry) SetCategory(name string, exts []string) error {
	return r.update(func(t *Table) (*Table, error) {
		return t.WithCategory(name, exts)
	})
}

// AddExtension appends ext to an existing category
func (r *Registry) AddExtension(name, ext string) error {
	return r.update(func(t *Table) (*Table, error) {
		return t.WithExtension(name, ext)
	})
}

// RemoveCategory deletes a category
func (r *Registry) RemoveCategory(name string) error {
	return r.update(func(t *Table) (*Table, error) {
		return t.WithoutCategory(name)
	})
}

func (r *Registry) update(edit func(*Table) (*Table, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := edit(r.current.Load())
	if err != nil {
		return err
	}
	r.current.Store(next)
	return nil
}
