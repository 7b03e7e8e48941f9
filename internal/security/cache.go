package security

import (
	"container/list"
	"path/filepath"
	"sync"
)

// VerdictCache remembers validation verdicts (nil means allowed) for
// recently seen directories. Least recently used entries are evicted once
// maxSize is reached.
type VerdictCache struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	entries map[string]*list.Element
}

type verdict struct {
	key string
	err error
}

// NewVerdictCache creates a cache holding at most maxSize entries
func NewVerdictCache(maxSize int) *VerdictCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &VerdictCache{
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element, maxSize),
	}
}

// Get returns the cached verdict for path
func (c *VerdictCache) Get(path string) (error, bool) {
	key := filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*verdict).err, true
}

// Set stores the verdict for path
func (c *VerdictCache) Set(path string, err error) {
	key := filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*verdict).err = err
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&verdict{key: key, err: err})
	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*verdict).key)
	}
}

// Len returns the number of cached verdicts
func (c *VerdictCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Reset drops every cached verdict
func (c *VerdictCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element, c.maxSize)
}
