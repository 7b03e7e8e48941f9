// Package classifier maps file extensions to category labels using an
// ordered, immutable category table.
package classifier

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidExtension is returned for extensions that do not start with a dot
	ErrInvalidExtension = errors.New("extension must start with '.'")
	// ErrInvalidName is returned for names that cannot be used as a directory
	ErrInvalidName = errors.New("invalid category name")
	// ErrUnknownCategory is returned when editing a category that does not exist
	ErrUnknownCategory = errors.New("unknown category")
)

// Category is a named set of extensions
type Category struct {
	Name       string
	Extensions []string
}

// Table is an immutable, versioned category list. When extension sets
// overlap, the category listed first wins.
type Table struct {
	version    int64
	categories []Category
	index      map[string]string
}

// NewTable validates and normalizes categories into a table
func NewTable(version int64, categories []Category) (*Table, error) {
	t := &Table{
		version:    version,
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]string),
	}

	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		if err := ValidateName(c.Name); err != nil {
			return nil, err
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true

		exts, err := normalizeAll(c.Extensions)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		for _, ext := range exts {
			if _, taken := t.index[ext]; !taken {
				t.index[ext] = c.Name
			}
		}
		t.categories = append(t.categories, Category{Name: c.Name, Extensions: exts})
	}

	return t, nil
}

// Version identifies this table; every edit produces a higher version
func (t *Table) Version() int64 {
	return t.version
}

// Lookup returns the first category claiming ext
func (t *Table) Lookup(ext string) (string, bool) {
	name, ok := t.index[strings.ToLower(ext)]
	return name, ok
}

// Classify returns the category for ext: a matching category, Others for an
// unclaimed extension, or "" when ext is empty.
func (t *Table) Classify(ext string) string {
	if ext == "" {
		return ""
	}
	if name, ok := t.Lookup(ext); ok {
		return name
	}
	return Others
}

// Classify is the free-function form of Table.Classify
func Classify(ext string, t *Table) string {
	return t.Classify(ext)
}

// Categories returns a copy of the categories in match order
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Extensions: append([]string(nil), c.Extensions...)}
	}
	return out
}

// Names returns category names in match order
func (t *Table) Names() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}

// Has reports whether name is a category of this table
func (t *Table) Has(name string) bool {
	return t.position(name) >= 0
}

// IsTargetDir reports whether name is a directory organize may write into
func (t *Table) IsTargetDir(name string) bool {
	return name == Others || t.Has(name)
}

// Map returns category name to extensions
func (t *Table) Map() map[string][]string {
	m := make(map[string][]string, len(t.categories))
	for _, c := range t.categories {
		m[c.Name] = append([]string(nil), c.Extensions...)
	}
	return m
}

// WithCategory returns a new table where name maps to exts. An existing
// category keeps its position; a new one is appended.
func (t *Table) WithCategory(name string, exts []string) (*Table, error) {
	cats := t.Categories()
	if i := t.position(name); i >= 0 {
		cats[i].Extensions = exts
	} else {
		cats = append(cats, Category{Name: name, Extensions: exts})
	}
	return NewTable(t.version+1, cats)
}

// WithExtension returns a new table with ext added to an existing category
func (t *Table) WithExtension(name, ext string) (*Table, error) {
	i := t.position(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, name)
	}
	norm, err := NormalizeExtension(ext)
	if err != nil {
		return nil, err
	}

	cats := t.Categories()
	for _, e := range cats[i].Extensions {
		if e == norm {
			return NewTable(t.version+1, cats)
		}
	}
	cats[i].Extensions = append(cats[i].Extensions, norm)
	return NewTable(t.version+1, cats)
}

// WithoutCategory returns a new table with name removed
func (t *Table) WithoutCategory(name string) (*Table, error) {
	i := t.position(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, name)
	}
	cats := t.Categories()
	cats = append(cats[:i], cats[i+1:]...)
	return NewTable(t.version+1, cats)
}

func (t *Table) position(name string) int {
	for i, c := range t.categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// NormalizeExtension lower-cases ext and checks it has the ".xyz" form
func NormalizeExtension(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if len(ext) < 2 || ext[0] != '.' {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	if strings.ContainsAny(ext[1:], `./\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	return ext, nil
}

func normalizeAll(exts []string) ([]string, error) {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, e := range exts {
		norm, err := NormalizeExtension(e)
		if err != nil {
			return nil, err
		}
		if !seen[norm] {
			seen[norm] = true
			out = append(out, norm)
		}
	}
	return out, nil
}

// ValidateName checks a category name is usable as a single directory name
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ExtOf returns the lower-cased extension of a file name including the dot.
// Names with no dot, a trailing dot, or only a leading dot have none.
func ExtOf(path string) string {
	base := filepath.Base(path)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	if strings.TrimLeft(base[:i], ".") == "" {
		return ""
	}
	return strings.ToLower(base[i:])
}
