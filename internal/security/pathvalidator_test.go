package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRoot(t *testing.T) {
	pv := NewPathValidator()
	tmp := t.TempDir()

	tests := []struct {
		name        string
		root        string
		shouldError bool
	}{
		{"filesystem root", "/", true},
		{"system directory", "/usr", true},
		{"direct child of system directory", "/usr/bin", true},
		{"etc", "/etc", true},
		{"temp directory", tmp, false},
		{"nested temp directory", filepath.Join(tmp, "a", "b"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pv.ValidateRoot(tt.root)
			if (err != nil) != tt.shouldError {
				t.Errorf("ValidateRoot(%s) error = %v, shouldError %v", tt.root, err, tt.shouldError)
			}
			if err != nil && !errors.Is(err, ErrProtectedPath) {
				t.Errorf("expected ErrProtectedPath, got %v", err)
			}
		})
	}
}

func TestValidateRoot_RelativeBecomesAbsolute(t *testing.T) {
	pv := NewPathValidator()

	got, err := pv.ValidateRoot(".")
	if err != nil {
		t.Skipf("working directory is protected here: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("ValidateRoot(.) = %s, want absolute path", got)
	}
}

func TestValidateRoot_CustomProtected(t *testing.T) {
	tmp := t.TempDir()
	pv := NewPathValidator(tmp)

	if _, err := pv.ValidateRoot(tmp); err == nil {
		t.Error("expected custom protected path to be refused")
	}
}

func TestValidatePathForDeletion(t *testing.T) {
	pv := NewPathValidator()
	tmp := t.TempDir()
	file := filepath.Join(tmp, "photo (1).jpg")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		path        string
		shouldError bool
	}{
		{"regular file with parentheses", file, false},
		{"relative path", "relative/path.txt", true},
		{"unclean path", tmp + "/../" + filepath.Base(tmp) + "/x", true},
		{"system binary", "/usr/ls", true},
		{"etc file", "/etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidatePathForDeletion(tt.path)
			if (err != nil) != tt.shouldError {
				t.Errorf("ValidatePathForDeletion(%s) error = %v, shouldError %v", tt.path, err, tt.shouldError)
			}
		})
	}
}

func TestValidatePathForDeletion_SymlinkedDirIntoProtected(t *testing.T) {
	tmp := t.TempDir()
	link := filepath.Join(tmp, "sneaky")
	if err := os.Symlink("/etc", link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	pv := NewPathValidator()
	if err := pv.ValidatePathForDeletion(filepath.Join(link, "passwd")); err == nil {
		t.Error("expected deletion through a symlink into /etc to be refused")
	}
}

func TestCheckProtectedPaths(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/usr", true},
		{"/usr/", true},
		{"/usr/local", true},
		{"/usr/local/share/fileflow", false},
		{"/home/user/Downloads", false},
	}

	for _, tt := range tests {
		if got := pv.checkProtectedPaths(filepath.Clean(tt.path)) != nil; got != tt.want {
			t.Errorf("checkProtectedPaths(%s) refused = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestValidateGlobPattern(t *testing.T) {
	tests := []struct {
		pattern     string
		shouldError bool
	}{
		{"*.keep", false},
		{"node_modules", false},
		{"[abc]*", false},
		{"../*", true},
		{"[", true},
	}

	for _, tt := range tests {
		err := ValidateGlobPattern(tt.pattern)
		if (err != nil) != tt.shouldError {
			t.Errorf("ValidateGlobPattern(%q) error = %v, shouldError %v", tt.pattern, err, tt.shouldError)
		}
	}
}

// ===== Verdict cache =====

func TestVerdictCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewVerdictCache(2)
	denied := errors.New("denied")

	c.Set("/a", nil)
	c.Set("/b", denied)
	if _, ok := c.Get("/a"); !ok { // touch /a so /b is oldest
		t.Fatal("expected /a cached")
	}
	c.Set("/c", nil)

	if _, ok := c.Get("/b"); ok {
		t.Error("/b should have been evicted")
	}
	if v, ok := c.Get("/a"); !ok || v != nil {
		t.Errorf("/a = %v, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Reset()
	if c.Len() != 0 {
		t.Error("Reset should empty the cache")
	}
}

func TestVerdictCache_CleansKeys(t *testing.T) {
	c := NewVerdictCache(4)
	c.Set("/x/y/", nil)
	if _, ok := c.Get("/x/y"); !ok {
		t.Error("keys should be cleaned")
	}
}
