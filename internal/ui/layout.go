package ui

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// DefaultWidth is used when the terminal size is unknown
const DefaultWidth = 80

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of f, or DefaultWidth
func TerminalWidth(f *os.File) int {
	if f == nil {
		return DefaultWidth
	}
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return DefaultWidth
}

// TruncatePath shortens path to maxWidth, keeping the file name and as
// much of the leading and trailing directories as fits
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}
	if maxWidth < 10 {
		return "..."
	}

	dir, file := filepath.Split(path)
	if len(file) > maxWidth-4 {
		return "..." + file[len(file)-(maxWidth-4):]
	}

	availableForDir := maxWidth - len(file) - 3
	dir = filepath.Clean(dir)
	if len(dir) <= availableForDir {
		return filepath.Join(dir, file)
	}
	if availableForDir < 10 {
		return ".../" + file
	}

	sep := string(filepath.Separator)
	parts := strings.Split(dir, sep)
	if len(parts) <= 2 {
		return "..." + dir[len(dir)-availableForDir:] + sep + file
	}

	first := parts[0]
	if first == "" {
		first = sep + parts[1]
	}
	last := parts[len(parts)-1]

	if len(first)+len(last)+5 <= availableForDir {
		return first + sep + "..." + sep + last + sep + file
	}
	return "..." + sep + last + sep + file
}
