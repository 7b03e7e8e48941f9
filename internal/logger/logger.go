// Package logger provides the leveled logger used by the engine and CLI.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level is a logging threshold
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel parses debug, info, warn or error. Empty means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", s)
	}
}

// Logger provides leveled logging
type Logger struct {
	mu     sync.Mutex
	logger *log.Logger
	level  Level
	file   *os.File
	tags   map[Level]string
}

// New creates a logger writing to w. Level tags are colored when w is a
// terminal.
func New(w io.Writer, level Level) *Logger {
	l := &Logger{
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
		tags: map[Level]string{
			LevelDebug: "[DEBUG]",
			LevelInfo:  "[INFO]",
			LevelWarn:  "[WARN]",
			LevelError: "[ERROR]",
		},
	}

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		colors := map[Level]*color.Color{
			LevelDebug: color.New(color.FgHiBlack),
			LevelInfo:  color.New(color.FgCyan),
			LevelWarn:  color.New(color.FgYellow),
			LevelError: color.New(color.FgRed, color.Bold),
		}
		for lvl, c := range colors {
			c.EnableColor()
			l.tags[lvl] = c.Sprint(l.tags[lvl])
		}
	}
	return l
}

// NewLogger creates a logger appending to logFile, or writing to stderr
// when logFile is empty
func NewLogger(logFile, logLevel string) (*Logger, error) {
	level, err := ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}

	if logFile == "" {
		return New(os.Stderr, level), nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l := New(file, level)
	l.file = file
	return l, nil
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

// SetLevel changes the threshold
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Level returns the current threshold
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if l == nil || level < l.Level() {
		return
	}
	l.logger.Printf(l.tags[level]+" "+format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l != nil && l.file != nil {
		return l.file.Close()
	}
	return nil
}
