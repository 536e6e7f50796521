package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Mode selects what happens to an existing log file at startup.
type Mode uint8

const (
	// ModeTruncate starts every run with an empty log file.
	ModeTruncate Mode = iota

	// ModeAppend keeps the previous run's lines.
	ModeAppend
)

// String returns the configuration spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeTruncate:
		return "truncate"
	case ModeAppend:
		return "append"
	default:
		return "unknown"
	}
}

// ParseMode parses "truncate" or "append". The empty string is ModeTruncate.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "truncate":
		return ModeTruncate, nil
	case "append":
		return ModeAppend, nil
	default:
		return ModeTruncate, fmt.Errorf("unknown log mode %q", s)
	}
}

// Rotation limits for the log file.
const (
	MaxSizeMB  = 10
	MaxBackups = 3
)

// FileLogger writes log lines to a size-rotated file.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	out    *lumberjack.Logger
	mu     sync.Mutex
	closed bool
}

// NewFileLogger opens the log file at path. The parent directory is created
// if needed. In ModeTruncate an existing file is emptied first.
func NewFileLogger(path string, mode Mode) (*FileLogger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if mode == ModeTruncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	// Open once up front so an unwritable path fails at startup rather than
	// on the first log line.
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &FileLogger{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    MaxSizeMB,
			MaxBackups: MaxBackups,
		},
	}, nil
}

// Write appends one formatted line to the file.
// Writes after Close are dropped.
func (l *FileLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return len(p), nil
	}
	return l.out.Write(p)
}

// Path returns the file being written.
func (l *FileLogger) Path() string {
	return l.out.Filename
}

// Close closes the log file.
// It is safe to call Close multiple times.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	return l.out.Close()
}
