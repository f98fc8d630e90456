// Package logger provides leveled logging for fscrawler.
// Informational messages are printed by default. The --verbose flag adds
// debug messages and section headers, --silent restricts output to errors.
// All output goes through a log/slog handler so adapters can log
// structured key/value pairs with L().
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	writeMu sync.Mutex
	verbose bool
	silent  bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetSilent restricts output to errors.
func SetSilent(s bool) {
	mu.Lock()
	defer mu.Unlock()
	silent = s
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// L returns a structured logger sharing the package level and output.
func L() *slog.Logger {
	return slog.New(NewContextHandler(&lineHandler{}))
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(slog.LevelDebug, format, args...)
}

// Info prints an informational message unless silent.
func Info(format string, args ...any) {
	logf(slog.LevelInfo, format, args...)
}

// Warn prints a warning message unless silent.
func Warn(format string, args ...any) {
	logf(slog.LevelWarn, format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	logf(slog.LevelError, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	show, w := verbose && !silent, output
	mu.RUnlock()
	if show {
		writeMu.Lock()
		defer writeMu.Unlock()
		fmt.Fprintf(w, "\n=== %s ===\n", name)
	}
}

func logf(level slog.Level, format string, args ...any) {
	if !enabled(level) {
		return
	}
	L().Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func enabled(level slog.Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	switch {
	case silent:
		return level >= slog.LevelError
	case verbose:
		return true
	default:
		return level >= slog.LevelInfo
	}
}
