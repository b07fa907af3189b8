// Package debug provides the process-wide debug logger built on log/slog.
//
// Logging is off until Init is called with enable set; the compiled-SQL
// debug toggle (ENTQL_DEBUG / --debug) routes through here.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger   = newLogger(io.Discard, false)
	enabled  bool
	showArgs bool
	mu       sync.RWMutex
)

func newLogger(w io.Writer, enable bool) *slog.Logger {
	level := slog.LevelError + 1
	if enable {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Init switches debug logging to stderr on or off.
func Init(enable bool) {
	InitWriter(os.Stderr, enable, false)
}

// InitWriter is Init with an explicit destination. When args is set the
// bound arguments of compiled queries are logged as well.
func InitWriter(w io.Writer, enable, args bool) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	showArgs = enable && args
	logger = newLogger(w, enable)
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// SQL logs a compiled statement. Arguments are only included when the
// args toggle was set in InitWriter.
func SQL(name, sql string, args []any) {
	mu.RLock()
	l, withArgs := logger, showArgs
	mu.RUnlock()

	attrs := []any{"query", name, "sql", sql}
	if withArgs {
		attrs = append(attrs, "args", args)
	}
	l.Debug("compiled", attrs...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
