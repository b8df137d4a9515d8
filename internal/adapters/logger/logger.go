// Package logger implements a logging adapter using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"go.trai.ch/lpm/internal/core/ports"
)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	jsonMode bool
	output   io.Writer
}

// New creates a new Logger writing human-readable lines to stderr.
func New() ports.Logger {
	l := &Logger{output: os.Stderr}
	l.rebuild()
	return l
}

// SetOutput updates the logger's output destination, keeping the current mode.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuild()
}

// rebuild swaps the slog handler. Callers hold mu, except New.
func (l *Logger) rebuild() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if l.jsonMode {
		l.logger = slog.New(slog.NewJSONHandler(l.output, opts))
		return
	}
	l.logger = slog.New(NewPrettyHandler(l.output, opts))
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs err. In pretty mode the error chain is rendered as a main
// error followed by its causes; in JSON mode zerr metadata becomes fields.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}

	l.logger.Error(formatErrorEntries(collectErrorEntries(err)))
}
