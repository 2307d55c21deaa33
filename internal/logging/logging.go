// ABOUTME: Printf-style logging facade over log/slog.
// ABOUTME: Discards everything until InitLogger is called; each record carries the run ID.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Options controls where log records go
type Options struct {
	// Debug enables debug-level records on stderr
	Debug bool
	// FilePath appends JSON records to this file when set
	FilePath string
	// Stderr overrides the debug writer (tests)
	Stderr io.Writer
}

var (
	mu      sync.RWMutex
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
	logFile *os.File
	runID   string
)

// InitLogger configures the global logger and returns a cleanup function
func InitLogger(opts Options) (func() error, error) {
	var handlers []slog.Handler

	if opts.Debug {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var f *os.File
	if opts.FilePath != "" {
		var err error
		f, err = os.OpenFile(opts.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.FilePath, err)
		}
		level := slog.LevelInfo
		if opts.Debug {
			level = slog.LevelDebug
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	id := uuid.NewString()

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = slog.NewTextHandler(io.Discard, nil)
	case 1:
		h = handlers[0]
	default:
		h = fanout(handlers)
	}

	mu.Lock()
	logger = slog.New(h).With("run_id", id)
	logFile = f
	runID = id
	mu.Unlock()

	return Close, nil
}

// Close flushes and closes the log file, if any, and resets to discard
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	runID = ""
	return err
}

// RunID returns the identifier attached to this process's records
func RunID() string {
	mu.RLock()
	defer mu.RUnlock()
	return runID
}

func Debug(format string, args ...any) { log(slog.LevelDebug, format, args...) }
func Info(format string, args ...any)  { log(slog.LevelInfo, format, args...) }
func Warn(format string, args ...any)  { log(slog.LevelWarn, format, args...) }
func Error(format string, args ...any) { log(slog.LevelError, format, args...) }

func log(level slog.Level, format string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}
