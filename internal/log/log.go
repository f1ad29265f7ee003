// Package log is the process-wide structured logger. It wraps slog and picks
// a text handler for terminals or a JSON handler when MUDRA_ENV=production.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the global logger at the given level, writing to stderr.
func Init(level string) {
	InitWriter(os.Stderr, level)
}

// InitWriter installs the global logger writing to w. Later calls replace the
// previous logger.
func InitWriter(w io.Writer, level string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if os.Getenv("MUDRA_ENV") == "production" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	l := slog.New(h)
	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// L returns the global logger, initializing it at info level on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init("info")
	return L()
}

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
