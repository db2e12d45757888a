// Package xlog provides the structured logging conventions shared by every
// nexus component: a leveled slog.Logger plus a Trace helper for the
// high-volume per-cycle messages that are normally compiled into noise.
package xlog

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// LevelTrace sits below LevelDebug; it is the level used for per-cycle
// digest/evaluate/route messages that only matter when chasing a specific
// mismatch.
const LevelTrace slog.Level = slog.LevelDebug - 4

var (
	logger  atomic.Pointer[slog.Logger]
	verbose atomic.Bool
)

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// SetVerbose toggles whether Trace-level messages are actually logged. The
// CLI wires this to the --verbose flag.
func SetVerbose(v bool) {
	verbose.Store(v)
	level := slog.LevelInfo
	if v {
		level = LevelTrace
	}
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// L returns the shared logger.
func L() *slog.Logger {
	return logger.Load()
}

// Trace logs a per-cycle diagnostic. Cheap when verbose logging is off since
// the handler drops anything below its configured level without formatting
// the message.
func Trace(msg string, args ...any) {
	L().Log(context.Background(), LevelTrace, msg, args...)
}
