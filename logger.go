package catalogsearch

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with catalogsearch-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithSession adds the session id and query to the logger.
func (l *Logger) WithSession(s *Session) *Logger {
	return &Logger{
		Logger: l.Logger.With("session", s.ID(), "query", s.Query(), "mode", s.Mode().String()),
	}
}

// WithNode adds a node id field to the logger.
func (l *Logger) WithNode(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("node", id),
	}
}

// LogSearch logs a finished search.
func (l *Logger) LogSearch(ctx context.Context, s *Session, results int, duration time.Duration, err error) {
	switch {
	case err != nil:
		l.WarnContext(ctx, "search failed",
			"session", s.ID(),
			"query", s.Query(),
			"canceled", s.IsCanceled(),
			"duration", duration,
			"error", err,
		)
	case s.IsCanceled():
		l.DebugContext(ctx, "search discarded",
			"session", s.ID(),
			"query", s.Query(),
			"results", results,
		)
	default:
		l.DebugContext(ctx, "search completed",
			"session", s.ID(),
			"query", s.Query(),
			"mode", s.Mode().String(),
			"results", results,
			"duration", duration,
		)
	}
}

// LogResolve logs one resolution attempt.
func (l *Logger) LogResolve(ctx context.Context, id, ref string, duration time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "resolve failed",
			"node", id,
			"ref", ref,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "resolve completed",
			"node", id,
			"ref", ref,
			"duration", duration,
		)
	}
}

// LogSupersede logs a session being canceled by a newer one.
func (l *Logger) LogSupersede(ctx context.Context, prev, next *Session) {
	l.DebugContext(ctx, "search superseded",
		"session", prev.ID(),
		"by", next.ID(),
		"complete", prev.IsComplete(),
	)
}

// LogLevel logs one completed traversal pass.
func (l *Logger) LogLevel(ctx context.Context, depth, evaluated, matched, expanding int) {
	l.DebugContext(ctx, "traversal level",
		"depth", depth,
		"evaluated", evaluated,
		"matched", matched,
		"expanding", expanding,
	)
}
