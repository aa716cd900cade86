package agriknn

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with agriknn-specific context.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to w.
// A nil writer means stderr.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs to w.
// A nil writer means stderr.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithRunID tags every line with the identifier of one run.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithStrategy adds a strategy field to the logger.
func (l *Logger) WithStrategy(s Strategy) *Logger {
	return &Logger{
		Logger: l.Logger.With("strategy", s.String()),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// LogBuild logs the construction of an LSH index.
func (l *Logger) LogBuild(ctx context.Context, records, bands int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"records", records,
			"bands", bands,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index built",
			"records", records,
			"bands", bands,
		)
	}
}

// LogSearch logs a neighbor computation over a whole collection.
func (l *Logger) LogSearch(ctx context.Context, strategy Strategy, queries, k, short int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"strategy", strategy.String(),
			"k", k,
			"error", err,
		)
		return
	}
	if short > 0 {
		l.WarnContext(ctx, "search completed with short results",
			"strategy", strategy.String(),
			"queries", queries,
			"k", k,
			"short", short,
		)
	} else {
		l.InfoContext(ctx, "search completed",
			"strategy", strategy.String(),
			"queries", queries,
			"k", k,
		)
	}
}

// LogCompare logs the quality of approximate results against exact ones.
func (l *Logger) LogCompare(ctx context.Context, k int, recall, precision float64) {
	l.InfoContext(ctx, "comparison completed",
		"k", k,
		"recall", recall,
		"precision", precision,
	)
}
