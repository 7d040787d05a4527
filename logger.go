package bsi

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with index-specific context.
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
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithOp adds an operation field to the logger.
func (l *Logger) WithOp(op Operation) *Logger {
	return &Logger{
		Logger: l.Logger.With("op", op.String()),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogSetValues logs a batch assignment.
func (l *Logger) LogSetValues(ctx context.Context, count, bitDepth int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "set values failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "set values completed",
			"count", count,
			"bit_depth", bitDepth,
		)
	}
}

// LogAdd logs an accumulate operation.
func (l *Logger) LogAdd(ctx context.Context, operandCard uint64, bitDepth int) {
	l.DebugContext(ctx, "add completed",
		"operand_cardinality", operandCard,
		"bit_depth", bitDepth,
	)
}

// LogMerge logs a disjoint merge.
func (l *Logger) LogMerge(ctx context.Context, operandCard uint64, err error) {
	if err != nil {
		l.WarnContext(ctx, "merge rejected",
			"operand_cardinality", operandCard,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "merge completed",
			"operand_cardinality", operandCard,
		)
	}
}

// LogCompare logs a comparison query.
func (l *Logger) LogCompare(ctx context.Context, op Operation, matches uint64, shortCircuit bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "compare failed",
			"op", op.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "compare completed",
			"op", op.String(),
			"matches", matches,
			"short_circuit", shortCircuit,
		)
	}
}

// LogTopK logs a top-k query.
func (l *Logger) LogTopK(ctx context.Context, k int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "topk failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "topk completed",
			"k", k,
		)
	}
}

// LogParallel logs a fanned-out query.
func (l *Logger) LogParallel(ctx context.Context, name string, batches int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "parallel query failed",
			"query", name,
			"batches", batches,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "parallel query completed",
			"query", name,
			"batches", batches,
			"elapsed", elapsed,
		)
	}
}

// LogDecode logs a decode of a serialized index.
func (l *Logger) LogDecode(ctx context.Context, profile Profile, n int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decode failed",
			"profile", profile.String(),
			"bytes", n,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "decode completed",
			"profile", profile.String(),
			"bytes", n,
		)
	}
}

// LogSnapshot logs a snapshot save, load, or delete.
func (l *Logger) LogSnapshot(ctx context.Context, action, name string, version uint64, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot "+action+" failed",
			"name", name,
			"version", version,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot "+action+" completed",
			"name", name,
			"version", version,
			"bytes", size,
		)
	}
}
