package ragindex

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with ragindex-specific context.
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

// WithRunID adds the ingestion run ID to the logger.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", runID),
	}
}

// WithDocument adds a document ID field to the logger.
func (l *Logger) WithDocument(docID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("document", docID),
	}
}

// LogIngest logs the end of an ingestion run.
func (l *Logger) LogIngest(ctx context.Context, r *Report) {
	attrs := []any{
		"run_id", r.RunID,
		"documents", len(r.Documents),
		"indexed", r.Indexed,
		"partial", r.Partial,
		"failed", r.Failed,
		"failed_segments", r.FailedSegments,
		"duration", r.Duration,
	}
	switch {
	case r.Cancelled:
		l.WarnContext(ctx, "ingest cancelled", attrs...)
	case r.Partial > 0 || r.Failed > 0 || len(r.SourceErrors) > 0:
		l.WarnContext(ctx, "ingest completed with failures", append(attrs, "source_errors", len(r.SourceErrors))...)
	default:
		l.InfoContext(ctx, "ingest completed", attrs...)
	}
}

// LogDocument logs the outcome of one document.
func (l *Logger) LogDocument(ctx context.Context, r *DocumentReport) {
	switch r.State {
	case StateIndexed:
		l.DebugContext(ctx, "document indexed",
			"document", r.DocumentID,
			"segments", r.Segments,
		)
	default:
		l.WarnContext(ctx, "document not fully indexed",
			"document", r.DocumentID,
			"state", r.State,
			"segments", r.Segments,
			"indexed_segments", r.IndexedSegments,
			"error", r.Err,
		)
	}
}

// LogBatch logs one embedding attempt.
func (l *Logger) LogBatch(ctx context.Context, batch, size, attempt int, err error) {
	if err != nil {
		l.WarnContext(ctx, "embedding batch failed",
			"batch", batch,
			"size", size,
			"attempt", attempt,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "embedding batch completed",
			"batch", batch,
			"size", size,
			"attempt", attempt,
		)
	}
}

// LogInsert logs an index insert.
func (l *Logger) LogInsert(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"count", count,
		)
	}
}

// LogQuery logs a query.
func (l *Logger) LogQuery(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogSave logs a save to a file or blob.
func (l *Logger) LogSave(ctx context.Context, target string, entries int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"target", target,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index saved",
			"target", target,
			"entries", entries,
			"duration", d,
		)
	}
}

// LogLoad logs loading a persisted index.
func (l *Logger) LogLoad(ctx context.Context, source string, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"source", source,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index loaded",
			"source", source,
			"entries", entries,
		)
	}
}
