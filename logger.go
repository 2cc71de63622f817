package fidgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with fidgo-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPopulation adds a population label ("real"/"generated") to the logger.
func (l *Logger) WithPopulation(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("population", name),
	}
}

// WithDimension adds a feature-dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithSampleCount adds a sample-count field to the logger.
func (l *Logger) WithSampleCount(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("sample_count", n),
	}
}

// LogIngest logs one batch ingestion.
func (l *Logger) LogIngest(ctx context.Context, population string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed",
			"population", population,
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "ingest completed",
			"population", population,
			"count", count,
		)
	}
}

// LogFinalize logs the finalization of one population's statistics.
func (l *Logger) LogFinalize(ctx context.Context, population string, n, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "finalize failed",
			"population", population,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "population finalized",
			"population", population,
			"n", n,
			"dimension", dimension,
		)
	}
}

// LogEvaluate logs one distance evaluation.
func (l *Logger) LogEvaluate(ctx context.Context, distance float64, corrected bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluate failed",
			"error", err,
		)
	} else if corrected {
		l.WarnContext(ctx, "evaluate completed with complex correction",
			"distance", distance,
		)
	} else {
		l.InfoContext(ctx, "evaluate completed",
			"distance", distance,
		)
	}
}

// LogCacheLoad logs a reference-statistics load.
func (l *Logger) LogCacheLoad(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reference load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "reference loaded",
			"name", name,
		)
	}
}

// LogCacheSave logs a reference-statistics save.
func (l *Logger) LogCacheSave(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reference save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "reference saved",
			"name", name,
		)
	}
}
