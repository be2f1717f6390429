// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// SubmissionKeyKey is the context key for the submission business key
	SubmissionKeyKey contextKey = "submission_key"
	// TaskIDKey is the context key for the asynq task ID
	TaskIDKey contextKey = "task_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports submission_key and task_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if key, ok := ctx.Value(SubmissionKeyKey).(string); ok && key != "" {
		newLogger = newLogger.WithSubmissionKey(key)
	}

	if taskID, ok := ctx.Value(TaskIDKey).(string); ok && taskID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("task_id", taskID)),
		}
	}

	return newLogger
}

// WithSubmissionKey returns a logger with the submission business key attached.
func (l *Logger) WithSubmissionKey(key string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("submission_key", key)),
	}
}

// ForwardStep logs a completed step of a forwarding invocation.
func (l *Logger) ForwardStep(submissionKey, step string, durationMs float64) {
	l.Info("forward_step",
		slog.String("submission_key", submissionKey),
		slog.String("step", step),
		slog.Float64("duration_ms", durationMs),
	)
}

// ForwardError logs a failed step of a forwarding invocation.
func (l *Logger) ForwardError(submissionKey, step string, err error) {
	l.Error("forward_error",
		slog.String("submission_key", submissionKey),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
}

// ZGWRequest logs an outbound ZGW API call.
func (l *Logger) ZGWRequest(method, path string, status int, latencyMs float64) {
	l.Debug("zgw_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
