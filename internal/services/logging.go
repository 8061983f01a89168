package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// LogConfig labels every record a ServiceLogger writes
type LogConfig struct {
	Service   string
	Component string
}

// ServiceLogger provides structured logging for engine operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
	}
}

// ===== OPERATION LOGGING =====

// LogOperation logs the outcome of a run-level operation
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, runID string, duration time.Duration, err error, attrs ...slog.Attr) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"
		if IsConflict(err) {
			level = slog.LevelWarn
			status = "conflict"
		} else if IsConfiguration(err) {
			status = "configuration_error"
		}
	}

	base := []slog.Attr{
		slog.String("operation", operation),
		slog.String("run_id", runID),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}
	if err != nil {
		base = append(base, slog.String("error", err.Error()))
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), append(base, attrs...)...)
}

// LogSkipped records a record-level failure. The run continues.
func (l *ServiceLogger) LogSkipped(ctx context.Context, err error) {
	attrs := []slog.Attr{slog.String("reason", err.Error())}

	var re *RecordError
	if errors.As(err, &re) {
		attrs = append(attrs, slog.String("key", re.Key))
		if re.Dataset != "" {
			attrs = append(attrs, slog.String("dataset", re.Dataset))
		}
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "Record skipped", attrs...)
}

// LogDatasetExported logs one replaced export file
func (l *ServiceLogger) LogDatasetExported(ctx context.Context, dataset, path string, entries, skippedLines int) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, "Dataset export updated",
		slog.String("dataset", dataset),
		slog.String("path", path),
		slog.Int("entries", entries),
		slog.Int("skipped_lines", skippedLines),
	)
}

// LogSideEffectFailure logs a failure that must not fail the run
func (l *ServiceLogger) LogSideEffectFailure(ctx context.Context, effect string, err error) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, fmt.Sprintf("%s failed", effect),
		slog.String("effect", effect),
		slog.String("error", err.Error()),
	)
}
