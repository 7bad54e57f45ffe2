// Package log provides structured logging for data preparation and model
// training operations.
//
// The package defines a minimal, slog-compatible logging interface so that
// implementations can be swapped, and ships standard attribute keys for the
// recurring fields of an analysis run (operation, data shape, metrics).
// It integrates with Go's log/slog and with zerolog for warning output.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "KMeans",
//	    log.EstimatorIDKey, "km-001",
//	)
//	logger.Info("Training started",
//	    log.OperationKey, "fit",
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 5,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key-value pairs, as in slog. With returns
// a contextual logger with pre-populated fields, so packages can bind their
// model name once and log tersely afterwards.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error value, it is recorded under the
	// standard error attribute and its stack trace is extracted when one
	// is attached.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given
	// level. Use it to avoid building expensive attributes for records
	// that would be discarded.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. It exists for dependency
// injection, so tests can capture output with a TestLoggerProvider.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger bound to a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers from this provider.
	SetLevel(level Level)
}
