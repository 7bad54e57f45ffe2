package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(msg string, fields ...any) {
	l.logger.Debug(msg, fields...)
}

func (l *slogLogger) Info(msg string, fields ...any) {
	l.logger.Info(msg, fields...)
}

func (l *slogLogger) Warn(msg string, fields ...any) {
	l.logger.Warn(msg, fields...)
}

func (l *slogLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			args := append([]any{ErrAttr(err)}, fields[1:]...)
			l.logger.Error(msg, args...)
			return
		}
	}
	l.logger.Error(msg, fields...)
}

func (l *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: l.logger.With(fields...)}
}

func (l *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return l.logger.Enabled(ctx, slog.Level(level))
}

// slogProvider is the default LoggerProvider, emitting JSON records to
// standard error so that data output on standard out stays clean.
type slogProvider struct {
	level  *slog.LevelVar
	logger *slog.Logger
}

func newSlogProvider() *slogProvider {
	levelVar := &slog.LevelVar{}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelVar,
	}))
	return &slogProvider{
		level:  levelVar,
		logger: slog.New(handler),
	}
}

func (p *slogProvider) GetLogger() Logger {
	return &slogLogger{logger: p.logger}
}

func (p *slogProvider) GetLoggerWithName(name string) Logger {
	return &slogLogger{logger: p.logger.With(ComponentKey, name)}
}

func (p *slogProvider) SetLevel(level Level) {
	p.level.Set(slog.Level(level))
}

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider = newSlogProvider()
)

// GetLogger returns the default logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns a logger bound to a component name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLoggerWithName(name)
}

// SetProvider replaces the default LoggerProvider. Tests use this to capture
// log output with a TestLoggerProvider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

// SetLevel sets the minimum level on the default provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	defaultProvider.SetLevel(level)
}

// SetupLogger configures the process-wide slog default and the package
// provider level, and installs the zerolog warning sink. Call it once from
// the command entry point.
func SetupLogger(loglevel string) {
	level := ToLogLevel(loglevel)

	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))

	SetLevel(Level(level))
	InstallWarningSink(os.Stderr)
}

// ToLogLevel converts a level name to a slog.Level. It panics on an unknown
// name, so callers validate user input first.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// InstallWarningSink routes toolkit warnings (ConvergenceWarning and the
// like) through a zerolog logger writing to w. Warnings that implement
// zerolog.LogObjectMarshaler are logged with their structured fields.
func InstallWarningSink(w *os.File) {
	zl := zerolog.New(w).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			zl.Warn().Object("warning", obj).Msg(warning.Error())
			return
		}
		zl.Warn().Msg(warning.Error())
	})
}
