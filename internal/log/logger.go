package log

import (
	"context"
	"io"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus/ctxlogrus"
	"github.com/sirupsen/logrus"
)

// Fields contains key-value pairs of structured logging data.
type Fields = logrus.Fields

// Logger is the logging type used by folio.
type Logger interface {
	WithField(key string, value any) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger

	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	DebugContext(ctx context.Context, msg string)
	InfoContext(ctx context.Context, msg string)
	WarnContext(ctx context.Context, msg string)
	ErrorContext(ctx context.Context, msg string)

	// ToContext injects the logger into the context so that fields added via AddFields are
	// picked up by the *Context methods.
	ToContext(ctx context.Context) context.Context
}

// LogrusLogger implements Logger on top of a logrus entry. Loggers derived from one another
// share a mutex so that they can be used from multiple goroutines.
type LogrusLogger struct {
	entry *logrus.Entry
	mu    *sync.Mutex
}

// FromLogrusEntry constructs a new logger from a `logrus.Entry`.
func FromLogrusEntry(entry *logrus.Entry) LogrusLogger {
	return LogrusLogger{entry: entry, mu: &sync.Mutex{}}
}

// Discard returns a logger that drops every message.
func Discard() LogrusLogger {
	logger := logrus.New() //nolint:forbidigo
	logger.Out = io.Discard
	return FromLogrusEntry(logrus.NewEntry(logger))
}

// LogrusEntry returns the `logrus.Entry` that backs this logger.
func (l LogrusLogger) LogrusEntry() *logrus.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entry
}

func (l LogrusLogger) derive(with func(*logrus.Entry) *logrus.Entry) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LogrusLogger{entry: with(l.entry), mu: l.mu}
}

// WithField creates a new logger with the given field appended.
func (l LogrusLogger) WithField(key string, value any) Logger {
	return l.derive(func(e *logrus.Entry) *logrus.Entry { return e.WithField(key, value) })
}

// WithFields creates a new logger with the given fields appended.
func (l LogrusLogger) WithFields(fields Fields) Logger {
	return l.derive(func(e *logrus.Entry) *logrus.Entry { return e.WithFields(fields) })
}

// WithError creates a new logger with an appended error field.
func (l LogrusLogger) WithError(err error) Logger {
	return l.derive(func(e *logrus.Entry) *logrus.Entry { return e.WithError(err) })
}

func (l LogrusLogger) emit(ctx context.Context, level logrus.Level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entry.WithFields(ctxlogrus.Extract(ctx).Data).Log(level, msg)
}

// Debug writes a log message at debug level.
func (l LogrusLogger) Debug(msg string) { l.emit(context.Background(), logrus.DebugLevel, msg) }

// Info writes a log message at info level.
func (l LogrusLogger) Info(msg string) { l.emit(context.Background(), logrus.InfoLevel, msg) }

// Warn writes a log message at warn level.
func (l LogrusLogger) Warn(msg string) { l.emit(context.Background(), logrus.WarnLevel, msg) }

// Error writes a log message at error level.
func (l LogrusLogger) Error(msg string) { l.emit(context.Background(), logrus.ErrorLevel, msg) }

// DebugContext writes a log message at debug level, including the fields added to ctx via
// AddFields.
func (l LogrusLogger) DebugContext(ctx context.Context, msg string) {
	l.emit(ctx, logrus.DebugLevel, msg)
}

// InfoContext writes a log message at info level, including the fields added to ctx via
// AddFields.
func (l LogrusLogger) InfoContext(ctx context.Context, msg string) {
	l.emit(ctx, logrus.InfoLevel, msg)
}

// WarnContext writes a log message at warn level, including the fields added to ctx via
// AddFields.
func (l LogrusLogger) WarnContext(ctx context.Context, msg string) {
	l.emit(ctx, logrus.WarnLevel, msg)
}

// ErrorContext writes a log message at error level, including the fields added to ctx via
// AddFields.
func (l LogrusLogger) ErrorContext(ctx context.Context, msg string) {
	l.emit(ctx, logrus.ErrorLevel, msg)
}

// ToContext injects the logger into ctx so that FromContext and the *Context methods can find it.
func (l LogrusLogger) ToContext(ctx context.Context) context.Context {
	return ctxlogrus.ToContext(ctx, l.LogrusEntry())
}

// FromContext extracts the logger from the context. A context without a logger yields a
// logger that discards its output.
func FromContext(ctx context.Context) LogrusLogger {
	return FromLogrusEntry(ctxlogrus.Extract(ctx))
}

// AddFields adds fields to the logger stored in ctx. The context must have been prepared via
// ToContext.
func AddFields(ctx context.Context, fields Fields) {
	ctxlogrus.AddFields(ctx, fields)
}
