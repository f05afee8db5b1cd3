package logger

import (
	"context"
	"time"
)

// Entry carries metric fields (duration_ms, count, size, status) for a single
// log line, on top of whatever tracing fields the context logger already has.
//
// Example:
//
//	logger.With(logger.Fields{logger.FieldCount: 42}).Info(ctx, "Templates refreshed")
type Entry struct {
	logger *Logger
	fields Fields
}

// With creates a new Entry with the given metric fields.
func With(fields Fields) *Entry {
	return &Entry{
		logger: GetDefault(),
		fields: fields,
	}
}

// With adds more fields to an existing Entry.
func (e *Entry) With(fields Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(fields))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Entry{logger: e.logger, fields: merged}
}

// WithDuration adds a duration_ms field measured from start.
func (e *Entry) WithDuration(start time.Time) *Entry {
	return e.With(Fields{FieldDurationMs: time.Since(start).Milliseconds()})
}

// WithCount adds a count field to the Entry.
func (e *Entry) WithCount(count int) *Entry {
	return e.With(Fields{FieldCount: count})
}

// WithSize adds a size field to the Entry.
func (e *Entry) WithSize(size int) *Entry {
	return e.With(Fields{FieldSize: size})
}

func (e *Entry) resolve(ctx context.Context) *Logger {
	if ctx != nil {
		return FromContext(ctx).WithFields(e.fields)
	}
	return e.logger.WithFields(e.fields)
}

// Debug logs at Debug level with metric fields.
func (e *Entry) Debug(ctx context.Context, format string, args ...interface{}) {
	e.resolve(ctx).Debugf(format, args...)
}

// Info logs at Info level with metric fields.
func (e *Entry) Info(ctx context.Context, format string, args ...interface{}) {
	e.resolve(ctx).Infof(format, args...)
}

// Warn logs at Warn level with metric fields.
func (e *Entry) Warn(ctx context.Context, format string, args ...interface{}) {
	e.resolve(ctx).Warnf(format, args...)
}

// Error logs at Error level with metric fields.
func (e *Entry) Error(ctx context.Context, format string, args ...interface{}) {
	e.resolve(ctx).Errorf(format, args...)
}
