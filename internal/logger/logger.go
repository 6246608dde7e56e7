// Package logger provides a structured, module-aware logging system built on Go's standard log/slog.
//
// Components receive a module-scoped Logger, usually through a package level
// GetLogger helper:
//
//	log := logger.Global().Module("archive")
//	log.Info("export completed",
//	    logger.String("path", archivePath),
//	    logger.Int("trees", len(doc.Trees)))
//
// Console output is human-readable text, file output is JSON. Per-module
// levels are configured with LoggingConfig.ModuleLevels:
//
//	logging:
//	  default_level: info
//	  console:
//	    enabled: true
//	  file_output:
//	    enabled: true
//	    path: logs/bonsai.log
//	  module_levels:
//	    datastore: debug
//
// Use NewSlogLogger with a buffer or io.Discard in tests.
package logger

import (
	"context"
	"time"
)

// LogLevel represents log severity levels
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// Logger is the centralized logging interface for dependency injection
type Logger interface {
	// Module returns a logger scoped to a specific module
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	// Log with explicit level
	Log(level LogLevel, msg string, fields ...Field)

	// Flush ensures all buffered logs are written
	Flush() error
}

// String creates a string field for structured logging.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field for structured logging.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates a 64-bit integer field for structured logging.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Uint creates an unsigned integer field, used for database identifiers.
func Uint(key string, value uint) Field {
	return Field{Key: key, Value: value}
}

// Uint64 creates an unsigned 64-bit integer field, used for byte counts.
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a 64-bit float field for structured logging.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field for structured logging.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an error field. The key is always "error".
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey, Value: nil}
	}
	return Field{Key: errorKey, Value: RedactSensitiveData(err.Error())}
}

// Duration creates a duration field for structured logging.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Time creates a time field for structured logging.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field with any value. Prefer the typed constructors.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

const (
	errorKey   = "error"
	moduleKey  = "module"
	traceIDKey = "trace_id"
)
