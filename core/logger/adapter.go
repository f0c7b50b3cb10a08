// Package logger is the logging facade used across dbmcp. It forwards to the
// zerolog implementation in infrastructure/logging.
package logger

import (
	"io"

	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
)

const (
	LogLevelError = logging.LogLevelError
	LogLevelWarn  = logging.LogLevelWarn
	LogLevelInfo  = logging.LogLevelInfo
	LogLevelDebug = logging.LogLevelDebug
)

// SetLogLevel sets the global log level
func SetLogLevel(level int) {
	logging.SetLogLevel(level)
}

// GetLogLevel returns the current global log level
func GetLogLevel() int {
	return logging.GetLogLevel()
}

// SetTagFilter sets the tag filter
func SetTagFilter(filterStr string) {
	logging.SetTagFilter(filterStr)
}

// SetOutput redirects log output; nil restores stderr
func SetOutput(w io.Writer) {
	logging.SetOutput(w)
}

// Logger wraps the logging implementation behind a concrete type
type Logger struct {
	impl logging.Logger
}

// New creates a new logger instance with a tag
func New(tag string) *Logger {
	return &Logger{impl: logging.New(tag)}
}

// With returns a logger that adds fields to every entry
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{impl: l.impl.With(fields)}
}

// Error logs at ERROR level
func (l *Logger) Error(message string) { l.impl.Error(message) }

// Errorf logs at ERROR level with formatting
func (l *Logger) Errorf(format string, args ...any) { l.impl.Errorf(format, args...) }

// Warn logs at WARN level
func (l *Logger) Warn(message string) { l.impl.Warn(message) }

// Warnf logs at WARN level with formatting
func (l *Logger) Warnf(format string, args ...any) { l.impl.Warnf(format, args...) }

// Info logs at INFO level
func (l *Logger) Info(message string) { l.impl.Info(message) }

// Infof logs at INFO level with formatting
func (l *Logger) Infof(format string, args ...any) { l.impl.Infof(format, args...) }

// Success logs regardless of log level
func (l *Logger) Success(message string) { l.impl.Success(message) }

// Successf logs regardless of log level
func (l *Logger) Successf(format string, args ...any) { l.impl.Successf(format, args...) }

// Debug logs at DEBUG level
func (l *Logger) Debug(message string) { l.impl.Debug(message) }

// Debugf logs at DEBUG level with formatting
func (l *Logger) Debugf(format string, args ...any) { l.impl.Debugf(format, args...) }

// PrintError logs err under title. Nil errors are ignored.
func (l *Logger) PrintError(title string, err error) {
	if err == nil {
		return
	}
	l.impl.Errorf("%s: %v", title, err)
}
