package interfaces

// Logger defines the interface for logging operations
type Logger interface {
	// Error logs at ERROR level
	Error(message string)
	// Errorf logs at ERROR level with formatting
	Errorf(format string, args ...any)

	// Warn logs at WARN level
	Warn(message string)
	// Warnf logs at WARN level with formatting
	Warnf(format string, args ...any)

	// Info logs at INFO level
	Info(message string)
	// Infof logs at INFO level with formatting
	Infof(format string, args ...any)

	// Success logs at INFO level but always shows regardless of log level
	Success(message string)
	// Successf logs at INFO level but always shows regardless of log level
	Successf(format string, args ...any)

	// Debug logs at DEBUG level
	Debug(message string)
	// Debugf logs at DEBUG level with formatting
	Debugf(format string, args ...any)

	// With returns a logger that attaches the given fields to every entry
	With(fields map[string]any) Logger
}
