package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/hyperterse/dbmcp/core/domain/interfaces"
)

const (
	LogLevelError = 1
	LogLevelWarn  = 2
	LogLevelInfo  = 3
	LogLevelDebug = 4
)

var (
	globalLogLevel = LogLevelInfo
	logLevelMutex  sync.RWMutex

	// Tag filtering
	tagFilter      []string
	tagFilterMutex sync.RWMutex

	// stdout carries the MCP stdio transport, so logs always go to stderr.
	logWriter      io.Writer = os.Stderr
	logWriterMutex sync.RWMutex
)

// SetLogLevel sets the global log level
func SetLogLevel(level int) {
	logLevelMutex.Lock()
	defer logLevelMutex.Unlock()
	if level >= LogLevelError && level <= LogLevelDebug {
		globalLogLevel = level
		zerolog.SetGlobalLevel(convertLogLevel(level))
	}
}

// GetLogLevel returns the current global log level
func GetLogLevel() int {
	logLevelMutex.RLock()
	defer logLevelMutex.RUnlock()
	return globalLogLevel
}

// SetOutput redirects every logger created afterwards to w. A nil writer
// restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logWriterMutex.Lock()
	defer logWriterMutex.Unlock()
	logWriter = w
}

func output() io.Writer {
	logWriterMutex.RLock()
	defer logWriterMutex.RUnlock()
	return logWriter
}

// SetTagFilter sets the tag filter from a comma-separated string.
// A leading '-' excludes a tag.
func SetTagFilter(filterStr string) {
	tagFilterMutex.Lock()
	defer tagFilterMutex.Unlock()

	if filterStr == "" {
		tagFilter = nil
		return
	}

	tags := strings.Split(filterStr, ",")
	tagFilter = make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tagFilter = append(tagFilter, tag)
		}
	}
}

// shouldLogTag checks if a tag should be logged based on the filter
func shouldLogTag(tag string) bool {
	tagFilterMutex.RLock()
	defer tagFilterMutex.RUnlock()

	if len(tagFilter) == 0 {
		return true
	}

	hasInclusion := false
	for _, filterTag := range tagFilter {
		if excludeTag, ok := strings.CutPrefix(filterTag, "-"); ok {
			if tag == excludeTag || strings.HasPrefix(tag, excludeTag+":") {
				return false
			}
			continue
		}
		hasInclusion = true
	}
	if !hasInclusion {
		return true
	}

	for _, filterTag := range tagFilter {
		if strings.HasPrefix(filterTag, "-") {
			continue
		}
		if tag == filterTag || strings.HasPrefix(tag, filterTag+":") {
			return true
		}
	}
	return false
}

// ZerologLogger implements the Logger interface using zerolog
type ZerologLogger struct {
	tag    string
	logger zerolog.Logger
}

// Logger is the interface exported from this package
type Logger = interfaces.Logger

// New creates a new logger instance with a tag
func New(tag string) Logger {
	if !shouldLogTag(tag) {
		return &noOpLogger{}
	}

	w := output()
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02T15:04:05.000Z"}
	}

	return &ZerologLogger{
		tag:    tag,
		logger: zerolog.New(w).With().Timestamp().Str("tag", tag).Logger(),
	}
}

// convertLogLevel converts our log level to zerolog level
func convertLogLevel(level int) zerolog.Level {
	switch level {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) enabled(level int) bool {
	logLevelMutex.RLock()
	defer logLevelMutex.RUnlock()
	return level <= globalLogLevel
}

// Error logs at ERROR level
func (l *ZerologLogger) Error(message string) {
	if l.enabled(LogLevelError) {
		l.logger.Error().Msg(message)
	}
}

// Errorf logs at ERROR level with formatting
func (l *ZerologLogger) Errorf(format string, args ...any) {
	if l.enabled(LogLevelError) {
		l.logger.Error().Msgf(format, args...)
	}
}

// Warn logs at WARN level
func (l *ZerologLogger) Warn(message string) {
	if l.enabled(LogLevelWarn) {
		l.logger.Warn().Msg(message)
	}
}

// Warnf logs at WARN level with formatting
func (l *ZerologLogger) Warnf(format string, args ...any) {
	if l.enabled(LogLevelWarn) {
		l.logger.Warn().Msgf(format, args...)
	}
}

// Info logs at INFO level
func (l *ZerologLogger) Info(message string) {
	if l.enabled(LogLevelInfo) {
		l.logger.Info().Msg(message)
	}
}

// Infof logs at INFO level with formatting
func (l *ZerologLogger) Infof(format string, args ...any) {
	if l.enabled(LogLevelInfo) {
		l.logger.Info().Msgf(format, args...)
	}
}

// Success logs regardless of log level
func (l *ZerologLogger) Success(message string) {
	l.logger.WithLevel(zerolog.NoLevel).Str("status", "success").Msg(message)
}

// Successf logs regardless of log level
func (l *ZerologLogger) Successf(format string, args ...any) {
	l.logger.WithLevel(zerolog.NoLevel).Str("status", "success").Msgf(format, args...)
}

// Debug logs at DEBUG level
func (l *ZerologLogger) Debug(message string) {
	if l.enabled(LogLevelDebug) {
		l.logger.Debug().Msg(message)
	}
}

// Debugf logs at DEBUG level with formatting
func (l *ZerologLogger) Debugf(format string, args ...any) {
	if l.enabled(LogLevelDebug) {
		l.logger.Debug().Msgf(format, args...)
	}
}

// With returns a child logger carrying fields.
func (l *ZerologLogger) With(fields map[string]any) Logger {
	return &ZerologLogger{
		tag:    l.tag,
		logger: l.logger.With().Fields(fields).Logger(),
	}
}

// noOpLogger is a no-op logger for filtered tags
type noOpLogger struct{}

func (n *noOpLogger) Error(string)               {}
func (n *noOpLogger) Errorf(string, ...any)      {}
func (n *noOpLogger) Warn(string)                {}
func (n *noOpLogger) Warnf(string, ...any)       {}
func (n *noOpLogger) Info(string)                {}
func (n *noOpLogger) Infof(string, ...any)       {}
func (n *noOpLogger) Success(string)             {}
func (n *noOpLogger) Successf(string, ...any)    {}
func (n *noOpLogger) Debug(string)               {}
func (n *noOpLogger) Debugf(string, ...any)      {}
func (n *noOpLogger) With(map[string]any) Logger { return n }
