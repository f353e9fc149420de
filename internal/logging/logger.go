// Package logging provides the structured logging surface shared by the
// promptpilot packages.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel controls logger verbosity. Levels are ordered from quietest to
// most verbose so that comparisons read naturally.
type LogLevel int

const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Logger is the logging interface used across the engine. Arguments after
// the message are alternating key/value pairs, as with log/slog.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	SetLevel(level LogLevel)
}

// DefaultLogger writes structured text records to stderr via log/slog.
type DefaultLogger struct {
	logger  *slog.Logger
	level   LogLevel
	slogVar *slog.LevelVar
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger that emits records at or above level.
func NewLogger(level LogLevel) *DefaultLogger {
	return newLogger(os.Stderr, level)
}

func newLogger(w io.Writer, level LogLevel) *DefaultLogger {
	slogVar := new(slog.LevelVar)
	slogVar.Set(slogLevel(level))
	opts := &slog.HandlerOptions{
		Level: slogVar,
	}
	return &DefaultLogger{
		logger:  slog.New(slog.NewTextHandler(w, opts)),
		level:   level,
		slogVar: slogVar,
	}
}

// SetLevel adjusts both the local threshold and the slog handler, so
// verbosity can be raised as well as lowered after construction.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
	l.slogVar.Set(slogLevel(level))
}

func (l *DefaultLogger) Debug(msg string, keysAndValues ...any) {
	if l.level >= LogLevelDebug {
		l.logger.Debug(msg, keysAndValues...)
	}
}

func (l *DefaultLogger) Info(msg string, keysAndValues ...any) {
	if l.level >= LogLevelInfo {
		l.logger.Info(msg, keysAndValues...)
	}
}

func (l *DefaultLogger) Warn(msg string, keysAndValues ...any) {
	if l.level >= LogLevelWarn {
		l.logger.Warn(msg, keysAndValues...)
	}
}

func (l *DefaultLogger) Error(msg string, keysAndValues ...any) {
	if l.level >= LogLevelError {
		l.logger.Error(msg, keysAndValues...)
	}
}

func (l *LogLevel) String() string {
	return [...]string{"OFF", "ERROR", "WARN", "INFO", "DEBUG"}[*l]
}

// UnmarshalText lets LogLevel be parsed directly from environment variables.
func (l *LogLevel) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "OFF":
		*l = LogLevelOff
	case "ERROR":
		*l = LogLevelError
	case "WARN":
		*l = LogLevelWarn
	case "INFO":
		*l = LogLevelInfo
	case "DEBUG":
		*l = LogLevelDebug
	default:
		return fmt.Errorf("invalid log level: %s", string(text))
	}
	return nil
}
