// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides structured logging for opsforge on top of
// log/slog. All components log through a *Logger so output format and
// level are controlled in one place.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// =============================================================================
// FORMAT
// =============================================================================

// Format selects the log output encoding.
type Format int

const (
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = iota

	// FormatText emits human-readable key=value lines.
	FormatText
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	default:
		return "json"
	}
}

// ParseFormat parses a string into a Format. Unknown values fall back
// to JSON.
func ParseFormat(s string) Format {
	switch s {
	case "text", "TEXT", "console":
		return FormatText
	default:
		return FormatJSON
	}
}

// =============================================================================
// CONFIG
// =============================================================================

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level to emit.
	Level Level

	// Format is the output encoding.
	Format Format

	// Output is where log lines are written.
	Output io.Writer

	// AddSource includes the source file and line in each entry.
	AddSource bool
}

// DefaultConfig logs at INFO in JSON to stderr. Stdout stays free for
// command output.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// =============================================================================
// LOGGER
// =============================================================================

// Logger wraps slog with opsforge conventions.
type Logger struct {
	slog   *slog.Logger
	level  *slog.LevelVar
	config Config
}

// New creates a Logger from config.
func New(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	level := new(slog.LevelVar)
	level.Set(config.Level.ToSlogLevel())

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output, opts)
	default:
		handler = slog.NewJSONHandler(config.Output, opts)
	}

	return &Logger{
		slog:   slog.New(handler),
		level:  level,
		config: config,
	}
}

// Default creates a logger with the default configuration.
func Default() *Logger {
	return New(DefaultConfig())
}

// Nop creates a logger that discards everything. Useful in tests and as
// a safe fallback for optional logger parameters.
func Nop() *Logger {
	return New(Config{Level: LevelError, Format: FormatJSON, Output: io.Discard})
}

// SetLevel changes the minimum level at runtime. The change applies to
// this logger and every logger derived from it with With.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level.ToSlogLevel())
	l.config.Level = level
}

// With returns a Logger with the given attributes added to every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		level:  l.level,
		config: l.config,
	}
}

// WithError returns a Logger carrying the error as an attribute. A nil
// error returns the receiver unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With("error", err.Error())
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// Config returns the logger configuration.
func (l *Logger) Config() Config {
	return l.config
}
