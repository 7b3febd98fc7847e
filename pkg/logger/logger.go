// Package logger provides structured logging utilities
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds logger configuration
type Config struct {
	Level      string `yaml:"level" mapstructure:"level"`             // debug, info, warn, error, fatal
	Format     string `yaml:"format" mapstructure:"format"`           // text or json
	Output     string `yaml:"output" mapstructure:"output"`           // stdout, stderr, discard or file path
	TimeFormat string `yaml:"time_format" mapstructure:"time_format"` // RFC3339, RFC3339Nano, etc
}

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	return l
}

// Init initializes the logger with configuration
func Init(cfg Config) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	std.SetLevel(level)

	timeFormat := strings.TrimSpace(cfg.TimeFormat)
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timeFormat})
	default:
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timeFormat})
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "", "stderr":
		std.SetOutput(os.Stderr)
	case "stdout":
		std.SetOutput(os.Stdout)
	case "discard", "none":
		std.SetOutput(io.Discard)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			std.SetOutput(os.Stderr)
			std.Warnf("logger: failed to open log file %s: %v", cfg.Output, err)
			return
		}
		std.SetOutput(f)
	}
}

// SetOutput redirects log output; tests use it to capture entries
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Debug logs debug message (only shown when level=debug)
func Debug(msg string) {
	std.Debug(msg)
}

// Debugf logs formatted debug message
func Debugf(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

// Info logs info message
func Info(msg string) {
	std.Info(msg)
}

// Infof logs formatted info message
func Infof(format string, args ...interface{}) {
	std.Infof(format, args...)
}

// Warn logs warning message
func Warn(msg string) {
	std.Warn(msg)
}

// Warnf logs formatted warning message
func Warnf(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

// Error logs error message
func Error(msg string) {
	std.Error(msg)
}

// Errorf logs formatted error message
func Errorf(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// Fatalf logs formatted fatal message and exits
func Fatalf(format string, args ...interface{}) {
	std.Fatalf(format, args...)
}

// FieldLogger allows structured logging with fields
type FieldLogger struct {
	entry *logrus.Entry
}

// WithFields returns a log message with structured fields
func WithFields(fields map[string]interface{}) *FieldLogger {
	return &FieldLogger{entry: std.WithFields(logrus.Fields(fields))}
}

// WithError attaches err under the "error" field
func (l *FieldLogger) WithError(err error) *FieldLogger {
	return &FieldLogger{entry: l.entry.WithError(err)}
}

func (l *FieldLogger) Debug(msg string) {
	l.entry.Debug(msg)
}

func (l *FieldLogger) Info(msg string) {
	l.entry.Info(msg)
}

func (l *FieldLogger) Warn(msg string) {
	l.entry.Warn(msg)
}

func (l *FieldLogger) Error(msg string) {
	l.entry.Error(msg)
}

// Domain helpers

// Comment logs a comment lifecycle event (created, confirmed, rolled_back, deleted)
func Comment(event string, articleID int64, commentID string) {
	WithFields(map[string]interface{}{
		"component":  "comments",
		"event":      event,
		"article_id": articleID,
		"comment_id": commentID,
	}).Debug(fmt.Sprintf("comment %s %s", commentID, event))
}

// Reaction logs a reaction toggle outcome
func Reaction(target, from, to string, err error) {
	l := WithFields(map[string]interface{}{
		"component": "reaction",
		"target":    target,
		"from":      from,
		"to":        to,
	})
	if err != nil {
		l.WithError(err).Warn(fmt.Sprintf("reaction on %s rolled back", target))
		return
	}
	l.Debug(fmt.Sprintf("reaction on %s: %s -> %s", target, from, to))
}

// HTTP logs HTTP protocol activity
func HTTP(method, path string, status, latencyMs int) {
	WithFields(map[string]interface{}{
		"protocol": "http",
		"method":   method,
		"path":     path,
		"status":   status,
		"latency":  latencyMs,
	}).Info(fmt.Sprintf("HTTP %s %s %d - %dms", method, path, status, latencyMs))
}

// Context-aware logging (for request tracing)
type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID stores a request id for later log lines
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithRequestID extracts request ID from context and logs with it
func WithRequestID(ctx context.Context) *FieldLogger {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return WithFields(map[string]interface{}{
			"request_id": requestID,
		})
	}
	return WithFields(nil)
}
