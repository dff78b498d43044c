package logging

import (
	"bytes"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// AppLogger wraps a charm logger. It always writes to stderr by default:
// stdout carries the MCP stdio stream.
type AppLogger struct {
	logger *log.Logger
}

type Options struct {
	Level  string
	Format string // text or json
	Prefix string
	Writer io.Writer
}

var (
	defaultLogger *AppLogger
	mu            sync.RWMutex
)

// GetDefault returns the process logger, creating an info-level one on first use.
func GetDefault() *AppLogger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger, _ = New(Options{Level: "info"})
	}
	return defaultLogger
}

// SetDefault replaces the process logger used by the package-level helpers.
func SetDefault(l *AppLogger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// Package-level convenience functions
func Info(msg string, keyvals ...interface{}) {
	GetDefault().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	GetDefault().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	GetDefault().Error(msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	GetDefault().Debug(msg, keyvals...)
}

func Fatal(msg string, keyvals ...interface{}) {
	GetDefault().Fatal(msg, keyvals...)
}

func New(opts Options) (*AppLogger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "contractreview"
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})

	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		logger.SetFormatter(log.TextFormatter)
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	default:
		return nil, fmt.Errorf("log format %q: want text or json", opts.Format)
	}

	return &AppLogger{logger: logger}, nil
}

func (al *AppLogger) Info(msg string, keyvals ...interface{}) {
	al.logger.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...interface{}) {
	al.logger.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...interface{}) {
	al.logger.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...interface{}) {
	al.logger.Debug(msg, keyvals...)
}

func (al *AppLogger) Fatal(msg string, keyvals ...interface{}) {
	al.logger.Fatal(msg, keyvals...)
}

// With returns a child logger that adds keyvals to every entry.
func (al *AppLogger) With(keyvals ...interface{}) *AppLogger {
	return &AppLogger{logger: al.logger.With(keyvals...)}
}

// LogPerformance records how long an operation took at debug level.
func (al *AppLogger) LogPerformance(operation string, start time.Time) {
	al.logger.Debug("Performance",
		"operation", operation,
		"duration", time.Since(start),
	)
}

// StdLogger adapts the logger for APIs that take a *log.Logger, such as
// http.Server.ErrorLog.
func (al *AppLogger) StdLogger() *stdlog.Logger {
	return al.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})
}

// NewTestLogger creates a logger that writes to a buffer for testing
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
		Prefix:          "Test",
	})
	logger.SetLevel(log.DebugLevel)

	return &AppLogger{logger: logger}, &buf
}
