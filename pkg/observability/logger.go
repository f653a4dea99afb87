package observability

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/menuguard/pkg/contextkeys"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	return []string{"DEBUG", "INFO", "WARN", "ERROR"}[l]
}

func (l LogLevel) toLogrusLevel() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLogLevel converts a level name such as "debug" or "WARN" to a LogLevel.
// Unknown names map to InfoLevel.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides structured JSON logging backed by logrus
type Logger struct {
	entry *logrus.Entry
	level LogLevel
}

// NewLogger creates a new structured logger writing JSON lines to output
func NewLogger(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(level.toLogrusLevel())
	base.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})

	return &Logger{
		entry: logrus.NewEntry(base),
		level: level,
	}
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value), level: l.level}
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields)), level: l.level}
}

// WithError adds an error to the logger context
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// Level returns the configured minimum level
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) Debug(message string) { l.entry.Debug(message) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *Logger) Info(message string) { l.entry.Info(message) }

func (l *Logger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *Logger) Warn(message string) { l.entry.Warn(message) }

func (l *Logger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *Logger) Error(message string) { l.entry.Error(message) }

func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(contextkeys.RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithUsername adds the authenticated username to the context
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextkeys.UsernameKey, username)
}

// GetUsername retrieves the authenticated username from context
func GetUsername(ctx context.Context) string {
	if username, ok := ctx.Value(contextkeys.UsernameKey).(string); ok {
		return username
	}
	return ""
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextkeys.LoggerKey, logger)
}

// GetLogger retrieves the logger from context
func GetLogger(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextkeys.LoggerKey).(*Logger); ok {
		return logger
	}
	return NewLogger(InfoLevel, os.Stdout)
}

// FromContext creates a logger carrying the request ID, username and trace
// identifiers found in ctx
func FromContext(ctx context.Context) *Logger {
	logger := GetLogger(ctx)

	if requestID := GetRequestID(ctx); requestID != "" {
		logger = logger.WithField("request_id", requestID)
	}

	if username := GetUsername(ctx); username != "" {
		logger = logger.WithField("username", username)
	}

	return UpdateLoggerWithTraceContext(ctx, logger)
}
