// Package logging provides structured logging with trace ID support for the scheduler.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys.
type ContextKey string

const (
	// TraceIDKey is the context key for the request trace id.
	TraceIDKey ContextKey = "trace_id"
	// SenderKey is the context key for the request's sending principal.
	SenderKey ContextKey = "sender"
	// ServiceKey is the context key for the service name.
	ServiceKey ContextKey = "service"
)

// Logger wraps logrus.Logger with scheduler-specific fields.
type Logger struct {
	*logrus.Logger
	service string
}

// New creates a new Logger instance.
func New(service, level, format string) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, service: service}
}

// NewFromEnv constructs a logger using LOG_LEVEL and LOG_FORMAT environment
// variables, defaulting to "info" and "json" when unset.
func NewFromEnv(service string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(service, level, format)
}

// WithContext creates a log entry enriched with the trace id and sender
// principal carried on ctx, if present.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("service", l.service)

	if traceID := ctx.Value(TraceIDKey); traceID != nil {
		entry = entry.WithField("trace_id", traceID)
	}
	if sender := ctx.Value(SenderKey); sender != nil {
		entry = entry.WithField("sender", sender)
	}

	return entry
}

// WithFields creates a log entry with the given fields plus the service name.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["service"] = l.service
	return l.Logger.WithFields(fields)
}

// WithError creates a log entry carrying err.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"service": l.service,
		"error":   err.Error(),
	})
}

// NewTraceID generates a new trace id for correlating a request across the
// lifecycle engine and the outbound ledger actions it produces.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID attaches a trace id to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace id from ctx.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithSender attaches the sending principal to ctx.
func WithSender(ctx context.Context, sender string) context.Context {
	return context.WithValue(ctx, SenderKey, sender)
}

// GetSender retrieves the sending principal from ctx.
func GetSender(ctx context.Context) string {
	if sender, ok := ctx.Value(SenderKey).(string); ok {
		return sender
	}
	return ""
}

// LogJobTransition logs a job lifecycle state transition.
func (l *Logger) LogJobTransition(ctx context.Context, jobID uint64, from, to string, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"job_id": jobID,
		"from":   from,
		"to":     to,
	})
	if err != nil {
		entry.WithError(err).Warn("job transition failed")
		return
	}
	entry.Info("job transition")
}

// LogResolverFailure logs a variable hydration or condition resolution failure.
func (l *Logger) LogResolverFailure(ctx context.Context, jobID uint64, stage string, err error) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"job_id": jobID,
		"stage":  stage,
	}).WithError(err).Warn("resolver failure")
}
