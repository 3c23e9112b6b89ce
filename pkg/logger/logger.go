// Package logger wraps slog with structured, redacting loggers used
// across the service. Captured credentials flow through this code, so
// the redaction list is aggressive.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a Logger from configuration.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug,
		ReplaceAttr: redactAttr,
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewDevelopment creates a text logger at debug level.
func NewDevelopment() *Logger {
	return New(Config{Level: "debug", Format: "text", Output: os.Stdout})
}

// NewProduction creates a JSON logger at info level.
func NewProduction() *Logger {
	return New(Config{Level: "info", Format: "json", Output: os.Stdout})
}

// NewNop creates a logger that discards everything.
func NewNop() *Logger {
	return New(Config{Level: "error", Format: "json", Output: io.Discard})
}

// sensitiveKeys never appear in logs in clear. Raw captured passwords
// are the main liability here.
var sensitiveKeys = map[string]bool{
	"password":       true,
	"passwd":         true,
	"password_hash":  true,
	"secret":         true,
	"token":          true,
	"tracking_token": true,
	"authorization":  true,
	"api_key":        true,
	"apikey":         true,
	"session_id":     true,
	"cookie":         true,
	"dsn":            true,
	"database_url":   true,
	"redis_url":      true,
	"smtp_password":  true,
	"form_data":      true,
	"credential":     true,
	"credentials":    true,
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] {
		return slog.String(a.Key, "[REDACTED]")
	}
	for sensitive := range sensitiveKeys {
		if strings.Contains(key, sensitive) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}

// With returns a Logger with the given attributes attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithError returns a Logger carrying the error attribute.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.Any("error", err))}
}

// ContextKey types the values the HTTP middleware places in request
// contexts.
type ContextKey string

const ContextKeyRequestID ContextKey = "request_id"

// WithContext returns a Logger annotated with request-scoped values.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	log := l.Logger
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok && requestID != "" {
		log = log.With(slog.String("request_id", requestID))
	}
	return &Logger{Logger: log}
}

// Stdlib returns the underlying slog logger.
func (l *Logger) Stdlib() *slog.Logger {
	return l.Logger
}

type contextKey string

const loggerKey contextKey = "logger"

// ToContext stores the logger in the context.
func ToContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from the context, falling back to a
// production logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return NewProduction()
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
