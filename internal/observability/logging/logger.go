package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

// Attribute keys shared by every record
const (
	TraceIDKey = "trace_id"
	SpanIDKey  = "span_id"
	ModuleKey  = "module"
)

// Logger is the application logger. Packages derive a module scoped child
// with WithModule and requests carry a trace scoped child in their context.
type Logger struct {
	*slog.Logger
}

// sensitiveKeys never reach the output, whatever the handler
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"secret":        {},
	"client_secret": {},
	"token":         {},
	"access_token":  {},
	"id_token":      {},
	"refresh_token": {},
	"authorization": {},
	"code":          {},
}

func dropSensitive(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.Attr{}
	}
	return a
}

// NewLogger builds the process logger and installs it as the slog default.
// format is json, text (tint without colors) or console (tint with colors).
func NewLogger(level, format string) (*Logger, error) {
	logger, err := newLogger(os.Stdout, level, format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger.Logger)
	return logger, nil
}

func newLogger(w io.Writer, level, format string) (*Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	var handler slog.Handler
	switch f := strings.ToLower(format); f {
	case "", "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, ReplaceAttr: dropSensitive})
	case "text", "console":
		handler = tint.NewHandler(w, &tint.Options{
			Level:       lvl,
			TimeFormat:  time.RFC3339,
			ReplaceAttr: dropSensitive,
			NoColor:     f == "text",
		})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return &Logger{Logger: slog.New(handler)}, nil
}

// Discard returns a logger that drops every record
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// With returns a child logger carrying args
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithModule returns a child logger tagged with the module name
func (l *Logger) WithModule(module string) *Logger {
	return l.With(ModuleKey, module)
}

// WithTracing returns a child logger tagged with a trace and a fresh span id
func (l *Logger) WithTracing(traceID string) *Logger {
	if strings.TrimSpace(traceID) == "" {
		traceID = NewID()
	}
	return l.With(TraceIDKey, traceID, SpanIDKey, NewID())
}

// NewID returns a random trace or span id
func NewID() string {
	return uuid.NewString()
}

type contextKey int

const (
	loggerKey contextKey = iota
	traceIDKey
)

// ContextWithLogger stores the request logger in ctx
func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request logger, falling back to the given one
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok && logger != nil {
		return logger
	}
	return fallback
}

// ContextWithTraceID stores the request trace id in ctx
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the trace id stored in ctx, or ""
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// Err returns an error attribute rendered by both handlers
func Err(err error) slog.Attr {
	return tint.Err(err)
}
