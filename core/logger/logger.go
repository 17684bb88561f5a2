// Package logger configures the structured slog output shared by the
// dispatch clients. Lines carry a fixed key order so log pipelines and
// humans see the same shape in KV and JSON form.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"log/slog"
)

var (
	initOnce sync.Once
	levelVar slog.LevelVar

	// L is the base logger. It defaults to a plain KV handler on stdout so
	// library consumers get output without calling Init.
	L *slog.Logger
)

func init() {
	levelVar.Set(slog.LevelInfo)
	L = slog.New(newStructuredHandler(handlerConfig{
		level:    &levelVar,
		writer:   os.Stdout,
		format:   formatKV,
		keyOrder: defaultKeyOrder(),
	}))
}

// Options selects output, format and level for Init.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// Init replaces the default logger. It may be called once; later calls are
// no-ops.
func Init(opts Options) {
	initOnce.Do(func() {
		levelVar.Set(parseLevel(opts.Level))
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   out,
			format:   parseFormat(opts.Format),
			keyOrder: defaultKeyOrder(),
		}))
		slog.SetDefault(L)
	})
}

// Component constructs a logger scoped to the provided component attribute.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs with component scope and a leading event attribute.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	log := Component(component)
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	if rid := RIDFrom(ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	if id := MessageIDFrom(ctx); id != "" {
		attrs = append(attrs, slog.String("message_id", id))
	}
	if id := UserIDFrom(ctx); id != "" {
		attrs = append(attrs, slog.String("user_id", id))
	}
	log.LogAttrs(ctx, level, "", attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func parseFormat(raw string) logFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return formatJSON
	case "kv", "text", "pretty":
		return formatKV
	default:
		return formatKV
	}
}

func defaultKeyOrder() []string {
	return []string{
		"ts",
		"level",
		"component",
		"event",
		"status",
		"rid",
		"message_id",
		"channel_id",
		"user_id",
		"custom_id",
		"emoji",
		"page",
		"pages",
		"attempt",
		"attempts",
		"backoff_ms",
		"duration_ms",
		"handlers",
		"err",
		"cause",
	}
}
