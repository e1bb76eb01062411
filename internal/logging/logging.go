// Package logging provides the redacting slog setup shared by every driver
// in the core. Adapted from the teacher's internal/logging package: the
// RedactingHandler is kept verbatim in spirit, the chi-specific HTTP request
// logger is dropped because the core has no HTTP surface to instrument
// (spec §6, "The core is a library, not a server").
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

var sensitiveKeyFragments = []string{"key", "token", "secret", "password"}

// globalLevel is the dynamic level variable backing the JSON handler so
// SetLevel can change verbosity at runtime without recreating the logger.
var globalLevel = new(slog.LevelVar)

// Setup builds the default logger: a JSON handler at the given level,
// wrapped in a RedactingHandler so a caller-supplied API key never reaches
// stdout through a log attribute.
func Setup(level string) *slog.Logger {
	SetLevel(level)
	base := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: globalLevel})
	return slog.New(&RedactingHandler{base: base})
}

// SetLevel changes the global log level dynamically. Unrecognized values
// default to info.
func SetLevel(level string) {
	switch level {
	case "debug":
		globalLevel.Set(slog.LevelDebug)
	case "warn":
		globalLevel.Set(slog.LevelWarn)
	case "error":
		globalLevel.Set(slog.LevelError)
	default:
		globalLevel.Set(slog.LevelInfo)
	}
}

// RedactingHandler wraps an slog.Handler, stripping attribute values whose
// key suggests they hold a credential (api key, endpoint token, bearer
// secret) before they reach the base handler.
type RedactingHandler struct {
	base slog.Handler
}

// NewRedactingHandler wraps an arbitrary base handler, for callers that
// supply their own (e.g. a test handler capturing records in memory).
func NewRedactingHandler(base slog.Handler) *RedactingHandler {
	return &RedactingHandler{base: base}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a))
		return true
	})
	return h.base.Handle(ctx, redacted)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{base: h.base.WithAttrs(redacted)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{base: h.base.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, frag := range sensitiveKeyFragments {
		if strings.Contains(key, frag) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}
