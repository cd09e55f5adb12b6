package log

import (
	"context"
	"log/slog"
	"strings"
)

type commandContextKey struct{}

// CommandContext is metadata about the running command that is attached to
// every record logged with a context carrying it.
type CommandContext struct {
	CommandPath string
	Verb        string
	Entity      string
	RecordID    string
}

// WithCommandContext merges non-empty fields from update into ctx.
func WithCommandContext(ctx context.Context, update CommandContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	current := CommandContextFromContext(ctx)
	mergeStringField(&current.CommandPath, update.CommandPath)
	mergeStringField(&current.Verb, update.Verb)
	mergeStringField(&current.Entity, update.Entity)
	mergeStringField(&current.RecordID, update.RecordID)

	return context.WithValue(ctx, commandContextKey{}, current)
}

func CommandContextFromContext(ctx context.Context) CommandContext {
	if ctx == nil {
		return CommandContext{}
	}
	if value, ok := ctx.Value(commandContextKey{}).(CommandContext); ok {
		return value
	}
	return CommandContext{}
}

// CommandContextAttrs converts the context metadata to slog attributes.
func CommandContextAttrs(ctx context.Context) []slog.Attr {
	meta := CommandContextFromContext(ctx)
	attrs := make([]slog.Attr, 0, 4)
	appendStringAttr(&attrs, "command_path", meta.CommandPath)
	appendStringAttr(&attrs, "command_verb", meta.Verb)
	appendStringAttr(&attrs, "entity", meta.Entity)
	appendStringAttr(&attrs, "record_id", meta.RecordID)
	return attrs
}

// NewContextHandler decorates next so that records logged through a
// *Context method carry the CommandContext attributes.
func NewContextHandler(next slog.Handler) slog.Handler {
	return &contextHandler{next: next}
}

type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs := CommandContextAttrs(ctx); len(attrs) > 0 {
		record = record.Clone()
		record.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}

func mergeStringField(target *string, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	*target = trimmed
}

func appendStringAttr(attrs *[]slog.Attr, key, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	*attrs = append(*attrs, slog.String(key, trimmed))
}
