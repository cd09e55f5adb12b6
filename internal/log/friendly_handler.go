package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// fieldsGroup is the attribute group holding per-field validation messages.
const fieldsGroup = "fields"

// FieldErrors returns a group attribute of field validation messages that the
// friendly handler renders one per line.
func FieldErrors(messages map[string]string, order []string) slog.Attr {
	attrs := make([]any, 0, len(messages))
	seen := make(map[string]bool, len(messages))
	for _, key := range order {
		if msg, ok := messages[key]; ok {
			attrs = append(attrs, slog.String(key, msg))
			seen[key] = true
		}
	}
	rest := make([]string, 0, len(messages))
	for key := range messages {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		attrs = append(attrs, slog.String(key, messages[key]))
	}
	return slog.Group(fieldsGroup, attrs...)
}

// NewFriendlyErrorHandler renders error records as "Error: <summary>"
// followed by indented detail lines.
func NewFriendlyErrorHandler(w io.Writer) slog.Handler {
	return &friendlyHandler{
		w: w,
	}
}

type friendlyHandler struct {
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

type attrEntry struct {
	key   string
	value string
}

func (h *friendlyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *friendlyHandler) Handle(_ context.Context, record slog.Record) error {
	summary := strings.TrimSpace(record.Message)
	entries := h.collectEntries(record)

	if summary == "" {
		for _, entry := range entries {
			if entry.key == "error" && entry.value != "" {
				summary = entry.value
				break
			}
		}
	}

	if summary == "" {
		summary = "an unexpected error occurred"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", summary)

	for _, entry := range entries {
		if entry.key == "hint" && entry.value != "" {
			fmt.Fprintf(&sb, "  hint: %s\n", entry.value)
		}
	}

	// Field errors come first, in field order, then the rest sorted by key.
	var fields, others []attrEntry
	for _, entry := range entries {
		switch {
		case entry.key == "hint" || entry.key == "error" || entry.value == "":
			continue
		case strings.HasPrefix(entry.key, fieldsGroup+"."):
			fields = append(fields, attrEntry{
				key:   strings.TrimPrefix(entry.key, fieldsGroup+"."),
				value: entry.value,
			})
		default:
			others = append(others, entry)
		}
	}

	sort.SliceStable(others, func(i, j int) bool {
		return others[i].key < others[j].key
	})

	for _, entry := range fields {
		writeEntry(&sb, entry)
	}
	for _, entry := range others {
		writeEntry(&sb, entry)
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *friendlyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *friendlyHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *friendlyHandler) clone() *friendlyHandler {
	clone := *h
	if len(h.attrs) > 0 {
		clone.attrs = append([]slog.Attr{}, h.attrs...)
	}
	if len(h.groups) > 0 {
		clone.groups = append([]string{}, h.groups...)
	}
	return &clone
}

func (h *friendlyHandler) collectEntries(record slog.Record) []attrEntry {
	entries := make([]attrEntry, 0, len(h.attrs)+record.NumAttrs())

	for _, attr := range h.attrs {
		entries = h.appendAttr(entries, h.fullKey(attr.Key), attr.Value.Resolve())
	}

	record.Attrs(func(attr slog.Attr) bool {
		entries = h.appendAttr(entries, h.fullKey(attr.Key), attr.Value.Resolve())
		return true
	})

	return entries
}

// appendAttr flattens group values into dotted keys.
func (h *friendlyHandler) appendAttr(entries []attrEntry, key string, val slog.Value) []attrEntry {
	if val.Kind() != slog.KindGroup {
		return append(entries, attrEntry{key: key, value: h.attrValueToString(val)})
	}
	for _, attr := range val.Group() {
		entries = h.appendAttr(entries, key+"."+attr.Key, attr.Value.Resolve())
	}
	return entries
}

func (h *friendlyHandler) fullKey(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	path := append([]string{}, h.groups...)
	path = append(path, key)
	return strings.Join(path, ".")
}

func (h *friendlyHandler) attrValueToString(val slog.Value) string {
	switch val.Kind() {
	case slog.KindString:
		return val.String()
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindBool, slog.KindDuration, slog.KindTime:
		return val.String()
	case slog.KindGroup:
		groupVals := val.Group()
		parts := make([]string, 0, len(groupVals))
		for _, attr := range groupVals {
			parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, h.attrValueToString(attr.Value)))
		}
		return strings.Join(parts, ", ")
	case slog.KindLogValuer:
		return h.attrValueToString(val.Resolve())
	case slog.KindAny:
		raw := val.Any()
		if err, ok := raw.(error); ok {
			return err.Error()
		}
		return fmt.Sprint(raw)
	default:
		return val.String()
	}
}

func writeEntry(sb *strings.Builder, entry attrEntry) {
	val := strings.TrimSpace(entry.value)
	if strings.Contains(val, "\n") {
		lines := strings.Split(val, "\n")
		fmt.Fprintf(sb, "  %s: %s\n", entry.key, strings.TrimSpace(lines[0]))
		for _, line := range lines[1:] {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			fmt.Fprintf(sb, "    %s\n", trimmed)
		}
		return
	}
	fmt.Fprintf(sb, "  %s: %s\n", entry.key, val)
}
