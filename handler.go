package loggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Handler adapts an Emitter to log/slog. Records render as
// "[LEVEL] target -- message", with attribute key=value pairs
// appended, matching the line format operators read back out of
// decoded files.
//
// The level threshold is applied in Enabled, before any formatting or
// encoding. Handle never returns an error: delivery is best effort by
// design. Like the Emitter it wraps, a Handler belongs to a single
// goroutine.
type Handler struct {
	emitter *Emitter
	level   slog.Leveler
	target  string
	attrs   []slog.Attr
	prefix  string
}

// NewHandler wraps an emitter. A nil level means slog.LevelInfo;
// target appears in every rendered line between level and message.
func NewHandler(emitter *Emitter, level slog.Leveler, target string) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{emitter: emitter, level: level, target: target}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.Grow(32 + len(record.Message))
	b.WriteByte('[')
	b.WriteString(record.Level.String())
	b.WriteString("] ")
	b.WriteString(h.target)
	b.WriteString(" -- ")
	b.WriteString(record.Message)

	for _, attr := range h.attrs {
		appendAttr(&b, h.prefix, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&b, h.prefix, attr)
		return true
	})

	h.emitter.Emit(record.Time, b.String())
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func appendAttr(b *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = prefix + attr.Key + "."
		}
		for _, nested := range attr.Value.Group() {
			appendAttr(b, groupPrefix, nested)
		}
		return
	}
	if attr.Key == "" {
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, attr.Key, attr.Value)
}
