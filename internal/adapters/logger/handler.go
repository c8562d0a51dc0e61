package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/mealbook/internal/ui/output"
	"go.trai.ch/mealbook/internal/ui/style"
)

// badge is the prefix and color of records at or above a level.
type badge struct {
	min    slog.Level
	prefix string
	color  termenv.Color
}

// badges is ordered from the most to the least severe level.
var badges = []badge{
	{min: slog.LevelError, prefix: style.Cross + " ", color: termenv.RGBColor(string(style.Tomato))},
	{min: slog.LevelWarn, prefix: style.Warning + " ", color: termenv.RGBColor(string(style.Saffron))},
}

var plain = badge{color: termenv.RGBColor(string(style.Slate))}

func badgeFor(level slog.Level) badge {
	for _, b := range badges {
		if level >= b.min {
			return b
		}
	}
	return plain
}

// PrettyHandler is a slog.Handler that writes one colored line per record.
// Attributes follow the message as key=value pairs, keys qualified by the
// groups open when the attribute was added.
type PrettyHandler struct {
	mu     *sync.Mutex
	out    *termenv.Output
	level  slog.Leveler
	fields string
	prefix string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		mu:    &sync.Mutex{},
		out:   output.New(w),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record as a single line.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	b := badgeFor(r.Level)

	var line strings.Builder
	line.WriteString(b.prefix)
	line.WriteString(r.Message)
	line.WriteString(h.fields)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&line, h.prefix, a)
		return true
	})

	styled := h.out.String(line.String()).Foreground(b.color).String()

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.WriteString(styled + "\n")
	return err
}

// WithAttrs returns a handler that writes attrs on every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	var fields strings.Builder
	fields.WriteString(h.fields)
	for _, a := range attrs {
		appendAttr(&fields, h.prefix, a)
	}

	c := *h
	c.fields = fields.String()
	return &c
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

// appendAttr writes a as " key=value", flattening group values.
func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, inner, ga)
		}
		return
	}

	b.WriteString(" ")
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteString("=")
	b.WriteString(a.Value.String())
}
