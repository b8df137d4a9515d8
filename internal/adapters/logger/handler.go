package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/lpm/internal/ui/output"
	"go.trai.ch/lpm/internal/ui/style"
)

// PrettyHandler is a slog.Handler that writes one colored line per record.
// Attributes follow the message as key=value pairs in a muted color.
type PrettyHandler struct {
	out    *termenv.Output
	mu     *sync.Mutex
	level  slog.Leveler
	attrs  []slog.Attr
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
		out:   output.New(w),
		mu:    &sync.Mutex{},
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	msg, color := decorate(r.Level, r.Message)

	attrParts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		attrParts = append(attrParts, formatAttr(attr))
	}
	r.Attrs(func(attr slog.Attr) bool {
		attrParts = append(attrParts, formatAttr(h.qualify(attr)))
		return true
	})

	line := h.out.String(msg).Foreground(h.out.Color(string(color))).String()
	if len(attrParts) > 0 {
		attrs := strings.Join(attrParts, " ")
		line += " " + h.out.String(attrs).Foreground(h.out.Color(string(style.Muted))).String()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.WriteString(line + "\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, attr := range attrs {
		newAttrs = append(newAttrs, h.qualify(attr))
	}

	clone := *h
	clone.attrs = newAttrs
	return &clone
}

// WithGroup returns a new Handler whose later attributes are nested under name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *PrettyHandler) qualify(attr slog.Attr) slog.Attr {
	if h.prefix == "" {
		return attr
	}
	return slog.Attr{Key: h.prefix + attr.Key, Value: attr.Value}
}

func decorate(level slog.Level, msg string) (string, lipgloss.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross + " " + msg, style.Red
	case level >= slog.LevelWarn:
		return style.Warning + " " + msg, style.Yellow
	case level >= slog.LevelInfo:
		return msg, style.Default
	default:
		return msg, style.Muted
	}
}

// formatAttr renders an attribute as key=value, flattening groups.
func formatAttr(attr slog.Attr) string {
	if attr.Value.Kind() == slog.KindGroup {
		parts := make([]string, 0, len(attr.Value.Group()))
		for _, member := range attr.Value.Group() {
			parts = append(parts, formatAttr(slog.Attr{Key: attr.Key + "." + member.Key, Value: member.Value}))
		}
		return strings.Join(parts, " ")
	}
	return attr.Key + "=" + attr.Value.String()
}
