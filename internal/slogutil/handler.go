// Package slogutil builds the loggers mftfcheck writes to stderr and to the
// optional log file.
package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ScopeKey names the attribute LineHandler prints as a bracketed scope ahead
// of the message. Analyzers set it to the entity kind they handle.
const ScopeKey = "kind"

// LineHandler writes one line per record:
//
//	2026-10-01T12:00:00Z WRN [page] Entity changed kind, skipping comparison | module=M1 name=Login after=section
//
// Groups are flattened into dotted keys.
type LineHandler struct {
	w      io.Writer
	level  slog.Leveler
	scope  string
	attrs  []slog.Attr
	prefix string
	mu     *sync.Mutex
}

// NewLineHandler creates a line handler. A nil opts logs at info and above.
func NewLineHandler(w io.Writer, opts *slog.HandlerOptions) *LineHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &LineHandler{w: w, level: level, mu: &sync.Mutex{}}
}

func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	scope := h.scope
	attrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+r.NumAttrs())
	copy(attrs, h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		attrs, scope = collect(attrs, scope, h.prefix, a)
		return true
	})

	buf := make([]byte, 0, 160)
	if !r.Time.IsZero() {
		buf = r.Time.UTC().AppendFormat(buf, time.RFC3339)
		buf = append(buf, ' ')
	}
	buf = append(buf, levelTag(r.Level)...)
	if scope != "" {
		buf = append(buf, " ["...)
		buf = append(buf, scope...)
		buf = append(buf, ']')
	}
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	for i, a := range attrs {
		if i == 0 {
			buf = append(buf, " |"...)
		}
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = append(buf, formatValue(a.Value)...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		c.attrs, c.scope = collect(c.attrs, c.scope, c.prefix, a)
	}
	return c
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix += name + "."
	return c
}

func (h *LineHandler) clone() *LineHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	return &c
}

// collect appends a to dst under prefix, expanding groups. A top-level
// ScopeKey attribute replaces the scope instead of being listed.
func collect(dst []slog.Attr, scope, prefix string, a slog.Attr) ([]slog.Attr, string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst, scope
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst, scope = collect(dst, scope, inner, ga)
		}
		return dst, scope
	}
	if prefix == "" && a.Key == ScopeKey {
		return dst, a.Value.String()
	}
	return append(dst, slog.Attr{Key: prefix + a.Key, Value: a.Value}), scope
}

func levelTag(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "DBG"
	case level < slog.LevelWarn:
		return "INF"
	case level < slog.LevelError:
		return "WRN"
	default:
		return "ERR"
	}
}

// formatValue renders v on a single field; values holding spaces or
// separators are quoted so targets and error messages stay readable.
func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		return v.String()
	}
	if s == "" || strings.ContainsAny(s, " |=\"\n") {
		return strconv.Quote(s)
	}
	return s
}
