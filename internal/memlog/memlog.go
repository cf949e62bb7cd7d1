// Package memlog wraps log/slog with a single-line handler and an optional
// log-file tee. Diagnostics the command surface doesn't want on the
// operator's terminal (a skipped region, a freeze worker giving up) go
// here, never through the frontend.
package memlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// handler formats each record as "time level message attr attr ...\n".
type handler struct {
	out io.Writer
	h   slog.Handler
	mu  *sync.Mutex
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{out: h.out, h: h.h.WithAttrs(attrs), mu: h.mu}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{out: h.out, h: h.h.WithGroup(name), mu: h.mu}
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.String())
		return true
	})
	line := strings.Join(parts, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write([]byte(line))
	return err
}

// New builds a *slog.Logger writing to out (os.Stderr if nil) and,
// additionally, to logFile when it is non-nil, at the given level.
func New(out io.Writer, logFile *os.File, level slog.Level) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}
	dest := out
	if logFile != nil {
		dest = io.MultiWriter(out, logFile)
	}
	h := &handler{
		out: dest,
		h:   slog.NewTextHandler(dest, &slog.HandlerOptions{Level: level}),
		mu:  &sync.Mutex{},
	}
	return slog.New(h)
}

// Discard is a logger that drops every record, for tests that don't want
// freezer/scanner diagnostics cluttering test output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
