// Package logger builds the slog loggers used by the CLI and server.
//
// The default handler is slog's text handler with terminal colors: warnings
// are yellow, errors red, and messages about writing or persisting result
// tables green so output files stand out in long runs.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// Config selects the logger's output.
type Config struct {
	Level  slog.Level
	Format string // text, json
	Output io.Writer
	// Color forces colors on or off. Nil means on only when Output is a terminal.
	Color *bool
}

// NewDefaultLogger returns a colored text logger on stderr.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return NewLogger(Config{Level: level})
}

// NewLogger builds a logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(out, opts))
	}

	color := isTerminal(out)
	if cfg.Color != nil {
		color = *cfg.Color
	}
	return slog.New(NewColorHandler(out, opts, color))
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown
// values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorHandler wraps slog's text handler and colors whole lines.
type ColorHandler struct {
	next  slog.Handler
	out   io.Writer
	mu    *sync.Mutex
	color bool
}

// NewColorHandler creates a text handler writing to out.
func NewColorHandler(out io.Writer, opts *slog.HandlerOptions, color bool) *ColorHandler {
	return &ColorHandler{
		next:  slog.NewTextHandler(out, opts),
		out:   out,
		mu:    &sync.Mutex{},
		color: color,
	}
}

// Enabled implements slog.Handler
func (h *ColorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	code := ""
	if h.color {
		code = colorFor(r)
	}
	if code == "" {
		return h.next.Handle(ctx, r)
	}

	if _, err := io.WriteString(h.out, code); err != nil {
		return err
	}
	err := h.next.Handle(ctx, r)
	if _, resetErr := io.WriteString(h.out, colorReset); err == nil {
		err = resetErr
	}
	return err
}

// WithAttrs implements slog.Handler
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ColorHandler{next: h.next.WithAttrs(attrs), out: h.out, mu: h.mu, color: h.color}
}

// WithGroup implements slog.Handler
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	return &ColorHandler{next: h.next.WithGroup(name), out: h.out, mu: h.mu, color: h.color}
}

func colorFor(r slog.Record) string {
	switch {
	case r.Level >= slog.LevelError:
		return colorRed
	case r.Level >= slog.LevelWarn:
		return colorYellow
	}
	msg := strings.ToLower(r.Message)
	if strings.Contains(msg, "persist") || strings.HasPrefix(msg, "wrote ") {
		return colorGreen
	}
	return ""
}
