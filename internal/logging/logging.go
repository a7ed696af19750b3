// Package logging builds ledgerdb's slog logger: a console handler
// fanned out alongside an optional sokkalf/slog-seq handler, tagged
// with the running component's name so multiple ledgerdb processes
// (or a future non-CLI embedder) can be told apart in a shared Seq
// instance. The fan-out mechanics are the teacher's
// internal/logging/logging.go; what's configurable here -- the Seq
// endpoint, the minimum level, and the component tag -- is ledgerdb's
// own, driven by cmd/ledgerdb's flags rather than hardcoded constants.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Options configures SetupLogger. There is no teacher equivalent of
// this type: the teacher's SetupLogger takes no arguments and hardcodes
// both the Seq URL and the log level.
type Options struct {
	// Level is the minimum level both the console and Seq handlers
	// emit.
	Level slog.Level

	// SeqEndpoint is the Seq server's ingestion URL. An empty string
	// disables the Seq handler entirely, leaving console-only logging
	// -- the same fallback path the teacher's SetupLogger takes when
	// slog-seq fails to dial, but reachable here by configuration
	// rather than only by a live network failure.
	SeqEndpoint string

	// Component is attached as a "component" attribute to every log
	// record, so a shared Seq instance can separate ledgerdb's own
	// engine/REPL logs from anything else logging into the same
	// server.
	Component string
}

// DefaultOptions matches the teacher's hardcoded SetupLogger behavior:
// debug-level console plus a local Seq instance.
func DefaultOptions() Options {
	return Options{
		Level:       slog.LevelDebug,
		SeqEndpoint: "http://localhost:5341",
		Component:   "ledgerdb",
	}
}

// multiHandler forwards log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// SetupLogger builds the logger described by opts and returns a
// cleanup function that flushes and closes the Seq handler, if one was
// created. Every record carries a "component" attribute set to
// opts.Component.
func SetupLogger(opts Options) (*slog.Logger, func()) {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, AddSource: true}
	consoleHandler := slog.NewTextHandler(os.Stdout, handlerOpts)

	if opts.SeqEndpoint == "" {
		return slog.New(consoleHandler).With("component", opts.Component), func() {}
	}

	_, seqHandler := slogseq.NewLogger(
		opts.SeqEndpoint,
		slogseq.WithBatchSize(1),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(handlerOpts),
	)

	// If Seq is not available, fall back to console only.
	if seqHandler == nil {
		return slog.New(consoleHandler).With("component", opts.Component), func() {}
	}

	multi := &multiHandler{handlers: []slog.Handler{consoleHandler, seqHandler}}
	logger := slog.New(multi).With("component", opts.Component)

	closeFn := func() {
		seqHandler.Close()
	}

	return logger, closeFn
}
