package wgmem

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/wgmem/backend"
)

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for wgmem and the backend packages.
// By default wgmem produces no log output. Pass nil to restore silence.
//
// Log levels used by wgmem:
//   - [slog.LevelDebug]: pipeline, buffer and dispatch details
//   - [slog.LevelInfo]: device selection and run results
//   - [slog.LevelWarn]: non-fatal issues (misaligned group size)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	backend.SetLogger(l)
}

// Logger returns the current logger used by wgmem.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that keep their own logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(d any, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
