package clog

import (
	"fmt"
	"io"
	"sync"

	"github.com/apex/log"
)

// Named logging contexts used across the service. Each one can get its own level and writer.
const (
	GlobalLoggerCtx = "global"
	ConvertCtx      = "convert"
	ToolchainCtx    = "toolchain"
	HTTPCtx         = "http"
)

// ContextLogger routes entries for a named context to that context's logger, falling back to
// the global logger for contexts that were never added.
type ContextLogger struct {
	GlobalLogger   *log.Logger
	ContextLoggers sync.Map
}

func NewContextLogger(globalLoggerWriter io.WriteCloser) *ContextLogger {
	return &ContextLogger{
		GlobalLogger: newLogger(globalLoggerWriter, log.InfoLevel),
	}
}

func newLogger(w io.WriteCloser, level log.Level) *log.Logger {
	return &log.Logger{
		Handler: NewHandler(w),
		Level:   level,
	}
}

// AddLoggingContext gives ctx its own writer, starting at the global level. An existing
// context with the same name is closed and replaced.
func (l *ContextLogger) AddLoggingContext(ctx string, w io.WriteCloser) {
	previous, loaded := l.ContextLoggers.Swap(ctx, newLogger(w, l.GlobalLogger.Level))
	if loaded {
		if h := handlerOf(previous); h != nil {
			h.Close()
		}
	}
}

func (l *ContextLogger) RemoveLoggingContext(ctx string) {
	logger, ok := l.ContextLoggers.LoadAndDelete(ctx)
	if !ok {
		return
	}

	if h := handlerOf(logger); h != nil {
		h.Close()
	}
}

func (l *ContextLogger) SetLevel(ctx string, level log.Level) {
	if ctx == GlobalLoggerCtx {
		l.GlobalLogger.Level = level
		return
	}

	if logger := l.contextLogger(ctx); logger != nil {
		logger.Level = level
	}
}

func (l *ContextLogger) SetLevelFromString(ctx, s string) error {
	level, err := log.ParseLevel(s)
	if err != nil {
		return err
	}

	l.SetLevel(ctx, level)
	return nil
}

func (l *ContextLogger) SetOutput(ctx string, w io.WriteCloser) error {
	var h *Handler
	if ctx == GlobalLoggerCtx {
		h, _ = l.GlobalLogger.Handler.(*Handler)
	} else {
		h = handlerOf(l.contextLogger(ctx))
	}

	if h == nil {
		return fmt.Errorf("no such context %s", ctx)
	}

	h.SetOutput(w)
	return nil
}

// UsingCtx returns an entry tagged with ctx=<name>.
func (l *ContextLogger) UsingCtx(ctx string) *log.Entry {
	if logger := l.contextLogger(ctx); logger != nil {
		return logger.WithField("ctx", ctx)
	}

	return l.GlobalLogger.WithField("ctx", ctx)
}

func (l *ContextLogger) Global() *log.Entry {
	return l.UsingCtx(GlobalLoggerCtx)
}

func (l *ContextLogger) contextLogger(ctx string) *log.Logger {
	v, ok := l.ContextLoggers.Load(ctx)
	if !ok {
		return nil
	}

	logger, _ := v.(*log.Logger)
	return logger
}

func handlerOf(v interface{}) *Handler {
	logger, ok := v.(*log.Logger)
	if !ok || logger == nil {
		return nil
	}

	h, _ := logger.Handler.(*Handler)
	return h
}
