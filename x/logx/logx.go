// Package logx provides component-scoped structured logging for the HAL.
//
// Drivers log through Debug/Warn/Error with their Component so a host
// application can filter by subsystem. The default logger writes text to
// stderr at Warn; on firmware builds, point it at a UART writer with
// SetLogger.
package logx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

// HAL component identifiers.
const (
	ComponentCS    Component = "cs"
	ComponentRCC   Component = "rcc"
	ComponentGPIO  Component = "gpio"
	ComponentI2C   Component = "i2c"
	ComponentInfo  Component = "info"
	ComponentSim   Component = "sim"
	ComponentBoard Component = "board"
)

// Format specifies the output format for logging.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

var (
	logger *slog.Logger
	level  = new(slog.LevelVar)
	mu     sync.RWMutex
)

func init() {
	level.Set(slog.LevelWarn)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SetLevel sets the minimum level for the default handler.
func SetLevel(l slog.Level) { level.Set(l) }

// Level returns the current minimum level.
func Level() slog.Level { return level.Level() }

// SetLogger replaces the logger used by every component.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// SetOutput rebuilds the default logger over w in the given format.
func SetOutput(w io.Writer, f Format) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch f {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	SetLogger(slog.New(h))
}

// Logger returns the current logger tagged with the component.
func Logger(c Component) *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	return l.With("component", string(c))
}

func emit(c Component, lvl slog.Level, msg string, args []any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	l.Log(context.Background(), lvl, msg, append([]any{"component", string(c)}, args...)...)
}

// Debug logs at debug level for component c.
func Debug(c Component, msg string, args ...any) { emit(c, slog.LevelDebug, msg, args) }

// Info logs at info level for component c.
func Info(c Component, msg string, args ...any) { emit(c, slog.LevelInfo, msg, args) }

// Warn logs at warn level for component c.
func Warn(c Component, msg string, args ...any) { emit(c, slog.LevelWarn, msg, args) }

// Error logs at error level for component c.
func Error(c Component, msg string, args ...any) { emit(c, slog.LevelError, msg, args) }
