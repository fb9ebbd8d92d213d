// Package log wraps slog with component-scoped loggers and the structured
// field vocabulary the handlers emit.
package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger bound to a component name. The component rides on
// every record without call sites repeating it.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	// Handler overrides the default text handler, mainly for tests.
	Handler slog.Handler
}

// New creates a component-scoped logger.
func New(cfg Config) *Logger {
	handler := cfg.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level})
	}
	logger := slog.New(handler)
	if cfg.Component != "" {
		logger = logger.With(FieldComponent, cfg.Component)
	}
	return &Logger{Logger: logger}
}

// WithComponent returns a logger scoped to a different component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(FieldComponent, component)}
}

// SetDefault installs the logger as the process-wide slog default.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
