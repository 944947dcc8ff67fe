package compat

import (
	"fmt"
	"os"

	"github.com/lixenwraith/netlog"
)

// GnetAdapter wraps netlog.Logger to implement the gnet logging.Logger interface
type GnetAdapter struct {
	logger       *netlog.Logger
	fatalHandler func(msg string)
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger *netlog.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
		fatalHandler: func(msg string) {
			os.Exit(1)
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logger.LogStructured(netlog.LevelDebug, fmt.Sprintf(format, args...), gnetFields())
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logger.LogStructured(netlog.LevelInfo, fmt.Sprintf(format, args...), gnetFields())
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logger.LogStructured(netlog.LevelWarn, fmt.Sprintf(format, args...), gnetFields())
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logger.LogStructured(netlog.LevelError, fmt.Sprintf(format, args...), gnetFields())
}

// Fatalf logs at critical level, which a network writer never discards, then runs the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fields := gnetFields()
	fields["fatal"] = true
	a.logger.LogStructured(netlog.LevelCritical, msg, fields)
	a.logger.Flush()

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

func gnetFields() map[string]any {
	return map[string]any{"source": "gnet"}
}
