package compat

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/netlog"
)

// FastHTTPAdapter wraps netlog.Logger to implement the fasthttp Logger interface
type FastHTTPAdapter struct {
	logger        *netlog.Logger
	defaultLevel  int64
	levelDetector func(string) int64
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger *netlog.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:        logger,
		defaultLevel:  netlog.LevelInfo,
		levelDetector: DetectLogLevel,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when the detector finds nothing
func WithDefaultLevel(level int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect log level from message content
func WithLevelDetector(detector func(string) int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected := a.levelDetector(msg); detected != netlog.LevelInfo {
			level = detected
		}
	}

	a.logger.LogStructured(level, msg, map[string]any{"source": "fasthttp"})
}

// DetectLogLevel guesses a level from keywords in msg, LevelInfo when none match
func DetectLogLevel(msg string) int64 {
	msgLower := strings.ToLower(msg)

	for _, kw := range []string{"error", "failed", "fatal", "panic"} {
		if strings.Contains(msgLower, kw) {
			return netlog.LevelError
		}
	}
	for _, kw := range []string{"warn", "deprecated"} {
		if strings.Contains(msgLower, kw) {
			return netlog.LevelWarn
		}
	}
	for _, kw := range []string{"debug", "trace"} {
		if strings.Contains(msgLower, kw) {
			return netlog.LevelDebug
		}
	}
	return netlog.LevelInfo
}
