package netlog

import (
	"os"
	"time"
)

// Global instance for package-level functions
var defaultLogger = newDefaultLogger()

// newDefaultLogger writes txt records to stderr until Init installs a network output
func newDefaultLogger() *Logger {
	l := NewLogger()
	cfg := DefaultConfig()
	cfg.Format = "txt"
	_ = l.ApplyConfigWithOutput(cfg, NewStreamWriter(os.Stderr))
	return l
}

// Default returns the package-level logger
func Default() *Logger {
	return defaultLogger
}

// Init points the package-level logger at the collector described by cfg
func Init(cfg *Config) error {
	return defaultLogger.ApplyConfig(cfg)
}

// InitWithOverrides initializes the package-level logger from defaults and "key=value" overrides
func InitWithOverrides(overrides ...string) error {
	cfg := DefaultConfig()
	if err := cfg.ApplyOverride(overrides...); err != nil {
		return err
	}
	return defaultLogger.ApplyConfig(cfg)
}

// Shutdown drains and closes the package-level logger
func Shutdown(timeout ...time.Duration) error {
	return defaultLogger.Shutdown(timeout...)
}

// Flush asks the package-level output to transmit pending records
func Flush() {
	defaultLogger.Flush()
}

// SetLevel changes the package-level minimum level
func SetLevel(level int64) {
	defaultLogger.SetLevel(level)
}

// Package-level level functions call log directly to keep the caller frame depth

// Debug logs a message at debug level
func Debug(args ...any) {
	defaultLogger.log(LevelDebug, defaultLogger.getConfig().TraceDepth, args, nil)
}

// Info logs a message at info level
func Info(args ...any) {
	defaultLogger.log(LevelInfo, defaultLogger.getConfig().TraceDepth, args, nil)
}

// Warn logs a message at warning level
func Warn(args ...any) {
	defaultLogger.log(LevelWarn, defaultLogger.getConfig().TraceDepth, args, nil)
}

// Error logs a message at error level
func Error(args ...any) {
	defaultLogger.log(LevelError, defaultLogger.getConfig().TraceDepth, args, nil)
}

// Critical logs a message at critical level
func Critical(args ...any) {
	defaultLogger.log(LevelCritical, defaultLogger.getConfig().TraceDepth, args, nil)
}

// LogStructured logs a message with structured fields
func LogStructured(level int64, message string, fields map[string]any) {
	defaultLogger.log(level, 0, []any{message}, fields)
}
