package netlog

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/netlog/formatter"
	"github.com/lixenwraith/netlog/sanitizer"
)

// Logger formats records and hands them to a LogWriter
type Logger struct {
	currentConfig atomic.Value // stores *Config
	level         atomic.Int64
	state         State
	initMu        sync.Mutex

	mu        sync.Mutex // guards formatter and out
	formatter *formatter.Formatter
	out       LogWriter

	heartbeatStop chan struct{}
	heartbeatDone chan struct{}
}

// NewLogger creates a Logger with default settings. Records are ignored until a config is applied.
func NewLogger() *Logger {
	l := &Logger{}
	cfg := DefaultConfig()
	l.currentConfig.Store(cfg)
	l.level.Store(cfg.Level)
	l.state.LoggerStartTime.Store(time.Now())
	return l
}

// ApplyConfig validates cfg and starts a network Writer for its endpoint.
// A previously attached output is closed.
func (l *Logger) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}
	if err := cfg.validateRecords(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}
	ep, err := cfg.Endpoint()
	if err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	var opts []WriterOption
	if cfg.InternalErrorsToStderr {
		opts = append(opts, WithDiagnostics(os.Stderr))
	}
	w, err := NewWriter(ep, opts...)
	if err != nil {
		return err
	}
	if err := l.ApplyConfigWithOutput(cfg, w); err != nil {
		_ = w.Close()
		return err
	}
	return nil
}

// ApplyConfigWithOutput applies the record settings of cfg and sends records to out.
// Endpoint settings in cfg are not used.
func (l *Logger) ApplyConfigWithOutput(cfg *Config, out LogWriter) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}
	if out == nil {
		return fmtErrorf("output cannot be nil")
	}
	if err := cfg.validateRecords(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.state.ShutdownCalled.Load() {
		return fmtErrorf("logger already shut down")
	}

	l.stopHeartbeat()

	cfg = cfg.Clone()
	f := newFormatter(cfg, out)

	l.mu.Lock()
	old := l.out
	l.formatter = f
	l.out = out
	l.mu.Unlock()

	l.currentConfig.Store(cfg)
	l.level.Store(cfg.Level)
	l.state.IsInitialized.Store(true)

	if old != nil && old != out {
		if err := old.Close(); err != nil {
			l.internalLog("warning - failed to close previous output: %v\n", err)
		}
	}

	if cfg.HeartbeatIntervalS > 0 {
		l.startHeartbeat(time.Duration(cfg.HeartbeatIntervalS) * time.Second)
	}
	return nil
}

// newFormatter picks the sanitizer policy for the format and terminal
func newFormatter(cfg *Config, out LogWriter) *formatter.Formatter {
	san := sanitizer.New()
	if cfg.Format == "txt" || out.TTYOutput() {
		san.Policy(sanitizer.PolicyTxt)
	}
	return formatter.New(san).
		Type(cfg.Format).
		Pretty(cfg.Pretty).
		TimestampFormat(cfg.TimestampFormat)
}

// GetConfig returns a copy of current configuration
func (l *Logger) GetConfig() *Config {
	return l.getConfig().Clone()
}

// SetLevel changes the minimum level at runtime
func (l *Logger) SetLevel(level int64) {
	l.level.Store(level)
}

// Output returns the attached LogWriter, nil before a config is applied
func (l *Logger) Output() LogWriter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out
}

// Flush asks the output to transmit pending records. It does not wait.
func (l *Logger) Flush() {
	if out := l.Output(); out != nil {
		out.Flush()
	}
}

// Shutdown stops the heartbeat, waits up to timeout for pending records when the output
// supports draining, then closes the output. Default timeout is 2s.
func (l *Logger) Shutdown(timeout ...time.Duration) error {
	if !l.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	l.stopHeartbeat()

	if !l.state.IsInitialized.Load() {
		return nil
	}
	l.state.IsInitialized.Store(false)

	effectiveTimeout := defaultShutdownTimeout
	if len(timeout) > 0 {
		effectiveTimeout = timeout[0]
	}

	l.mu.Lock()
	out := l.out
	l.mu.Unlock()

	var finalErr error
	if d, ok := out.(interface{ Drain(time.Duration) error }); ok && effectiveTimeout > 0 {
		if err := d.Drain(effectiveTimeout); err != nil {
			finalErr = combineErrors(finalErr, err)
		}
	} else {
		out.Flush()
	}
	if err := out.Close(); err != nil {
		finalErr = combineErrors(finalErr, fmtErrorf("failed to close output: %w", err))
	}
	return finalErr
}

// Debug logs a message at debug level
func (l *Logger) Debug(args ...any) {
	l.log(LevelDebug, l.getConfig().TraceDepth, args, nil)
}

// Info logs a message at info level
func (l *Logger) Info(args ...any) {
	l.log(LevelInfo, l.getConfig().TraceDepth, args, nil)
}

// Warn logs a message at warning level
func (l *Logger) Warn(args ...any) {
	l.log(LevelWarn, l.getConfig().TraceDepth, args, nil)
}

// Error logs a message at error level
func (l *Logger) Error(args ...any) {
	l.log(LevelError, l.getConfig().TraceDepth, args, nil)
}

// Critical logs a message at critical level. Critical records are never discarded by a Writer.
func (l *Logger) Critical(args ...any) {
	l.log(LevelCritical, l.getConfig().TraceDepth, args, nil)
}

// DebugTrace logs a debug message with function call trace
func (l *Logger) DebugTrace(depth int, args ...any) {
	l.log(LevelDebug, int64(depth), args, nil)
}

// InfoTrace logs an info message with function call trace
func (l *Logger) InfoTrace(depth int, args ...any) {
	l.log(LevelInfo, int64(depth), args, nil)
}

// WarnTrace logs a warning message with function call trace
func (l *Logger) WarnTrace(depth int, args ...any) {
	l.log(LevelWarn, int64(depth), args, nil)
}

// ErrorTrace logs an error message with function call trace
func (l *Logger) ErrorTrace(depth int, args ...any) {
	l.log(LevelError, int64(depth), args, nil)
}

// LogStructured logs a message with structured fields
func (l *Logger) LogStructured(level int64, message string, fields map[string]any) {
	l.log(level, 0, []any{message}, fields)
}

// getConfig returns the current configuration (thread-safe)
func (l *Logger) getConfig() *Config {
	return l.currentConfig.Load().(*Config)
}
