package netlog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lixenwraith/netlog/formatter"
)

// Stack frames between the user call site and log: Info -> log
const (
	callerSkip = 2
	traceSkip  = 3 // Info -> log -> getTrace
)

// log handles the core logging logic. Must be called directly by the exported level method.
func (l *Logger) log(level int64, depth int64, args []any, fields map[string]any) {
	if !l.state.IsInitialized.Load() || l.state.ShutdownCalled.Load() {
		return
	}
	if level < l.level.Load() {
		return
	}

	cfg := l.getConfig()
	record := formatter.Record{
		Time:     time.Now(),
		Level:    level,
		Category: cfg.Category,
		Args:     args,
		Fields:   fields,
	}
	if cfg.IncludeCaller {
		record.File, record.Line, record.Function = getCaller(callerSkip)
	}
	if depth > 0 {
		record.Trace = getTrace(depth, traceSkip)
	}

	if l.writeRecord(record) {
		l.state.TotalLogsProcessed.Add(1)
	}
}

// writeRecord formats under the logger lock; the output copies the bytes before returning
func (l *Logger) writeRecord(record formatter.Record) bool {
	var flags uint32
	if record.Level >= LevelCritical && record.Level < LevelProc {
		flags |= FlagNeverDiscard
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return false
	}
	l.out.WriteMessage(l.formatter.Format(record), flags)
	return true
}

// internalLog handles writing internal logger diagnostics to stderr, if enabled.
func (l *Logger) internalLog(format string, args ...any) {
	cfg := l.getConfig()
	if !cfg.InternalErrorsToStderr {
		return
	}

	if !strings.HasPrefix(format, "netlog: ") {
		format = "netlog: " + format
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
