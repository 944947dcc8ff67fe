package netlog

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// getTrace returns a function call trace string.
func getTrace(depth int64, skip int) string {
	if depth <= 0 || depth > 10 {
		return ""
	}
	pc := make([]uintptr, int(depth)+skip)
	n := runtime.Callers(skip+1, pc) // +1 for runtime.Callers itself
	if n == 0 {
		return "(unknown)"
	}
	frames := runtime.CallersFrames(pc[:n])
	var trace []string
	for len(trace) < int(depth) {
		frame, more := frames.Next()
		trace = append(trace, shortFuncName(frame.Function))
		if !more {
			break
		}
	}
	if len(trace) == 0 {
		return "(unknown)"
	}
	// Reverse for caller -> callee order
	for i, j := 0, len(trace)-1; i < j; i, j = i+1, j-1 {
		trace[i], trace[j] = trace[j], trace[i]
	}
	return strings.Join(trace, " -> ")
}

// getCaller returns file base name, line and short function name of the frame at skip.
func getCaller(skip int) (string, int, string) {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", 0, ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return filepath.Base(file), line, ""
	}
	return filepath.Base(file), line, shortFuncName(fn.Name())
}

// shortFuncName strips the package path and collapses closure names.
func shortFuncName(full string) string {
	name := filepath.Base(full)
	parts := strings.Split(name, ".")
	last := parts[len(parts)-1]
	if len(last) > 4 && strings.HasPrefix(last, "func") && strings.IndexFunc(last[4:], func(r rune) bool {
		return !unicode.IsDigit(r)
	}) == -1 {
		return fmt.Sprintf("(anonymous in %s)", strings.Join(parts[:len(parts)-1], "."))
	}
	return last
}

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "netlog: ") {
		format = "netlog: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// Level converts level string to numeric constant.
func Level(levelStr string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	case "proc":
		return LevelProc, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use debug, info, warn, error, critical, proc)", levelStr)
	}
}

// amountPattern matches "<digits><unit>" with optional whitespace between
var amountPattern = regexp.MustCompile(`^(\d+)\s*([A-Za-z]+)$`)

// ParseSize parses a byte count such as "512KB" or "1MB". Units are B, KB, MB and GB, 1024 based.
func ParseSize(s string) (int64, error) {
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmtErrorf("invalid size '%s': expected <number><B|KB|MB|GB>", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmtErrorf("invalid size '%s': %w", s, err)
	}
	switch strings.ToUpper(m[2]) {
	case "B":
		return n, nil
	case "KB":
		return n * sizeMultiplier, nil
	case "MB":
		return n * sizeMultiplier * sizeMultiplier, nil
	case "GB":
		return n * sizeMultiplier * sizeMultiplier * sizeMultiplier, nil
	default:
		return 0, fmtErrorf("invalid size unit '%s' in '%s' (use B, KB, MB, GB)", m[2], s)
	}
}

// ParseInterval parses a duration such as "500ms" or "5s". Units are ms, s, m and h.
func ParseInterval(s string) (time.Duration, error) {
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmtErrorf("invalid interval '%s': expected <number><ms|s|m|h>", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmtErrorf("invalid interval '%s': %w", s, err)
	}
	switch strings.ToLower(m[2]) {
	case "ms":
		return time.Duration(n) * time.Millisecond, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	default:
		return 0, fmtErrorf("invalid interval unit '%s' in '%s' (use ms, s, m, h)", m[2], s)
	}
}
