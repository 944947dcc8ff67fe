package compat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lixenwraith/netlog"
)

// keyValuePattern matches "key=%v" or "key: %v" verbs in a format string
var keyValuePattern = regexp.MustCompile(`(\w+)\s*[:=]\s*%[vsdqxXeEfFgGpbcUt]`)

// parseFormat splits a printf-style call into a message and the fields named in the format.
// Falls back to the fully formatted message when the verbs cannot be paired with args.
func parseFormat(format string, args []any) (string, map[string]any) {
	matches := keyValuePattern.FindAllStringSubmatchIndex(format, -1)
	if len(matches) == 0 || len(matches) > len(args) || strings.Count(format, "%") != len(args) {
		return fmt.Sprintf(format, args...), nil
	}

	fields := make(map[string]any, len(matches))
	var msg strings.Builder
	lastEnd := 0
	argIndex := 0

	for _, match := range matches {
		// Text and verbs before this pair belong to the message
		if match[0] > lastEnd {
			prefix := format[lastEnd:match[0]]
			n := strings.Count(prefix, "%")
			msg.WriteString(fmt.Sprintf(prefix, args[argIndex:argIndex+n]...))
			argIndex += n
		}
		fields[format[match[2]:match[3]]] = args[argIndex]
		argIndex++
		lastEnd = match[1]
	}

	if lastEnd < len(format) {
		msg.WriteString(fmt.Sprintf(format[lastEnd:], args[argIndex:]...))
	}

	message := strings.Join(strings.Fields(msg.String()), " ")
	if message == "" {
		message = strings.TrimSpace(keyValuePattern.ReplaceAllString(format, "$1"))
	}
	return message, fields
}

// StructuredGnetAdapter provides enhanced structured logging for gnet
type StructuredGnetAdapter struct {
	*GnetAdapter
	extractFields bool
}

// NewStructuredGnetAdapter creates a gnet adapter with structured field extraction
func NewStructuredGnetAdapter(logger *netlog.Logger, opts ...GnetOption) *StructuredGnetAdapter {
	return &StructuredGnetAdapter{
		GnetAdapter:   NewGnetAdapter(logger, opts...),
		extractFields: true,
	}
}

func (a *StructuredGnetAdapter) logf(level int64, format string, args []any) {
	msg, fields := parseFormat(format, args)
	if fields == nil {
		fields = gnetFields()
	} else {
		fields["source"] = "gnet"
	}
	a.logger.LogStructured(level, msg, fields)
}

// Debugf logs with structured field extraction
func (a *StructuredGnetAdapter) Debugf(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Debugf(format, args...)
		return
	}
	a.logf(netlog.LevelDebug, format, args)
}

// Infof logs with structured field extraction
func (a *StructuredGnetAdapter) Infof(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Infof(format, args...)
		return
	}
	a.logf(netlog.LevelInfo, format, args)
}

// Warnf logs with structured field extraction
func (a *StructuredGnetAdapter) Warnf(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Warnf(format, args...)
		return
	}
	a.logf(netlog.LevelWarn, format, args)
}

// Errorf logs with structured field extraction
func (a *StructuredGnetAdapter) Errorf(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Errorf(format, args...)
		return
	}
	a.logf(netlog.LevelError, format, args)
}
