// Package formatter turns log records into newline-terminated byte strings.
package formatter

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/lixenwraith/netlog/sanitizer"
)

// DefaultTimestampFormat is local time with microseconds
const DefaultTimestampFormat = "2006-01-02T15:04:05.000000"

// Record is one log event before formatting
type Record struct {
	Time     time.Time
	Level    int64
	Category string
	File     string // Empty when caller capture is off
	Line     int
	Function string
	Trace    string
	Args     []any          // Joined with spaces into the message
	Fields   map[string]any // Structured fields, optional
}

// Formatter renders records. It reuses an internal buffer and is not safe for concurrent use;
// the returned slice is valid until the next call.
type Formatter struct {
	sanitizer       *sanitizer.Sanitizer
	format          string
	timestampFormat string
	pretty          bool
	pid             int
	buf             []byte
	msg             []byte
}

// New creates a JSON formatter with the provided sanitizer
func New(s ...*sanitizer.Sanitizer) *Formatter {
	san := sanitizer.New()
	if len(s) > 0 && s[0] != nil {
		san = s[0]
	}
	return &Formatter{
		sanitizer:       san,
		format:          "json",
		timestampFormat: DefaultTimestampFormat,
		pid:             os.Getpid(),
		buf:             make([]byte, 0, 1024),
		msg:             make([]byte, 0, 256),
	}
}

// Type sets the output format ("json" or "txt")
func (f *Formatter) Type(format string) *Formatter {
	f.format = format
	return f
}

// TimestampFormat sets the timestamp layout
func (f *Formatter) TimestampFormat(format string) *Formatter {
	if format != "" {
		f.timestampFormat = format
	}
	return f
}

// Pretty switches JSON output to one field per line
func (f *Formatter) Pretty(pretty bool) *Formatter {
	f.pretty = pretty
	return f
}

// Format renders rec in the configured format
func (f *Formatter) Format(rec Record) []byte {
	f.buf = f.buf[:0]
	if f.format == "txt" {
		return f.formatTxt(rec)
	}
	return f.formatJSON(rec)
}

// LevelToString buckets a numeric level into its name
func LevelToString(level int64) string {
	switch {
	case level < 0:
		return "DEBUG"
	case level < 4:
		return "INFO"
	case level < 8:
		return "WARN"
	case level < 12:
		return "ERROR"
	case level < 16:
		return "CRITICAL"
	default:
		return "PROC"
	}
}

// message joins args with single spaces, strings unquoted
func (f *Formatter) message(args []any) string {
	f.msg = f.msg[:0]
	serializer := sanitizer.NewSerializer("raw", f.sanitizer)
	for i, arg := range args {
		if i > 0 {
			f.msg = append(f.msg, ' ')
		}
		f.convertValue(&f.msg, arg, serializer)
	}
	return string(f.msg)
}

// convertValue provides unified type conversion
func (f *Formatter) convertValue(buf *[]byte, v any, serializer *sanitizer.Serializer) {
	switch val := v.(type) {
	case string:
		serializer.WriteString(buf, val)
	case []byte:
		serializer.WriteString(buf, string(val))
	case rune:
		var rb [utf8.UTFMax]byte
		n := utf8.EncodeRune(rb[:], val)
		serializer.WriteString(buf, string(rb[:n]))
	case int:
		serializer.WriteNumber(buf, strconv.FormatInt(int64(val), 10))
	case int64:
		serializer.WriteNumber(buf, strconv.FormatInt(val, 10))
	case uint:
		serializer.WriteNumber(buf, strconv.FormatUint(uint64(val), 10))
	case uint64:
		serializer.WriteNumber(buf, strconv.FormatUint(val, 10))
	case float32:
		serializer.WriteNumber(buf, strconv.FormatFloat(float64(val), 'f', -1, 32))
	case float64:
		serializer.WriteNumber(buf, strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		serializer.WriteBool(buf, val)
	case nil:
		serializer.WriteNil(buf)
	case time.Time:
		serializer.WriteString(buf, val.Format(f.timestampFormat))
	case time.Duration:
		serializer.WriteString(buf, val.String())
	case error:
		serializer.WriteString(buf, val.Error())
	case fmt.Stringer:
		serializer.WriteString(buf, val.String())
	default:
		serializer.WriteComplex(buf, val)
	}
}

// formatJSON writes the fixed field order timestamp, level, category, caller, pid, message
func (f *Formatter) formatJSON(rec Record) []byte {
	sep, indent := []byte(","), []byte(nil)
	colon := []byte(":")
	if f.pretty {
		sep, indent, colon = []byte(",\n"), []byte("  "), []byte(": ")
	}

	first := true
	key := func(name string) {
		if !first {
			f.buf = append(f.buf, sep...)
		}
		first = false
		f.buf = append(f.buf, indent...)
		f.buf = sanitizer.AppendJSONString(f.buf, name)
		f.buf = append(f.buf, colon...)
	}

	f.buf = append(f.buf, '{')
	if f.pretty {
		f.buf = append(f.buf, '\n')
	}

	key("timestamp")
	f.buf = append(f.buf, '"')
	f.buf = rec.Time.AppendFormat(f.buf, f.timestampFormat)
	f.buf = append(f.buf, '"')

	key("level")
	f.buf = sanitizer.AppendJSONString(f.buf, LevelToString(rec.Level))

	key("category")
	f.buf = sanitizer.AppendJSONString(f.buf, rec.Category)

	if rec.File != "" {
		key("file")
		f.buf = sanitizer.AppendJSONString(f.buf, rec.File)
		key("line")
		f.buf = strconv.AppendInt(f.buf, int64(rec.Line), 10)
		key("function")
		f.buf = sanitizer.AppendJSONString(f.buf, rec.Function)
	}

	key("pid")
	f.buf = strconv.AppendInt(f.buf, int64(f.pid), 10)

	key("message")
	f.buf = sanitizer.AppendJSONString(f.buf, f.message(rec.Args))

	if rec.Trace != "" {
		key("trace")
		f.buf = sanitizer.AppendJSONString(f.buf, rec.Trace)
	}

	if len(rec.Fields) > 0 {
		key("fields")
		var (
			fields []byte
			err    error
		)
		if f.pretty {
			fields, err = json.MarshalIndent(rec.Fields, "  ", "  ")
		} else {
			fields, err = json.Marshal(rec.Fields)
		}
		if err != nil {
			f.buf = append(f.buf, `{"_marshal_error":`...)
			f.buf = sanitizer.AppendJSONString(f.buf, err.Error())
			f.buf = append(f.buf, '}')
		} else {
			f.buf = append(f.buf, fields...)
		}
	}

	if f.pretty {
		f.buf = append(f.buf, '\n')
	}
	f.buf = append(f.buf, '}', '\n')
	return f.buf
}

// formatTxt writes "<time> <LEVEL> [category] file:line message key=value ..."
func (f *Formatter) formatTxt(rec Record) []byte {
	serializer := sanitizer.NewSerializer("txt", f.sanitizer)

	f.buf = rec.Time.AppendFormat(f.buf, f.timestampFormat)
	f.buf = append(f.buf, ' ')
	f.buf = append(f.buf, LevelToString(rec.Level)...)

	if rec.Category != "" {
		f.buf = append(f.buf, " ["...)
		f.buf = append(f.buf, f.sanitizer.Sanitize(rec.Category)...)
		f.buf = append(f.buf, ']')
	}

	if rec.File != "" {
		f.buf = append(f.buf, ' ')
		f.buf = append(f.buf, rec.File...)
		f.buf = append(f.buf, ':')
		f.buf = strconv.AppendInt(f.buf, int64(rec.Line), 10)
	}

	if rec.Trace != "" {
		f.buf = append(f.buf, ' ')
		f.buf = append(f.buf, f.sanitizer.Sanitize(rec.Trace)...)
	}

	if msg := f.message(rec.Args); msg != "" {
		f.buf = append(f.buf, ' ')
		f.buf = append(f.buf, msg...)
	}

	if len(rec.Fields) > 0 {
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			f.buf = append(f.buf, ' ')
			f.buf = append(f.buf, f.sanitizer.Sanitize(k)...)
			f.buf = append(f.buf, '=')
			f.convertValue(&f.buf, rec.Fields[k], serializer)
		}
	}

	f.buf = append(f.buf, '\n')
	return f.buf
}
