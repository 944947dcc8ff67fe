package formatter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lixenwraith/netlog/sanitizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() Record {
	return Record{
		Time:     time.Date(2024, 1, 1, 12, 0, 0, 123456000, time.UTC),
		Level:    0,
		Category: "app",
		File:     "main.go",
		Line:     42,
		Function: "main",
		Args:     []any{"hello", "world", 7},
	}
}

func TestFormatterJSON(t *testing.T) {
	t.Run("field order", func(t *testing.T) {
		f := New()
		out := string(f.Format(testRecord()))

		require.True(t, strings.HasSuffix(out, "}\n"))
		order := []string{`"timestamp"`, `"level"`, `"category"`, `"file"`, `"line"`, `"function"`, `"pid"`, `"message"`}
		last := -1
		for _, k := range order {
			idx := strings.Index(out, k)
			require.NotEqual(t, -1, idx, "missing %s", k)
			assert.Greater(t, idx, last, "%s out of order", k)
			last = idx
		}
	})

	t.Run("values", func(t *testing.T) {
		f := New()
		data := f.Format(testRecord())

		var result map[string]any
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, "2024-01-01T12:00:00.123456", result["timestamp"])
		assert.Equal(t, "INFO", result["level"])
		assert.Equal(t, "app", result["category"])
		assert.Equal(t, "main.go", result["file"])
		assert.Equal(t, float64(42), result["line"])
		assert.Equal(t, "hello world 7", result["message"])
		assert.NotContains(t, result, "trace")
		assert.NotContains(t, result, "fields")
	})

	t.Run("caller omitted", func(t *testing.T) {
		rec := testRecord()
		rec.File = ""
		out := string(New().Format(rec))
		assert.NotContains(t, out, `"file"`)
		assert.NotContains(t, out, `"line"`)
	})

	t.Run("escaping", func(t *testing.T) {
		rec := testRecord()
		rec.Args = []any{"quote\" back\\ nl\n tab\t ctl\x01 utf8 ü"}
		data := New().Format(rec)

		var result map[string]any
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, "quote\" back\\ nl\n tab\t ctl\x01 utf8 ü", result["message"])
		assert.Equal(t, 1, strings.Count(string(data), "\n"))
	})

	t.Run("trace and fields", func(t *testing.T) {
		rec := testRecord()
		rec.Trace = "a -> b"
		rec.Fields = map[string]any{"user": "u1", "n": 3}
		data := New().Format(rec)

		var result map[string]any
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, "a -> b", result["trace"])
		assert.Equal(t, map[string]any{"user": "u1", "n": float64(3)}, result["fields"])
	})

	t.Run("unmarshalable fields", func(t *testing.T) {
		rec := testRecord()
		rec.Fields = map[string]any{"ch": make(chan int)}
		data := New().Format(rec)

		var result map[string]any
		require.NoError(t, json.Unmarshal(data, &result))
		fields := result["fields"].(map[string]any)
		assert.Contains(t, fields, "_marshal_error")
	})

	t.Run("pretty", func(t *testing.T) {
		rec := testRecord()
		rec.Fields = map[string]any{"k": "v"}
		data := New().Pretty(true).Format(rec)
		out := string(data)

		assert.True(t, strings.HasPrefix(out, "{\n  \"timestamp\": "))
		assert.True(t, strings.HasSuffix(out, "\n}\n"))

		var result map[string]any
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, "hello world 7", result["message"])
	})

	t.Run("buffer reuse", func(t *testing.T) {
		f := New()
		first := string(f.Format(testRecord()))
		second := string(f.Format(testRecord()))
		assert.Equal(t, first, second)
	})
}

func TestFormatterTxt(t *testing.T) {
	t.Run("layout", func(t *testing.T) {
		f := New(sanitizer.New().Policy(sanitizer.PolicyTxt)).Type("txt")
		out := string(f.Format(testRecord()))
		assert.Equal(t, "2024-01-01T12:00:00.123456 INFO [app] main.go:42 hello world 7\n", out)
	})

	t.Run("fields sorted", func(t *testing.T) {
		rec := testRecord()
		rec.File = ""
		rec.Category = ""
		rec.Args = []any{"msg"}
		rec.Fields = map[string]any{"b": "two words", "a": 1}
		f := New().Type("txt").TimestampFormat(time.RFC3339)
		out := string(f.Format(rec))
		assert.Equal(t, `2024-01-01T12:00:00Z INFO msg a=1 b="two words"`+"\n", out)
	})

	t.Run("control characters encoded", func(t *testing.T) {
		rec := testRecord()
		rec.Args = []any{"line1\nline2"}
		f := New(sanitizer.New().Policy(sanitizer.PolicyTxt)).Type("txt")
		out := string(f.Format(rec))
		assert.Contains(t, out, "line1<0a>line2")
		assert.Equal(t, 1, strings.Count(out, "\n"))
	})

	t.Run("error value", func(t *testing.T) {
		rec := testRecord()
		rec.Args = []any{errors.New("boom")}
		out := string(New().Type("txt").Format(rec))
		assert.Contains(t, out, " boom\n")
	})
}

func TestLevelToString(t *testing.T) {
	tests := map[int64]string{
		-4: "DEBUG",
		0:  "INFO",
		2:  "INFO",
		4:  "WARN",
		8:  "ERROR",
		12: "CRITICAL",
		16: "PROC",
	}
	for level, want := range tests {
		assert.Equal(t, want, LevelToString(level), "level %d", level)
	}
}
