package sanitizer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePolicies(t *testing.T) {
	tests := []struct {
		name     string
		policy   PolicyPreset
		input    string
		expected string
	}{
		{"raw passes through", PolicyRaw, "hello\x00world\n", "hello\x00world\n"},
		{"txt hex encodes null", PolicyTxt, "test\x00data", "test<00>data"},
		{"txt hex encodes controls", PolicyTxt, "bell\x07tab\x09", "bell<07>tab<09>"},
		{"txt keeps printable", PolicyTxt, "Hello World 123!@#", "Hello World 123!@#"},
		{"txt keeps utf8", PolicyTxt, "Hello 世界 ✓", "Hello 世界 ✓"},
		{"txt multi-byte control", PolicyTxt, "line1\u0085line2", "line1<c285>line2"},
		{"json escapes newline", PolicyJSON, "a\nb", `a\nb`},
		{"json escapes del", PolicyJSON, "a\x7fb", `a\u007fb`},
		{"json keeps utf8", PolicyJSON, "ümlaut", "ümlaut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New().Policy(tt.policy)
			assert.Equal(t, tt.expected, s.Sanitize(tt.input))
		})
	}
}

func TestCustomRules(t *testing.T) {
	t.Run("strip whitespace", func(t *testing.T) {
		s := New().Rule(FilterWhitespace, TransformStrip)
		assert.Equal(t, "abc", s.Sanitize("a b\tc"))
	})

	t.Run("first rule wins", func(t *testing.T) {
		s := New().
			Rule(FilterControl, TransformStrip).
			Rule(FilterControl, TransformHexEncode)
		assert.Equal(t, "ab", s.Sanitize("a\x01b"))
	})
}

func TestAppendJSONString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", `"hello"`},
		{"quote and backslash", `say "hi" \o/`, `"say \"hi\" \\o/"`},
		{"short escapes", "\b\f\n\r\t", `"\b\f\n\r\t"`},
		{"other controls", "\x01\x1f", `"\u0001\u001f"`},
		{"del", "\x7f", `"\u007f"`},
		{"multi-byte", "naïve 日本", `"naïve 日本"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppendJSONString(nil, tt.input)
			assert.Equal(t, tt.want, string(got))

			var decoded string
			require.NoError(t, json.Unmarshal(got, &decoded))
			assert.Equal(t, tt.input, decoded)
		})
	}
}

func TestSerializer(t *testing.T) {
	t.Run("txt quotes when needed", func(t *testing.T) {
		se := NewSerializer("txt", New())
		var buf []byte
		se.WriteString(&buf, "plain")
		buf = append(buf, ' ')
		se.WriteString(&buf, "two words")
		buf = append(buf, ' ')
		se.WriteString(&buf, "")
		assert.Equal(t, `plain "two words" ""`, string(buf))
	})

	t.Run("json always quotes", func(t *testing.T) {
		se := NewSerializer("json", New())
		var buf []byte
		se.WriteString(&buf, "x")
		assert.Equal(t, `"x"`, string(buf))
	})

	t.Run("nil per format", func(t *testing.T) {
		var raw, js []byte
		NewSerializer("raw", nil).WriteNil(&raw)
		NewSerializer("json", nil).WriteNil(&js)
		assert.Equal(t, "nil", string(raw))
		assert.Equal(t, "null", string(js))
	})

	t.Run("raw complex uses dump", func(t *testing.T) {
		se := NewSerializer("raw", New())
		var buf []byte
		se.WriteComplex(&buf, map[string]int{"b": 2, "a": 1})
		out := string(buf)
		assert.Contains(t, out, `"a": (int) 1`)
		assert.Less(t, strings.Index(out, `"a"`), strings.Index(out, `"b"`))
	})

	t.Run("json complex is a string", func(t *testing.T) {
		se := NewSerializer("json", New())
		var buf []byte
		se.WriteComplex(&buf, struct{ A int }{A: 7})
		assert.Equal(t, `"{A:7}"`, string(buf))
	})
}
