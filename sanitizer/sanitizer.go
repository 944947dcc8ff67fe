// Package sanitizer cleans strings embedded in log records and serializes
// values for the json and txt record formats.
package sanitizer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
)

// Filter flags for character matching
const (
	FilterNonPrintable uint64 = 1 << iota // Runes rejected by strconv.IsPrint
	FilterControl                         // unicode.IsControl
	FilterWhitespace                      // unicode.IsSpace
)

// Transform flags for character transformation
const (
	TransformStrip      uint64 = 1 << iota // Drop the rune
	TransformHexEncode                     // UTF-8 bytes as "<XXYY>"
	TransformJSONEscape                    // Backslash escape, \u00XX for other controls
)

// PolicyPreset names a pre-configured rule set
type PolicyPreset string

const (
	PolicyRaw  PolicyPreset = "raw"  // Passthrough
	PolicyJSON PolicyPreset = "json" // Strings embedded in JSON records
	PolicyTxt  PolicyPreset = "txt"  // Strings written to terminals and text sinks
)

type rule struct {
	filter    uint64
	transform uint64
}

var policyRules = map[PolicyPreset][]rule{
	PolicyRaw:  {},
	PolicyTxt:  {{filter: FilterNonPrintable, transform: TransformHexEncode}},
	PolicyJSON: {{filter: FilterControl, transform: TransformJSONEscape}},
}

// filterOrder fixes the evaluation order of filter flags
var filterOrder = []struct {
	flag  uint64
	match func(rune) bool
}{
	{FilterNonPrintable, func(r rune) bool { return !strconv.IsPrint(r) }},
	{FilterControl, unicode.IsControl},
	{FilterWhitespace, unicode.IsSpace},
}

// Sanitizer applies rules rune by rune. Not safe for concurrent use.
type Sanitizer struct {
	rules []rule
	buf   []byte
}

// New creates a passthrough Sanitizer
func New() *Sanitizer {
	return &Sanitizer{buf: make([]byte, 0, 256)}
}

// Rule appends a custom rule; earlier rules win
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy appends the rules of a preset
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	s.rules = append(s.rules, policyRules[preset]...)
	return s
}

// Sanitize applies the configured rules to data
func (s *Sanitizer) Sanitize(data string) string {
	if len(s.rules) == 0 {
		return data
	}
	s.buf = s.buf[:0]
	for _, r := range data {
		s.buf = s.apply(s.buf, r)
	}
	return string(s.buf)
}

func (s *Sanitizer) apply(dst []byte, r rune) []byte {
	for _, rl := range s.rules {
		if matches(r, rl.filter) {
			return transform(dst, r, rl.transform)
		}
	}
	return utf8.AppendRune(dst, r)
}

func matches(r rune, mask uint64) bool {
	for _, f := range filterOrder {
		if mask&f.flag != 0 && f.match(r) {
			return true
		}
	}
	return false
}

func transform(dst []byte, r rune, mask uint64) []byte {
	switch {
	case mask&TransformStrip != 0:
		return dst
	case mask&TransformHexEncode != 0:
		var rb [utf8.UTFMax]byte
		n := utf8.EncodeRune(rb[:], r)
		dst = append(dst, '<')
		dst = append(dst, hex.EncodeToString(rb[:n])...)
		return append(dst, '>')
	case mask&TransformJSONEscape != 0:
		return appendEscapedRune(dst, r)
	}
	return utf8.AppendRune(dst, r)
}

// appendEscapedRune escapes quote, backslash and control runes; anything else is copied
func appendEscapedRune(dst []byte, r rune) []byte {
	switch r {
	case '"':
		return append(dst, '\\', '"')
	case '\\':
		return append(dst, '\\', '\\')
	case '\b':
		return append(dst, '\\', 'b')
	case '\f':
		return append(dst, '\\', 'f')
	case '\n':
		return append(dst, '\\', 'n')
	case '\r':
		return append(dst, '\\', 'r')
	case '\t':
		return append(dst, '\\', 't')
	}
	if r < 0x20 || r == 0x7f {
		return fmt.Appendf(dst, "\\u%04x", r)
	}
	return utf8.AppendRune(dst, r)
}

// AppendJSONString appends s as a quoted JSON string. Multi-byte UTF-8 is kept as is.
func AppendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' && c != 0x7f {
			continue
		}
		dst = append(dst, s[start:i]...)
		dst = appendEscapedRune(dst, rune(c))
		start = i + 1
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}

// Serializer writes values for one record format
type Serializer struct {
	format    string
	sanitizer *Sanitizer
}

// NewSerializer creates a serializer for "json", "txt" or "raw"
func NewSerializer(format string, san *Sanitizer) *Serializer {
	if san == nil {
		san = New()
	}
	return &Serializer{format: format, sanitizer: san}
}

// WriteString writes s quoted and escaped as the format requires
func (se *Serializer) WriteString(buf *[]byte, s string) {
	switch se.format {
	case "json":
		// Escaping is complete here, rules would double escape
		*buf = AppendJSONString(*buf, s)

	case "txt":
		sanitized := se.sanitizer.Sanitize(s)
		if !se.NeedsQuotes(sanitized) {
			*buf = append(*buf, sanitized...)
			return
		}
		*buf = append(*buf, '"')
		for i := 0; i < len(sanitized); i++ {
			if sanitized[i] == '"' || sanitized[i] == '\\' {
				*buf = append(*buf, '\\')
			}
			*buf = append(*buf, sanitized[i])
		}
		*buf = append(*buf, '"')

	default:
		*buf = append(*buf, se.sanitizer.Sanitize(s)...)
	}
}

// WriteNumber writes a pre-formatted number
func (se *Serializer) WriteNumber(buf *[]byte, n string) {
	*buf = append(*buf, n...)
}

// WriteBool writes a boolean value
func (se *Serializer) WriteBool(buf *[]byte, b bool) {
	*buf = strconv.AppendBool(*buf, b)
}

// WriteNil writes a nil value
func (se *Serializer) WriteNil(buf *[]byte) {
	if se.format == "raw" {
		*buf = append(*buf, "nil"...)
		return
	}
	*buf = append(*buf, "null"...)
}

// WriteComplex writes structs, maps and slices. Raw output is a spew dump for debugging.
func (se *Serializer) WriteComplex(buf *[]byte, v any) {
	if se.format != "raw" {
		se.WriteString(buf, fmt.Sprintf("%+v", v))
		return
	}
	var b bytes.Buffer
	dumper := &spew.ConfigState{
		Indent:                  " ",
		MaxDepth:                10,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	dumper.Fdump(&b, v)
	*buf = append(*buf, bytes.TrimSpace(b.Bytes())...)
}

// NeedsQuotes reports whether a txt value must be quoted to stay one token
func (se *Serializer) NeedsQuotes(s string) bool {
	switch se.format {
	case "json":
		return true
	case "txt":
		if s == "" {
			return true
		}
		for _, r := range s {
			if unicode.IsSpace(r) || !unicode.IsPrint(r) {
				return true
			}
			switch r {
			case '"', '\'', '\\', '=', '`', '$', '|', ';', '&', '<', '>', '#':
				return true
			}
		}
		return false
	default:
		return false
	}
}
