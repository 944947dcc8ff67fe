package netlog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSize verifies byte size parsing
func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"512B", 512, false},
		{"1KB", 1024, false},
		{"4 MB", 4 * 1024 * 1024, false},
		{"2gb", 2 * 1024 * 1024 * 1024, false},
		{" 10KB ", 10 * 1024, false},
		{"10", 0, true},
		{"KB", 0, true},
		{"-1KB", 0, true},
		{"1TB", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParseInterval verifies duration parsing
func TestParseInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"250ms", 250 * time.Millisecond, false},
		{"5s", 5 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"1H", time.Hour, false},
		{"0s", 0, false},
		{"1.5s", 0, true},
		{"5d", 0, true},
		{"s", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestLevel verifies level name conversion
func TestLevel(t *testing.T) {
	for name, want := range map[string]int64{
		"debug":    LevelDebug,
		"INFO":     LevelInfo,
		" warn ":   LevelWarn,
		"error":    LevelError,
		"critical": LevelCritical,
		"proc":     LevelProc,
	} {
		got, err := Level(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := Level("verbose")
	assert.Error(t, err)
}

// TestParseProtocol verifies protocol name conversion
func TestParseProtocol(t *testing.T) {
	p, err := ParseProtocol("TCP")
	require.NoError(t, err)
	assert.Equal(t, ProtocolTCP, p)
	assert.Equal(t, "tcp", p.String())

	p, err = ParseProtocol("udp")
	require.NoError(t, err)
	assert.Equal(t, ProtocolUDP, p)

	_, err = ParseProtocol("quic")
	assert.Error(t, err)
	assert.Equal(t, "protocol(7)", Protocol(7).String())
}

// TestParseKeyValue verifies override string splitting
func TestParseKeyValue(t *testing.T) {
	key, value, err := parseKeyValue(" host = collector=1 ")
	require.NoError(t, err)
	assert.Equal(t, "host", key)
	assert.Equal(t, "collector=1", value)

	_, _, err = parseKeyValue("=value")
	assert.Error(t, err)
	_, _, err = parseKeyValue("novalue")
	assert.Error(t, err)
}

// TestShortFuncName verifies package path stripping and closure naming
func TestShortFuncName(t *testing.T) {
	assert.Equal(t, "Info", shortFuncName("github.com/lixenwraith/netlog.(*Logger).Info"))
	assert.Equal(t, "main", shortFuncName("main.main"))
	assert.Equal(t, "(anonymous in netlog.TestX)", shortFuncName("github.com/lixenwraith/netlog.TestX.func1"))
}

// TestGetTrace verifies that traces list callers outermost first
func TestGetTrace(t *testing.T) {
	assert.Empty(t, getTrace(0, 1))
	assert.Empty(t, getTrace(11, 1))

	trace := traceHelperOuter()
	parts := strings.Split(trace, " -> ")
	require.Len(t, parts, 2)
	assert.Equal(t, "traceHelperOuter", parts[0])
	assert.Equal(t, "traceHelperInner", parts[1])
}

func traceHelperOuter() string {
	return traceHelperInner()
}

func traceHelperInner() string {
	return getTrace(2, 1)
}

// TestCombineErrors verifies error joining
func TestCombineErrors(t *testing.T) {
	e1 := fmtErrorf("first")
	e2 := fmtErrorf("second")

	assert.Nil(t, combineErrors(nil, nil))
	assert.Equal(t, e1, combineErrors(e1, nil))
	assert.Equal(t, e2, combineErrors(nil, e2))

	combined := combineErrors(e1, e2)
	assert.ErrorIs(t, combined, e2)
	assert.Equal(t, "netlog: first; netlog: second", combined.Error())
}
