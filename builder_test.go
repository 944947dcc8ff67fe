package netlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilder verifies building a logger bound to a network writer
func TestBuilder(t *testing.T) {
	d := &fakeDialer{}
	logger, err := NewBuilder().
		Endpoint("collector.test", 5170).
		LevelString("debug").
		MaxBufferSize("64KB").
		ReconnectInterval(20 * time.Millisecond).
		ReconnectBackoff(time.Second).
		Category("builder").
		Dialer(d).
		Build()
	require.NoError(t, err)
	defer logger.Shutdown()

	cfg := logger.GetConfig()
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.Equal(t, "64KB", cfg.MaxBufferSize)
	assert.Equal(t, "20ms", cfg.ReconnectInterval)
	assert.Equal(t, "1s", cfg.MaxReconnectInterval)

	w, ok := logger.Output().(*Writer)
	require.True(t, ok)
	ep := w.Endpoint()
	assert.Equal(t, int64(64*1024), ep.MaxBufferSize)
	assert.Equal(t, time.Second, ep.MaxReconnectInterval)

	logger.Debug("built")
	require.NoError(t, w.Drain(2*time.Second))
	msgs := d.conn(0).messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], `"category":"builder"`)
}

// TestBuilderErrors verifies that the first error is reported by Build
func TestBuilderErrors(t *testing.T) {
	_, err := NewBuilder().Endpoint("h", 1).Protocol("sctp").LevelString("loud").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid protocol")

	_, err = NewBuilder().Endpoint("h", 1).MaxBufferSize("big").BuildWriter()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid size")

	_, err = NewBuilder().Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host cannot be empty")

	_, err = NewBuilder().Endpoint("h", 1).Format("xml").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

// TestBuilderWriter verifies building a standalone writer with a discard observer
func TestBuilderWriter(t *testing.T) {
	drops := &dropRecorder{}
	w, err := NewBuilder().
		Endpoint("collector.test", 5170).
		MaxBufferSize("4B").
		ReconnectInterval(time.Hour).
		Dialer(&fakeDialer{failAll: true}).
		OnDiscard(drops).
		BuildWriter()
	require.NoError(t, err)
	defer w.Close()

	w.WriteMessage([]byte("too long"), 0)
	msgs, reasons := drops.snapshot()
	assert.Equal(t, []string{"too long"}, msgs)
	assert.Equal(t, []DropReason{DropOverflow}, reasons)
}

// TestFormatInterval verifies duration rendering accepted by ParseInterval
func TestFormatInterval(t *testing.T) {
	for d, want := range map[time.Duration]string{
		0:                       "0s",
		250 * time.Millisecond:  "250ms",
		1500 * time.Millisecond: "1500ms",
		5 * time.Second:         "5s",
		90 * time.Second:        "90s",
		2 * time.Minute:         "2m",
		3 * time.Hour:           "3h",
	} {
		got := formatInterval(d)
		assert.Equal(t, want, got)
		parsed, err := ParseInterval(got)
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
}
