package netlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStreamWriter verifies synchronous local output
func TestStreamWriter(t *testing.T) {
	var buf bytes.Buffer
	sw := NewStreamWriter(&buf)

	sw.WriteMessage([]byte("one\n"), 0)
	sw.WriteMessage([]byte("two\n"), FlagNeverDiscard)
	sw.Flush()
	assert.Equal(t, "one\ntwo\n", buf.String())
	assert.False(t, sw.TTYOutput())

	require.NoError(t, sw.Close())
	sw.WriteMessage([]byte("three\n"), 0)
	assert.Equal(t, "one\ntwo\n", buf.String())
}

// TestStreamWriterFile verifies that regular files are not treated as terminals
func TestStreamWriterFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	defer f.Close()

	sw := NewStreamWriter(f)
	assert.False(t, sw.TTYOutput())

	logger := NewLogger()
	cfg := DefaultConfig()
	cfg.Format = "txt"
	require.NoError(t, logger.ApplyConfigWithOutput(cfg, sw))
	logger.Info("to file")
	require.NoError(t, logger.Shutdown())

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "to file\n"))
}

// TestDefaultLogger verifies the package-level functions
func TestDefaultLogger(t *testing.T) {
	var buf syncBuffer
	original := defaultLogger
	defer func() { defaultLogger = original }()

	defaultLogger = NewLogger()
	cfg := DefaultConfig()
	cfg.Level = LevelDebug
	require.NoError(t, defaultLogger.ApplyConfigWithOutput(cfg, NewStreamWriter(&buf)))
	assert.Same(t, defaultLogger, Default())

	Debug("pkg debug")
	Info("pkg info")
	SetLevel(LevelError)
	Warn("filtered")
	Error("pkg error")
	Critical("pkg critical")
	LogStructured(LevelCritical, "pkg structured", map[string]any{"k": "v"})
	Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	levels := []string{"DEBUG", "INFO", "ERROR", "CRITICAL", "CRITICAL"}
	for i, line := range lines {
		r := decode(t, line)
		assert.Equal(t, levels[i], r["level"])
		assert.Equal(t, "stream_test.go", r["file"])
	}

	require.NoError(t, Shutdown())
	assert.Error(t, InitWithOverrides("format=xml"))
}
