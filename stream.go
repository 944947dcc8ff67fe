package netlog

import (
	"io"
	"os"
	"sync"
)

// StreamWriter is a LogWriter over a local io.Writer such as os.Stderr.
// Writes are synchronous; nothing is queued or dropped.
type StreamWriter struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

// NewStreamWriter wraps w
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

func (s *StreamWriter) WriteMessage(msg []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_, _ = s.w.Write(msg)
}

// Flush syncs the underlying writer when it supports it
func (s *StreamWriter) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if syncer, ok := s.w.(interface{ Sync() error }); ok {
		_ = syncer.Sync()
	}
}

// TTYOutput reports whether the writer is a terminal
func (s *StreamWriter) TTYOutput() bool {
	f, ok := s.w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Close stops further writes. The underlying writer is left open.
func (s *StreamWriter) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
