package netlog

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
)

// ConnState is the lifecycle state of a Writer's connection
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnectScheduled
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnectScheduled:
		return "reconnect_scheduled"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// connState is shared between caller goroutines and the event loop; guarded by Writer.mu.
// pendingBytes always equals the summed length of queue.
type connState struct {
	socket       *socket
	dialed       net.Conn // connected but not yet handed to onConnectResult
	queue        []*bytebufferpool.ByteBuffer
	pendingBytes int64
	connecting   bool
	inflight     bool // a write of queue[0] has not completed yet
	closed       bool
	emptied      chan struct{} // closed when the queue next becomes empty
}

func (s *connState) usable() bool {
	return s.socket != nil && s.socket.usable()
}

func (s *connState) push(b *bytebufferpool.ByteBuffer) {
	s.queue = append(s.queue, b)
	s.pendingBytes += int64(b.Len())
}

func (s *connState) head() *bytebufferpool.ByteBuffer {
	if len(s.queue) == 0 {
		return nil
	}
	return s.queue[0]
}

// pop removes the transmitted head and returns its buffer to the pool
func (s *connState) pop() int {
	b := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	n := b.Len()
	s.pendingBytes -= int64(n)
	bytebufferpool.Put(b)
	if len(s.queue) == 0 {
		s.notifyEmpty()
	}
	return n
}

// release discards every queued message
func (s *connState) release() {
	for i, b := range s.queue {
		bytebufferpool.Put(b)
		s.queue[i] = nil
	}
	s.queue = nil
	s.pendingBytes = 0
	s.notifyEmpty()
}

// emptyWaiter returns a channel closed once the queue is empty or released
func (s *connState) emptyWaiter() <-chan struct{} {
	if s.emptied == nil {
		s.emptied = make(chan struct{})
	}
	return s.emptied
}

func (s *connState) notifyEmpty() {
	if s.emptied != nil {
		close(s.emptied)
		s.emptied = nil
	}
}

// releaseDialed closes a connection whose result never reached the loop
func (s *connState) releaseDialed() {
	if s.dialed != nil {
		_ = s.dialed.Close()
		s.dialed = nil
	}
}

// counters are writer lifetime statistics, updated without holding Writer.mu
type counters struct {
	SentMessages    atomic.Uint64
	SentBytes       atomic.Uint64
	DroppedMessages atomic.Uint64
	DroppedBytes    atomic.Uint64
	ConnectAttempts atomic.Uint64
	ConnectFailures atomic.Uint64
	WriteFailures   atomic.Uint64
	Reconnects      atomic.Uint64 // Reconnect timer expiries
	LastError       atomic.Value  // stores errorHolder
}

// errorHolder keeps atomic.Value on one concrete type
type errorHolder struct {
	err error
}

func (c *counters) setLastError(err error) {
	c.LastError.Store(errorHolder{err: err})
}

func (c *counters) lastError() error {
	if h, ok := c.LastError.Load().(errorHolder); ok {
		return h.err
	}
	return nil
}

// Stats is a point-in-time snapshot of a Writer
type Stats struct {
	State           ConnState
	PendingMessages int
	PendingBytes    int64
	SentMessages    uint64
	SentBytes       uint64
	DroppedMessages uint64
	DroppedBytes    uint64
	ConnectAttempts uint64
	ConnectFailures uint64
	WriteFailures   uint64
	Reconnects      uint64
	LastError       error
	Uptime          time.Duration
}

// State encapsulates the runtime state of a Logger
type State struct {
	IsInitialized  atomic.Bool
	ShutdownCalled atomic.Bool

	// Heartbeat statistics
	HeartbeatSequence  atomic.Uint64 // Counter for heartbeat sequence numbers
	LoggerStartTime    atomic.Value  // Stores time.Time for uptime calculation
	TotalLogsProcessed atomic.Uint64 // Records handed to the output, heartbeats excluded
}
