package netlog

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/valyala/bytebufferpool"
)

// LogWriter receives formatted messages from a Logger
type LogWriter interface {
	WriteMessage(msg []byte, flags uint32)
	Flush()
	TTYOutput() bool
	Close() error
}

// Writer ships messages to a remote collector over one connection.
// WriteMessage and Flush are safe from any goroutine and never block on the network.
// Connect, write and close completions and reconnect timer expiries run on one event loop goroutine.
type Writer struct {
	ep        Endpoint
	transport transport
	dialer    Dialer
	observer  DiscardObserver
	diag      io.Writer

	loop  *eventLoop
	timer *reconnectTimer

	mu    sync.Mutex
	state connState

	counters  counters
	startTime time.Time

	closeOnce sync.Once
	closeErr  error
}

// WriterOption customizes a Writer
type WriterOption func(*Writer)

// WithDialer replaces the default net.Dialer
func WithDialer(d Dialer) WriterOption {
	return func(w *Writer) {
		w.dialer = d
	}
}

// WithDiscardObserver registers an observer for dropped messages
func WithDiscardObserver(o DiscardObserver) WriterOption {
	return func(w *Writer) {
		w.observer = o
	}
}

// WithDiagnostics enables connection diagnostics on out
func WithDiagnostics(out io.Writer) WriterOption {
	return func(w *Writer) {
		w.diag = out
	}
}

// NewWriter validates ep, starts the event loop and begins connecting.
func NewWriter(ep Endpoint, opts ...WriterOption) (*Writer, error) {
	if err := ep.Validate(); err != nil {
		return nil, err
	}

	w := &Writer{
		ep:        ep,
		transport: transportFor(ep.Protocol),
		dialer:    &net.Dialer{},
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.dialer == nil {
		return nil, fmtErrorf("dialer cannot be nil")
	}

	w.loop = newEventLoop(w.teardown)
	w.timer = newReconnectTimer(w.loop, ep.ReconnectInterval, ep.MaxReconnectInterval, w.reconnect)
	w.timer.onPanic = func(r any) {
		w.internalLog("reconnect to %s panicked: %v\n", w.ep.Address(), r)
	}

	w.loop.post(w.connect)
	return w, nil
}

// WriteMessage queues a copy of msg for transmission, or drops it when the pending
// buffer cannot hold it and FlagNeverDiscard is not set.
func (w *Writer) WriteMessage(msg []byte, flags uint32) {
	b := bytebufferpool.Get()
	_, _ = b.Write(msg)

	w.mu.Lock()
	if w.state.closed {
		w.mu.Unlock()
		bytebufferpool.Put(b)
		w.discard(msg, DropClosed)
		return
	}
	if flags&FlagNeverDiscard == 0 && w.state.pendingBytes+int64(len(msg)) > w.ep.MaxBufferSize {
		w.mu.Unlock()
		bytebufferpool.Put(b)
		w.discard(msg, DropOverflow)
		return
	}
	w.state.push(b)
	usable := w.state.usable()
	w.mu.Unlock()

	if usable {
		w.loop.post(w.sendPending)
	}
}

// Flush requests a transmission attempt. It does not wait for completion.
func (w *Writer) Flush() {
	w.loop.post(w.sendPending)
}

// TTYOutput is always false for network output
func (w *Writer) TTYOutput() bool {
	return false
}

// Close cancels the reconnect timer, stops the event loop and waits for it and every
// helper goroutine to exit. Pending messages are discarded. Safe to call more than once.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		err := w.loop.stop()

		w.mu.Lock()
		w.state.closed = true
		w.dropSocketLocked()
		w.state.releaseDialed()
		w.state.connecting = false
		w.state.inflight = false
		discarded := len(w.state.queue)
		w.state.release()
		w.mu.Unlock()

		if err != nil {
			w.closeErr = fmtErrorf("event loop exited with error: %w", err)
		}
		w.internalLog("writer for %s closed, %d pending messages discarded\n", w.ep.Address(), discarded)
	})
	return w.closeErr
}

// Drain waits until every queued message has been transmitted or timeout elapses
func (w *Writer) Drain(timeout time.Duration) error {
	w.Flush()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		w.mu.Lock()
		closed := w.state.closed
		pending := len(w.state.queue)
		var emptied <-chan struct{}
		if !closed && pending > 0 {
			emptied = w.state.emptyWaiter()
		}
		w.mu.Unlock()

		if closed {
			return fmtErrorf("writer closed with %d pending messages", pending)
		}
		if pending == 0 {
			return nil
		}

		select {
		case <-emptied:
		case <-timer.C:
			w.mu.Lock()
			pending = len(w.state.queue)
			w.mu.Unlock()
			return fmtErrorf("timeout waiting for %d pending messages (%v)", pending, timeout)
		}
	}
}

// Endpoint returns the endpoint the writer was created with
func (w *Writer) Endpoint() Endpoint {
	return w.ep
}

// State returns the current lifecycle state
func (w *Writer) State() ConnState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

// Stats returns a snapshot of queue and connection statistics
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	st := Stats{
		State:           w.stateLocked(),
		PendingMessages: len(w.state.queue),
		PendingBytes:    w.state.pendingBytes,
	}
	w.mu.Unlock()

	st.SentMessages = w.counters.SentMessages.Load()
	st.SentBytes = w.counters.SentBytes.Load()
	st.DroppedMessages = w.counters.DroppedMessages.Load()
	st.DroppedBytes = w.counters.DroppedBytes.Load()
	st.ConnectAttempts = w.counters.ConnectAttempts.Load()
	st.ConnectFailures = w.counters.ConnectFailures.Load()
	st.WriteFailures = w.counters.WriteFailures.Load()
	st.Reconnects = w.counters.Reconnects.Load()
	st.LastError = w.counters.lastError()
	st.Uptime = time.Since(w.startTime)
	return st
}

func (w *Writer) stateLocked() ConnState {
	switch {
	case w.state.closed:
		return StateClosed
	case w.state.connecting:
		return StateConnecting
	case w.state.usable():
		return StateConnected
	case w.timer.pending():
		return StateReconnectScheduled
	default:
		return StateDisconnected
	}
}

// connect runs on the loop
func (w *Writer) connect() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.connectLocked(); err != nil {
		w.counters.setLastError(err)
		w.scheduleReconnectLocked()
	}
}

// connectLocked issues a connect attempt unless one is in flight or a usable socket exists
func (w *Writer) connectLocked() error {
	st := &w.state
	if st.closed || st.connecting || st.usable() {
		return nil
	}

	st.connecting = true
	w.counters.ConnectAttempts.Add(1)
	err := w.loop.spawn(func(ctx context.Context) {
		conn, err := w.dial(ctx)
		if conn != nil {
			// Close releases it if the result task is dropped
			w.mu.Lock()
			w.state.dialed = conn
			w.mu.Unlock()
		}
		w.loop.post(func() { w.onConnectResult(conn, err) })
	})
	if err != nil {
		st.connecting = false
		return fmtErrorf("failed to start connect to %s: %w", w.ep.Address(), err)
	}
	return nil
}

func (w *Writer) dial(ctx context.Context) (net.Conn, error) {
	if w.ep.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.ep.ConnectTimeout)
		defer cancel()
	}
	return w.transport.connect(ctx, w.dialer, w.ep.Address())
}

func (w *Writer) onConnectResult(conn net.Conn, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := &w.state
	st.connecting = false
	st.dialed = nil
	if st.closed {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err == nil && conn == nil {
		err = fmtErrorf("dialer returned no connection for %s", w.ep.Address())
	}
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		w.counters.ConnectFailures.Add(1)
		w.counters.setLastError(err)
		w.internalLog("connect to %s failed: %v\n", w.ep.Address(), err)
		w.scheduleReconnectLocked()
		return
	}

	s := newSocket(conn, w.ep.WriteTimeout)
	st.socket = s
	w.timer.reset()
	w.internalLog("connected to %s\n", w.ep.Address())

	if err := w.loop.spawn(func(context.Context) {
		readErr := s.watch()
		w.loop.post(func() { w.onSocketClosed(s, readErr) })
	}); err != nil {
		w.dropSocketLocked()
		return
	}

	w.sendPendingLocked()
}

// sendPending runs on the loop
func (w *Writer) sendPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sendPendingLocked()
}

// sendPendingLocked writes the queue head if nothing is in flight.
// The next head is sent from onWriteComplete.
func (w *Writer) sendPendingLocked() {
	st := &w.state
	if st.closed || st.inflight || !st.usable() {
		return
	}
	head := st.head()
	if head == nil {
		return
	}

	s := st.socket
	st.inflight = true
	if err := w.loop.spawn(func(context.Context) {
		n, err := s.write(head.B)
		w.loop.post(func() { w.onWriteComplete(s, n, err) })
	}); err != nil {
		st.inflight = false
	}
}

func (w *Writer) onWriteComplete(s *socket, n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := &w.state
	st.inflight = false
	if st.closed {
		return
	}
	if s != st.socket {
		// Completion from a discarded socket. A failed head stays queued for the current one.
		if err == nil && st.head() != nil {
			st.pop()
			w.counters.SentMessages.Add(1)
			w.counters.SentBytes.Add(uint64(n))
		}
		w.sendPendingLocked()
		return
	}

	if err == nil {
		st.pop()
		w.counters.SentMessages.Add(1)
		w.counters.SentBytes.Add(uint64(n))
		w.sendPendingLocked()
		return
	}

	w.counters.WriteFailures.Add(1)
	w.counters.setLastError(err)
	if s.usable() {
		w.sendPendingLocked()
		return
	}
	w.internalLog("write to %s failed: %v\n", w.ep.Address(), err)
	w.dropSocketLocked()
	w.scheduleReconnectLocked()
}

func (w *Writer) onSocketClosed(s *socket, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.closed || s != w.state.socket {
		return
	}
	w.counters.setLastError(err)
	w.internalLog("connection to %s closed: %v\n", w.ep.Address(), err)
	w.dropSocketLocked()
	w.scheduleReconnectLocked()
}

// reconnect runs on the loop when the reconnect timer expires
func (w *Writer) reconnect() {
	w.counters.Reconnects.Add(1)
	w.connect()
}

func (w *Writer) scheduleReconnectLocked() {
	if w.state.closed {
		return
	}
	if w.timer.schedule() {
		w.internalLog("reconnect to %s scheduled\n", w.ep.Address())
	}
}

func (w *Writer) dropSocketLocked() {
	if w.state.socket == nil {
		return
	}
	_ = w.state.socket.close()
	w.state.socket = nil
}

// teardown runs on the loop goroutine as it exits
func (w *Writer) teardown() {
	w.timer.cancel()
	w.mu.Lock()
	w.dropSocketLocked()
	w.state.releaseDialed()
	w.mu.Unlock()
}

func (w *Writer) discard(msg []byte, reason DropReason) {
	w.counters.DroppedMessages.Add(1)
	w.counters.DroppedBytes.Add(uint64(len(msg)))
	if w.observer != nil {
		w.observer.OnDiscard(msg, reason)
	}
}

// internalLog writes connection diagnostics, if enabled.
func (w *Writer) internalLog(format string, args ...any) {
	if w.diag == nil {
		return
	}
	if !strings.HasPrefix(format, "netlog: ") {
		format = "netlog: " + format
	}
	fmt.Fprintf(w.diag, format, args...)
}
