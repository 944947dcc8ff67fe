package netlog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	errRefused    = errors.New("connection refused")
	errBrokenPipe = errors.New("broken pipe")
)

// fakeConn records writes and blocks reads until closed
type fakeConn struct {
	mu         sync.Mutex
	writes     [][]byte
	failWrites int           // number of writes to fail before accepting
	writeGate  chan struct{} // when set, writes wait for it after the closed check

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) Read(p []byte) (int, error) {
	<-c.closed
	return 0, io.EOF
}

func (c *fakeConn) Write(p []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, net.ErrClosed
	default:
	}
	if c.writeGate != nil {
		<-c.writeGate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites > 0 {
		c.failWrites--
		return 0, errBrokenPipe
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.writes))
	for i, w := range c.writes {
		out[i] = string(w)
	}
	return out
}

func (c *fakeConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

// fakeDialer fails or succeeds according to script, then succeeds unless failAll is set
type fakeDialer struct {
	mu        sync.Mutex
	script    []error
	failAll   bool
	gate      chan struct{} // when set, every attempt waits for it or ctx
	configure func(attempt int, c *fakeConn)
	attempts  []time.Time
	conns     []*fakeConn
}

func (d *fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	i := len(d.attempts)
	d.attempts = append(d.attempts, time.Now())
	gate := d.gate
	var err error
	switch {
	case i < len(d.script):
		err = d.script[i]
	case d.failAll:
		err = errRefused
	}
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	c := newFakeConn()
	if d.configure != nil {
		d.configure(i, c)
	}
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	return c, nil
}

func (d *fakeDialer) attemptCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.attempts)
}

func (d *fakeDialer) attemptTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.attempts...)
}

// conn returns the i-th established connection, nil if it does not exist yet
func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

// dropRecorder collects discarded messages
type dropRecorder struct {
	mu      sync.Mutex
	msgs    []string
	reasons []DropReason
}

func (r *dropRecorder) OnDiscard(msg []byte, reason DropReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, string(msg))
	r.reasons = append(r.reasons, reason)
}

func (r *dropRecorder) snapshot() ([]string, []DropReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...), append([]DropReason(nil), r.reasons...)
}

// testEndpoint returns a TCP endpoint with short timings
func testEndpoint() Endpoint {
	ep := NewEndpoint("collector.test", 5170)
	ep.ReconnectInterval = 20 * time.Millisecond
	ep.ConnectTimeout = time.Second
	ep.WriteTimeout = time.Second
	return ep
}

// createTestWriter starts a writer that is closed when the test ends
func createTestWriter(t *testing.T, ep Endpoint, opts ...WriterOption) *Writer {
	t.Helper()
	w, err := NewWriter(ep, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// syncBuffer is a bytes.Buffer safe for concurrent writers
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
