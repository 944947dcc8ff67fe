package netlog

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// socket is one established connection attempt. It is discarded on any failure.
type socket struct {
	conn         net.Conn
	writeTimeout time.Duration
	healthy      atomic.Bool
	closeOnce    sync.Once
}

func newSocket(conn net.Conn, writeTimeout time.Duration) *socket {
	s := &socket{conn: conn, writeTimeout: writeTimeout}
	s.healthy.Store(true)
	return s
}

// usable reports whether the transport still accepts writes
func (s *socket) usable() bool {
	return s.healthy.Load()
}

// write sends p in one call. A timeout that wrote nothing leaves the socket usable.
func (s *socket) write(p []byte) (int, error) {
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	n, err := s.conn.Write(p)
	if err != nil && !(n == 0 && isTimeout(err)) {
		s.healthy.Store(false)
	}
	return n, err
}

// watch blocks until the peer closes the connection or a read fails.
// Collector replies are discarded.
func (s *socket) watch() error {
	_, err := io.Copy(io.Discard, s.conn)
	s.healthy.Store(false)
	if err == nil {
		err = io.EOF
	}
	return err
}

func (s *socket) close() error {
	var err error
	s.closeOnce.Do(func() {
		s.healthy.Store(false)
		err = s.conn.Close()
	})
	return err
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
