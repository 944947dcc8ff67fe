package netlog

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedProtocol is reported by every connect attempt of an endpoint whose protocol has no transport
var ErrUnsupportedProtocol = errors.New("unsupported protocol")

// Protocol selects the transport used to reach the collector
type Protocol int

const (
	ProtocolTCP Protocol = iota
	ProtocolUDP
)

// String returns the lowercase protocol name
func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "tcp"
	case ProtocolUDP:
		return "udp"
	default:
		return "protocol(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParseProtocol converts "tcp" or "udp" (any case) to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return ProtocolTCP, nil
	case "udp":
		return ProtocolUDP, nil
	default:
		return 0, fmtErrorf("invalid protocol: '%s' (use tcp or udp)", s)
	}
}

// Dialer opens network connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// transport connects to an address for one protocol variant
type transport interface {
	connect(ctx context.Context, d Dialer, address string) (net.Conn, error)
}

// streamTransport delivers queued buffers as one TCP byte stream
type streamTransport struct{}

func (streamTransport) connect(ctx context.Context, d Dialer, address string) (net.Conn, error) {
	return d.DialContext(ctx, "tcp", address)
}

// unsupportedTransport fails every attempt without touching the network
type unsupportedTransport struct {
	protocol Protocol
}

func (u unsupportedTransport) connect(context.Context, Dialer, string) (net.Conn, error) {
	return nil, fmtErrorf("%w: %s", ErrUnsupportedProtocol, u.protocol)
}

func transportFor(p Protocol) transport {
	if p == ProtocolTCP {
		return streamTransport{}
	}
	return unsupportedTransport{protocol: p}
}

// Endpoint is the immutable collector address and buffering policy of a Writer
type Endpoint struct {
	Host                 string
	Port                 uint16
	Protocol             Protocol
	MaxBufferSize        int64         // Cap on queued bytes; messages beyond it are dropped
	ReconnectInterval    time.Duration // Delay before a reconnect attempt
	MaxReconnectInterval time.Duration // 0 keeps the interval fixed, otherwise the backoff ceiling
	ConnectTimeout       time.Duration // 0 waits for the dialer
	WriteTimeout         time.Duration // 0 disables write deadlines
}

// NewEndpoint returns a TCP endpoint with default buffering and timing
func NewEndpoint(host string, port uint16) Endpoint {
	return Endpoint{
		Host:              host,
		Port:              port,
		Protocol:          ProtocolTCP,
		MaxBufferSize:     defaultMaxBufferSize,
		ReconnectInterval: defaultReconnectInterval,
		ConnectTimeout:    defaultConnectTimeout,
		WriteTimeout:      defaultWriteTimeout,
	}
}

// Address returns host:port
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// Validate checks the endpoint before any writer is started
func (e Endpoint) Validate() error {
	if strings.TrimSpace(e.Host) == "" {
		return fmtErrorf("host cannot be empty")
	}
	if e.Protocol != ProtocolTCP && e.Protocol != ProtocolUDP {
		return fmtErrorf("invalid protocol: %s", e.Protocol)
	}
	if e.MaxBufferSize <= 0 {
		return fmtErrorf("max_buffer_size must be positive: %d", e.MaxBufferSize)
	}
	if e.ReconnectInterval <= 0 {
		return fmtErrorf("reconnect_interval must be positive: %v", e.ReconnectInterval)
	}
	if e.MaxReconnectInterval != 0 && e.MaxReconnectInterval < e.ReconnectInterval {
		return fmtErrorf("max_reconnect_interval (%v) cannot be less than reconnect_interval (%v)",
			e.MaxReconnectInterval, e.ReconnectInterval)
	}
	if e.ConnectTimeout < 0 || e.WriteTimeout < 0 {
		return fmtErrorf("timeouts cannot be negative")
	}
	return nil
}
