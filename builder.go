package netlog

import (
	"fmt"
	"io"
	"time"
)

// Builder provides a fluent API for building a network Logger.
// Errors are accumulated and reported by Build.
type Builder struct {
	cfg      *Config
	opts     []WriterOption
	err      error
	observer DiscardObserver
}

// NewBuilder creates a new builder with default values
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build validates the configuration, starts the Writer and returns a Logger bound to it
func (b *Builder) Build() (*Logger, error) {
	w, err := b.BuildWriter()
	if err != nil {
		return nil, err
	}

	logger := NewLogger()
	if err := logger.ApplyConfigWithOutput(b.cfg, w); err != nil {
		_ = w.Close()
		return nil, err
	}
	return logger, nil
}

// BuildWriter validates the configuration and starts a Writer without a Logger
func (b *Builder) BuildWriter() (*Writer, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	ep, err := b.cfg.Endpoint()
	if err != nil {
		return nil, err
	}

	opts := append([]WriterOption(nil), b.opts...)
	if b.observer != nil {
		opts = append(opts, WithDiscardObserver(b.observer))
	}
	return NewWriter(ep, opts...)
}

// Config returns a copy of the configuration built so far
func (b *Builder) Config() *Config {
	return b.cfg.Clone()
}

// Endpoint sets the collector host and port
func (b *Builder) Endpoint(host string, port int64) *Builder {
	b.cfg.Host = host
	b.cfg.Port = port
	return b
}

// Protocol sets the transport protocol ("tcp" or "udp")
func (b *Builder) Protocol(protocol string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseProtocol(protocol); err != nil {
		b.err = err
		return b
	}
	b.cfg.Protocol = protocol
	return b
}

// MaxBufferSize sets the pending buffer cap from a size string such as "4MB"
func (b *Builder) MaxBufferSize(size string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseSize(size); err != nil {
		b.err = err
		return b
	}
	b.cfg.MaxBufferSize = size
	return b
}

// ReconnectInterval sets the fixed reconnect delay
func (b *Builder) ReconnectInterval(d time.Duration) *Builder {
	b.cfg.ReconnectInterval = formatInterval(d)
	return b
}

// ReconnectBackoff enables exponential backoff from the reconnect interval up to max
func (b *Builder) ReconnectBackoff(max time.Duration) *Builder {
	b.cfg.MaxReconnectInterval = formatInterval(max)
	return b
}

// Level sets the log level.
func (b *Builder) Level(level int64) *Builder {
	b.cfg.Level = level
	return b
}

// LevelString sets the log level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	levelVal, err := Level(level)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = levelVal
	return b
}

// Category sets the category attached to every record
func (b *Builder) Category(category string) *Builder {
	b.cfg.Category = category
	return b
}

// Format sets the output format.
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// Pretty enables multi-line JSON records
func (b *Builder) Pretty(pretty bool) *Builder {
	b.cfg.Pretty = pretty
	return b
}

// HeartbeatIntervalS sets the heartbeat interval in seconds, 0 disables it
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// Dialer replaces the network dialer
func (b *Builder) Dialer(d Dialer) *Builder {
	b.opts = append(b.opts, WithDialer(d))
	return b
}

// OnDiscard registers a drop observer
func (b *Builder) OnDiscard(o DiscardObserver) *Builder {
	b.observer = o
	return b
}

// Diagnostics writes connection diagnostics to out
func (b *Builder) Diagnostics(out io.Writer) *Builder {
	b.opts = append(b.opts, WithDiagnostics(out))
	return b
}

// formatInterval renders d in the largest unit ParseInterval accepts without loss
func formatInterval(d time.Duration) string {
	switch {
	case d%time.Hour == 0 && d != 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0 && d != 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%ds", d/time.Second)
	default:
		return fmt.Sprintf("%dms", d/time.Millisecond)
	}
}

// Example usage:
// logger, err := netlog.NewBuilder().
//
//	Endpoint("collector.internal", 5170).
//	LevelString("debug").
//	MaxBufferSize("4MB").
//	Build()
//
// if err == nil {
//
//	defer logger.Shutdown()
//	logger.Info("Logger initialized successfully")
//
// }
