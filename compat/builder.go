package compat

import (
	"fmt"

	"github.com/lixenwraith/netlog"
)

// Builder creates gnet and fasthttp adapters around one shared logger.
// The logger is either supplied with WithLogger or built from WithConfig.
type Builder struct {
	logger *netlog.Logger
	logCfg *netlog.Config
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger specifies an existing logger to use for the adapters.
// If this is set WithConfig is ignored.
func (b *Builder) WithLogger(l *netlog.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("netlog/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig provides the configuration of a new network logger.
// Used only when no logger was supplied with WithLogger.
func (b *Builder) WithConfig(cfg *netlog.Config) *Builder {
	b.logCfg = cfg
	return b
}

// getLogger resolves the logger to be used, creating one if necessary
func (b *Builder) getLogger() (*netlog.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.logger != nil {
		return b.logger, nil
	}
	if b.logCfg == nil {
		return nil, fmt.Errorf("netlog/compat: a logger or a config with a collector endpoint is required")
	}

	l := netlog.NewLogger()
	if err := l.ApplyConfig(b.logCfg); err != nil {
		return nil, err
	}

	// Cache for subsequent builds with this builder
	b.logger = l
	return l, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildStructuredGnet creates a gnet adapter that extracts key=value fields from format strings
func (b *Builder) BuildStructuredGnet(opts ...GnetOption) (*StructuredGnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewStructuredGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// GetLogger returns the underlying logger, creating it if needed
func (b *Builder) GetLogger() (*netlog.Logger, error) {
	return b.getLogger()
}
