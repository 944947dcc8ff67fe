package netlog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/lixenwraith/config"
)

// configPrefix is the TOML table holding netlog settings
const configPrefix = "netlog."

// Config holds all writer and logger configuration values
type Config struct {
	// Collector endpoint
	Host                 string `toml:"host"`
	Port                 int64  `toml:"port"`
	Protocol             string `toml:"protocol"`               // "tcp" or "udp"
	MaxBufferSize        string `toml:"max_buffer_size"`        // e.g. "1MB"
	ReconnectInterval    string `toml:"reconnect_interval"`     // e.g. "5s"
	MaxReconnectInterval string `toml:"max_reconnect_interval"` // "0s" keeps the interval fixed
	ConnectTimeout       string `toml:"connect_timeout"`
	WriteTimeout         string `toml:"write_timeout"`

	// Records
	Level           int64  `toml:"level"`
	Category        string `toml:"category"`
	Format          string `toml:"format"` // "json" or "txt"
	Pretty          bool   `toml:"pretty"` // Multi-line JSON
	TimestampFormat string `toml:"timestamp_format"`
	IncludeCaller   bool   `toml:"include_caller"`
	TraceDepth      int64  `toml:"trace_depth"` // Default trace depth (0-10)

	// Heartbeat
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // 0 disables the heartbeat

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Host:                 "",
	Port:                 0,
	Protocol:             "tcp",
	MaxBufferSize:        "1MB",
	ReconnectInterval:    "5s",
	MaxReconnectInterval: "0s",
	ConnectTimeout:       "5s",
	WriteTimeout:         "5s",

	Level:           LevelInfo,
	Category:        "",
	Format:          "json",
	Pretty:          false,
	TimestampFormat: "2006-01-02T15:04:05.000000",
	IncludeCaller:   true,
	TraceDepth:      0,

	HeartbeatIntervalS: 0,

	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads the [netlog] table of a TOML file and returns a validated Config
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct(configPrefix, *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	// A missing file leaves the defaults in place
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, configPrefix, cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies typed overrides keyed by toml name
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// extractConfig copies values found by the loader into cfg
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// Validate checks record settings and the collector endpoint
func (c *Config) Validate() error {
	if err := c.validateRecords(); err != nil {
		return err
	}
	_, err := c.Endpoint()
	return err
}

// validateRecords checks the settings a Logger needs regardless of its output
func (c *Config) validateRecords() error {
	if c.Format != "txt" && c.Format != "json" {
		return fmtErrorf("invalid format: '%s' (use txt or json)", c.Format)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if c.TraceDepth < 0 || c.TraceDepth > 10 {
		return fmtErrorf("trace_depth must be between 0 and 10: %d", c.TraceDepth)
	}

	if c.HeartbeatIntervalS < 0 {
		return fmtErrorf("heartbeat_interval_s cannot be negative: %d", c.HeartbeatIntervalS)
	}
	return nil
}

// Endpoint converts the collector settings into a validated Endpoint
func (c *Config) Endpoint() (Endpoint, error) {
	var ep Endpoint

	if strings.TrimSpace(c.Host) == "" {
		return ep, fmtErrorf("host cannot be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return ep, fmtErrorf("port must be between 0 and 65535: %d", c.Port)
	}

	protocol, err := ParseProtocol(c.Protocol)
	if err != nil {
		return ep, err
	}
	maxBuffer, err := ParseSize(c.MaxBufferSize)
	if err != nil {
		return ep, err
	}
	reconnect, err := ParseInterval(c.ReconnectInterval)
	if err != nil {
		return ep, err
	}
	maxReconnect, err := ParseInterval(c.MaxReconnectInterval)
	if err != nil {
		return ep, err
	}
	connectTimeout, err := ParseInterval(c.ConnectTimeout)
	if err != nil {
		return ep, err
	}
	writeTimeout, err := ParseInterval(c.WriteTimeout)
	if err != nil {
		return ep, err
	}

	ep = Endpoint{
		Host:                 c.Host,
		Port:                 uint16(c.Port),
		Protocol:             protocol,
		MaxBufferSize:        maxBuffer,
		ReconnectInterval:    reconnect,
		MaxReconnectInterval: maxReconnect,
		ConnectTimeout:       connectTimeout,
		WriteTimeout:         writeTimeout,
	}
	if err := ep.Validate(); err != nil {
		return Endpoint{}, err
	}
	return ep, nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}
