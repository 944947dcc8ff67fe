package netlog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ApplyOverride applies "key=value" overrides to the configuration in place.
// All malformed entries are reported together; c is left unchanged on error.
//
// Example:
//
//	cfg := netlog.DefaultConfig()
//	err := cfg.ApplyOverride(
//	    "host=collector.internal",
//	    "port=5170",
//	    "max_buffer_size=4MB",
//	)
func (c *Config) ApplyOverride(overrides ...string) error {
	tmp := c.Clone()

	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := applyConfigField(tmp, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return combineConfigErrors(errs)
	}

	*c = *tmp
	return nil
}

// ConfigFromMap builds a validated Config from string options.
// host and port are required; every other key falls back to its default.
func ConfigFromMap(options map[string]string) (*Config, error) {
	var errs []error
	for _, required := range []string{"host", "port"} {
		if _, ok := options[required]; !ok {
			errs = append(errs, fmtErrorf("missing required option '%s'", required))
		}
	}
	if len(errs) > 0 {
		return nil, combineConfigErrors(errs)
	}

	// Sorted for deterministic error order
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cfg := DefaultConfig()
	for _, key := range keys {
		if err := applyConfigField(cfg, key, strings.TrimSpace(options[key])); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, combineConfigErrors(errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("netlog: multiple configuration errors:")
	for i, err := range errs {
		errMsg := strings.TrimPrefix(err.Error(), "netlog: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
// Size and interval strings are checked here so errors name the offending key.
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	// Collector endpoint
	case "host":
		cfg.Host = value
	case "port":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for port '%s': %w", value, err)
		}
		if intVal < 0 || intVal > 65535 {
			return fmtErrorf("port must be between 0 and 65535: %d", intVal)
		}
		cfg.Port = intVal
	case "protocol":
		if _, err := ParseProtocol(value); err != nil {
			return err
		}
		cfg.Protocol = value
	case "max_buffer_size":
		if _, err := ParseSize(value); err != nil {
			return fmtErrorf("invalid value for max_buffer_size: %w", err)
		}
		cfg.MaxBufferSize = value
	case "reconnect_interval":
		if _, err := ParseInterval(value); err != nil {
			return fmtErrorf("invalid value for reconnect_interval: %w", err)
		}
		cfg.ReconnectInterval = value
	case "max_reconnect_interval":
		if _, err := ParseInterval(value); err != nil {
			return fmtErrorf("invalid value for max_reconnect_interval: %w", err)
		}
		cfg.MaxReconnectInterval = value
	case "connect_timeout":
		if _, err := ParseInterval(value); err != nil {
			return fmtErrorf("invalid value for connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = value
	case "write_timeout":
		if _, err := ParseInterval(value); err != nil {
			return fmtErrorf("invalid value for write_timeout: %w", err)
		}
		cfg.WriteTimeout = value

	// Records
	case "level":
		// Accept both numeric and named values
		if numVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			cfg.Level = numVal
		} else {
			levelVal, err := Level(value)
			if err != nil {
				return fmtErrorf("invalid level value '%s': %w", value, err)
			}
			cfg.Level = levelVal
		}
	case "category":
		cfg.Category = value
	case "format":
		cfg.Format = value
	case "pretty":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for pretty '%s': %w", value, err)
		}
		cfg.Pretty = boolVal
	case "timestamp_format":
		cfg.TimestampFormat = value
	case "include_caller":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for include_caller '%s': %w", value, err)
		}
		cfg.IncludeCaller = boolVal
	case "trace_depth":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for trace_depth '%s': %w", value, err)
		}
		cfg.TraceDepth = intVal

	// Heartbeat
	case "heartbeat_interval_s":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for heartbeat_interval_s '%s': %w", value, err)
		}
		cfg.HeartbeatIntervalS = intVal

	// Internal error handling
	case "internal_errors_to_stderr":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for internal_errors_to_stderr '%s': %w", value, err)
		}
		cfg.InternalErrorsToStderr = boolVal

	default:
		return fmtErrorf("unknown configuration key '%s'", key)
	}

	return nil
}
