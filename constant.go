package netlog

import (
	"time"
)

// Log level constants
const (
	LevelDebug    int64 = -4
	LevelInfo     int64 = 0
	LevelWarn     int64 = 4
	LevelError    int64 = 8
	LevelCritical int64 = 12
)

// Heartbeat log level, above every regular level so it passes the level filter
const (
	LevelProc int64 = 16
)

// Message flags accepted by LogWriter.WriteMessage
const (
	// FlagNeverDiscard exempts a message from the pending buffer capacity check
	FlagNeverDiscard uint32 = 1 << 0
)

// Endpoint defaults
const (
	defaultMaxBufferSize     int64 = 1024 * 1024
	defaultReconnectInterval       = 5 * time.Second
	defaultConnectTimeout          = 5 * time.Second
	defaultWriteTimeout            = 5 * time.Second
)

// Size multiplier for KB, MB, GB
const sizeMultiplier = 1024

// Timers
const (
	// Poll interval for state checks
	minWaitTime = 10 * time.Millisecond
	// Default wait for pending messages on Logger.Shutdown
	defaultShutdownTimeout = 2 * time.Second
)
