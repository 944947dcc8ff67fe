package netlog

import (
	"fmt"
	"time"

	"github.com/lixenwraith/netlog/formatter"
)

// statsSource is implemented by outputs that report queue and connection statistics
type statsSource interface {
	Stats() Stats
}

// startHeartbeat must be called with initMu held
func (l *Logger) startHeartbeat(interval time.Duration) {
	stop := make(chan struct{})
	done := make(chan struct{})
	l.heartbeatStop = stop
	l.heartbeatDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				l.logProcHeartbeat()
			}
		}
	}()
}

// stopHeartbeat must be called with initMu held
func (l *Logger) stopHeartbeat() {
	if l.heartbeatStop == nil {
		return
	}
	close(l.heartbeatStop)
	<-l.heartbeatDone
	l.heartbeatStop = nil
	l.heartbeatDone = nil
}

// logProcHeartbeat logs logger and output statistics
func (l *Logger) logProcHeartbeat() {
	if !l.state.IsInitialized.Load() || l.state.ShutdownCalled.Load() {
		return
	}

	sequence := l.state.HeartbeatSequence.Add(1)
	var uptimeHours float64
	if startTime, ok := l.state.LoggerStartTime.Load().(time.Time); ok && !startTime.IsZero() {
		uptimeHours = time.Since(startTime).Hours()
	}

	fields := map[string]any{
		"type":           "proc",
		"sequence":       sequence,
		"uptime_hours":   fmt.Sprintf("%.2f", uptimeHours),
		"processed_logs": l.state.TotalLogsProcessed.Load(),
	}

	if src, ok := l.Output().(statsSource); ok {
		st := src.Stats()
		fields["connection_state"] = st.State.String()
		fields["pending_messages"] = st.PendingMessages
		fields["pending_bytes"] = st.PendingBytes
		fields["sent_messages"] = st.SentMessages
		fields["dropped_messages"] = st.DroppedMessages
		fields["connect_failures"] = st.ConnectFailures
		fields["reconnects"] = st.Reconnects
	}

	l.writeRecord(formatter.Record{
		Time:     time.Now(),
		Level:    LevelProc,
		Category: l.getConfig().Category,
		Args:     []any{"heartbeat"},
		Fields:   fields,
	})
}
