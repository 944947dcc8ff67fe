package netlog

import (
	"sync"
	"time"

	"github.com/jpillora/backoff"
)

// reconnectTimer is a one-shot reschedulable deadline whose expiry runs on the event loop.
// At most one schedule is outstanding; arming while armed is a no-op.
type reconnectTimer struct {
	loop     *eventLoop
	fire     func()
	onPanic  func(any)
	interval time.Duration
	backoff  *backoff.Backoff // nil for a fixed interval

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64 // invalidates expiries of canceled schedules
	armed bool
}

func newReconnectTimer(loop *eventLoop, interval, maxInterval time.Duration, fire func()) *reconnectTimer {
	rt := &reconnectTimer{
		loop:     loop,
		fire:     fire,
		interval: interval,
	}
	if maxInterval > interval {
		rt.backoff = &backoff.Backoff{
			Min:    interval,
			Max:    maxInterval,
			Factor: 2,
			Jitter: true,
		}
	}
	return rt
}

// schedule arms the timer. Returns false if it was already armed.
func (rt *reconnectTimer) schedule() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.armed {
		return false
	}
	rt.armed = true
	rt.gen++
	gen := rt.gen
	rt.timer = time.AfterFunc(rt.nextDelay(), func() {
		rt.loop.post(func() { rt.expire(gen) })
	})
	return true
}

// cancel disarms the timer; an expiry already posted to the loop is ignored
func (rt *reconnectTimer) cancel() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
	rt.armed = false
	rt.gen++
}

func (rt *reconnectTimer) pending() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.armed
}

// reset restarts the backoff sequence after a successful connect
func (rt *reconnectTimer) reset() {
	if rt.backoff == nil {
		return
	}
	rt.mu.Lock()
	rt.backoff.Reset()
	rt.mu.Unlock()
}

// nextDelay must be called with mu held
func (rt *reconnectTimer) nextDelay() time.Duration {
	if rt.backoff == nil {
		return rt.interval
	}
	return rt.backoff.Duration()
}

// expire runs on the loop goroutine. A panicking callback re-arms the timer.
func (rt *reconnectTimer) expire(gen uint64) {
	rt.mu.Lock()
	if !rt.armed || gen != rt.gen {
		rt.mu.Unlock()
		return
	}
	rt.armed = false
	rt.timer = nil
	rt.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			if rt.onPanic != nil {
				rt.onPanic(r)
			}
			rt.schedule()
		}
	}()
	rt.fire()
}
