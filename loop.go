package netlog

import (
	"context"
	"errors"
	"sync"

	"gopkg.in/tomb.v2"
)

var errLoopStopped = errors.New("event loop stopped")

// eventLoop runs posted tasks one at a time on a single goroutine.
// Blocking work is spawned as helper goroutines tracked by the same tomb,
// so stop returns only after every helper has exited.
type eventLoop struct {
	mu       sync.Mutex
	tasks    []func()
	spare    []func()
	stopping bool

	wake   chan struct{}
	t      *tomb.Tomb
	ctx    context.Context // canceled once the loop is dying
	onStop func()          // runs on the loop goroutine before it exits
}

func newEventLoop(onStop func()) *eventLoop {
	t, ctx := tomb.WithContext(context.Background())
	l := &eventLoop{
		wake:   make(chan struct{}, 1),
		t:      t,
		ctx:    ctx,
		onStop: onStop,
	}
	t.Go(l.run)
	return l
}

// post queues task for the loop goroutine. Returns false once stop has begun.
func (l *eventLoop) post(task func()) bool {
	l.mu.Lock()
	if l.stopping {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// spawn starts fn as a tracked helper goroutine. Must be called from a loop task.
func (l *eventLoop) spawn(fn func(ctx context.Context)) error {
	select {
	case <-l.t.Dying():
		return errLoopStopped
	default:
	}
	l.t.Go(func() error {
		fn(l.ctx)
		return nil
	})
	return nil
}

// stop drops queued tasks, runs onStop on the loop goroutine and waits for all helpers.
func (l *eventLoop) stop() error {
	l.mu.Lock()
	l.stopping = true
	l.tasks = nil
	l.mu.Unlock()

	l.t.Kill(nil)
	return l.t.Wait()
}

func (l *eventLoop) run() error {
	for {
		select {
		case <-l.t.Dying():
			if l.onStop != nil {
				l.onStop()
			}
			return nil
		case <-l.wake:
			l.drain()
		}
	}
}

func (l *eventLoop) drain() {
	l.mu.Lock()
	batch := l.tasks
	l.tasks = l.spare[:0]
	l.mu.Unlock()

	for i, task := range batch {
		batch[i] = nil
		select {
		case <-l.t.Dying():
			l.spare = nil
			return
		default:
		}
		task()
	}
	l.spare = batch[:0]
}
