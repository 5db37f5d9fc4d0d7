// Package runloop provides the single serialized execution context that owns
// activation state. Work posted from other goroutines (key tap, X event loop,
// IPC connections, timers) runs here one function at a time.
package runloop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultQueueSize bounds the number of pending functions.
const DefaultQueueSize = 256

// ErrStopped is returned by Call when the loop is no longer running.
var ErrStopped = errors.New("run loop stopped")

// Poster accepts work for the loop. Components that only need to hand work
// off depend on this instead of *Loop.
type Poster interface {
	Post(fn func())
}

// Loop is a serialized work queue.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	logger *zap.Logger

	// backlog holds PostReliable work that found the queue full. While it
	// is non-empty new work waits behind it so ordering holds.
	mu      sync.Mutex
	backlog []func()
}

// New creates a loop with the given queue size.
func New(size int, logger *zap.Logger) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		queue:  make(chan func(), size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post enqueues fn without blocking. When the queue is full fn is dropped;
// the caller is usually a hook goroutine that must never stall.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.backlog) == 0 {
		select {
		case l.queue <- fn:
			return
		default:
		}
	}
	l.logger.Warn("run loop queue full, dropping work")
}

// PostReliable enqueues fn without blocking and never drops it. Work that
// does not fit is kept in order and moved into the queue as it drains. Use
// it for events whose loss leaves state stuck, such as key releases.
func (l *Loop) PostReliable(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.backlog) == 0 {
		select {
		case l.queue <- fn:
			return
		default:
		}
	}
	l.backlog = append(l.backlog, fn)
}

func (l *Loop) refill() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.backlog) > 0 {
		select {
		case l.queue <- l.backlog[0]:
			l.backlog[0] = nil
			l.backlog = l.backlog[1:]
		default:
			return
		}
	}
}

// Call runs fn on the loop and waits for its result.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	wrapped := func() {
		result <- fn()
	}

	select {
	case l.queue <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued work until ctx is cancelled. It must be called from
// exactly one goroutine.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			l.invoke(fn)
			l.refill()
		}
	}
}

// RunPending executes everything currently queued and returns the number of
// functions run. Used by tests that drive the loop manually.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.refill()
		select {
		case fn := <-l.queue:
			l.invoke(fn)
			n++
		default:
			return n
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("run loop task panicked", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}
