// Package delay models simulated asynchronous work as a cancellable future.
package delay

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCancelled = errors.New("delayed operation cancelled")

// Delayed is the result of work scheduled to complete after a fixed delay.
// It settles exactly once: by its timer, by Fire, or by Cancel. Cancel never
// waits for work that is already running; that work's result is discarded.
type Delayed[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	fn      func() (T, error)
	timer   Timer
	started bool
	settled bool

	// upstream is cancelled along with this future (set by Then).
	upstream  func()
	callbacks []func()

	val T
	err error
}

// After schedules fn to run on clock after d and returns its future.
func After[T any](clock Clock, d time.Duration, fn func() (T, error)) *Delayed[T] {
	p := &Delayed[T]{
		done: make(chan struct{}),
		fn:   fn,
	}
	p.mu.Lock()
	p.timer = clock.AfterFunc(d, p.run)
	p.mu.Unlock()
	return p
}

// Resolved returns a future that is already complete.
func Resolved[T any](v T, err error) *Delayed[T] {
	p := &Delayed[T]{done: make(chan struct{})}
	p.settle(v, err)
	return p
}

func (p *Delayed[T]) run() {
	p.mu.Lock()
	if p.started || p.settled {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	v, err := p.fn()
	p.settle(v, err)
}

func (p *Delayed[T]) settle(v T, err error) bool {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return false
	}
	p.settled = true
	p.val, p.err = v, err
	close(p.done)
	callbacks := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	for _, f := range callbacks {
		f()
	}
	return true
}

// whenSettled runs f once p has settled, immediately if it already has.
// f runs on the goroutine that settles p.
func (p *Delayed[T]) whenSettled(f func()) {
	p.mu.Lock()
	if !p.settled {
		p.callbacks = append(p.callbacks, f)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	f()
}

// Then returns a future settled with fn's result once src settles. fn sees
// src's error, including ErrCancelled. Cancelling the returned future also
// cancels src.
func Then[T, U any](src *Delayed[T], fn func(T, error) (U, error)) *Delayed[U] {
	out := &Delayed[U]{
		done:     make(chan struct{}),
		upstream: func() { src.Cancel() },
	}
	src.whenSettled(func() {
		u, err := fn(src.val, src.err)
		out.settle(u, err)
	})
	return out
}

func (p *Delayed[T]) stopTimer() {
	p.mu.Lock()
	t := p.timer
	p.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

// Fire runs the work now instead of waiting for the timer.
func (p *Delayed[T]) Fire() {
	p.stopTimer()
	p.run()
}

// Cancel settles the future with ErrCancelled if it has not settled yet. It
// reports whether this call performed the cancellation.
func (p *Delayed[T]) Cancel() bool {
	p.stopTimer()
	var zero T
	cancelled := p.settle(zero, ErrCancelled)
	if p.upstream != nil {
		p.upstream()
	}
	return cancelled
}

// Done is closed once the future has resolved or been cancelled.
func (p *Delayed[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the future resolves or ctx ends.
func (p *Delayed[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Poll returns the outcome without blocking; ok is false while still pending.
func (p *Delayed[T]) Poll() (v T, ok bool, err error) {
	select {
	case <-p.done:
		return p.val, true, p.err
	default:
		var zero T
		return zero, false, nil
	}
}
