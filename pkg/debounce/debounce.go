// Package debounce collapses bursts of calls into a single delayed call.
//
// A Debouncer owns one pending-call slot. Every Call replaces the slot's
// argument and restarts the quiet period; when the period elapses without a
// new Call, the wrapped function runs once with the latest argument.
// Intermediate arguments are dropped, never queued.
package debounce

import (
	"sync"
	"time"
)

// Debouncer wraps a single-argument function.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)
	clock Clock

	mu      sync.Mutex
	timer   Timer
	arg     T
	pending bool
	gen     uint64
	stopped bool

	// run serializes invocations of fn. It may be shared between debouncers.
	run *sync.Mutex
}

// Option configures a Debouncer.
type Option func(*config)

type config struct {
	clock Clock
	run   *sync.Mutex
}

// WithClock sets the time source. Defaults to RealClock.
func WithClock(c Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// withRunLock shares the execution lock with other debouncers.
func withRunLock(mu *sync.Mutex) Option {
	return func(cfg *config) {
		cfg.run = mu
	}
}

// New creates a Debouncer calling fn once delay has passed without further calls.
func New[T any](delay time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	cfg := config{clock: RealClock{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.run == nil {
		cfg.run = &sync.Mutex{}
	}

	return &Debouncer[T]{
		delay: delay,
		fn:    fn,
		clock: cfg.clock,
		run:   cfg.run,
	}
}

// Call schedules fn(arg) after the quiet period, superseding any pending call.
// Calls after Stop are ignored.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.arg = arg
	d.pending = true
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a call is scheduled and has not run yet.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Cancel drops the pending call, if any, and reports whether there was one.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Flush runs the pending call immediately on the calling goroutine.
// It reports whether there was a call to run.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	arg, ok := d.takeLocked()
	d.mu.Unlock()

	if ok {
		d.invoke(arg)
	}
	return ok
}

// Stop cancels the pending call and ignores every later Call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	arg, ok := d.takeLocked()
	d.mu.Unlock()

	if ok {
		d.invoke(arg)
	}
}

func (d *Debouncer[T]) invoke(arg T) {
	d.run.Lock()
	defer d.run.Unlock()
	d.fn(arg)
}

// takeLocked empties the pending slot. Must be called with d.mu held.
func (d *Debouncer[T]) takeLocked() (T, bool) {
	var zero T
	if !d.pending {
		return zero, false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	arg := d.arg
	d.arg = zero
	d.pending = false
	d.gen++
	return arg, true
}

// cancelLocked must be called with d.mu held.
func (d *Debouncer[T]) cancelLocked() bool {
	_, ok := d.takeLocked()
	return ok
}
