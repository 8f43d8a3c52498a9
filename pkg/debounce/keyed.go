package debounce

import (
	"sync"
	"time"
)

// Keyed holds one Debouncer per key. Calls for different keys do not
// supersede each other, but all invocations share one execution lock,
// so fn never runs concurrently with itself.
type Keyed[K comparable, T any] struct {
	delay time.Duration
	fn    func(T)
	opts  []Option
	run   sync.Mutex

	mu      sync.Mutex
	entries map[K]*Debouncer[T]
	stopped bool
}

// NewKeyed creates a Keyed debouncer.
func NewKeyed[K comparable, T any](delay time.Duration, fn func(T), opts ...Option) *Keyed[K, T] {
	return &Keyed[K, T]{
		delay:   delay,
		fn:      fn,
		opts:    opts,
		entries: make(map[K]*Debouncer[T]),
	}
}

// Call schedules fn(arg) for key, superseding only the pending call of the same key.
func (k *Keyed[K, T]) Call(key K, arg T) {
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		return
	}
	d, ok := k.entries[key]
	if !ok {
		opts := append([]Option{withRunLock(&k.run)}, k.opts...)
		d = New(k.delay, k.fn, opts...)
		k.entries[key] = d
	}
	k.mu.Unlock()

	d.Call(arg)
}

// Pending reports whether key has a scheduled call.
func (k *Keyed[K, T]) Pending(key K) bool {
	k.mu.Lock()
	d, ok := k.entries[key]
	k.mu.Unlock()
	return ok && d.Pending()
}

// PendingCount returns the number of keys with a scheduled call.
func (k *Keyed[K, T]) PendingCount() int {
	n := 0
	for _, d := range k.snapshot() {
		if d.Pending() {
			n++
		}
	}
	return n
}

// Cancel drops the pending call of key and forgets the key.
func (k *Keyed[K, T]) Cancel(key K) bool {
	k.mu.Lock()
	d, ok := k.entries[key]
	delete(k.entries, key)
	k.mu.Unlock()

	return ok && d.Cancel()
}

// Flush runs every pending call now and returns how many ran.
func (k *Keyed[K, T]) Flush() int {
	n := 0
	for _, d := range k.snapshot() {
		if d.Flush() {
			n++
		}
	}
	return n
}

// Stop cancels every pending call, waits for a running one to return,
// and ignores later calls. It must not be called from fn.
func (k *Keyed[K, T]) Stop() {
	k.mu.Lock()
	k.stopped = true
	entries := k.entries
	k.entries = make(map[K]*Debouncer[T])
	k.mu.Unlock()

	for _, d := range entries {
		d.Stop()
	}

	k.run.Lock()
	k.run.Unlock()
}

func (k *Keyed[K, T]) snapshot() []*Debouncer[T] {
	k.mu.Lock()
	defer k.mu.Unlock()

	out := make([]*Debouncer[T], 0, len(k.entries))
	for _, d := range k.entries {
		out = append(out, d)
	}
	return out
}
