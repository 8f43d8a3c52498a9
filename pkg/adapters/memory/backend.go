// Package memory provides a process-local core.Backend, used for tests and
// for ephemeral vaults.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/jot/pkg/core"
)

// watchBuffer is the per-subscriber event buffer. Events beyond it are dropped.
const watchBuffer = 64

// Backend keeps values in a map.
type Backend struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[*watcher]struct{}
}

type watcher struct {
	pattern string
	ch      chan core.Event
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		data:     make(map[string][]byte),
		watchers: make(map[*watcher]struct{}),
	}
}

var _ core.Backend = (*Backend)(nil)
var _ core.Watchable = (*Backend)(nil)

// Initialize implements core.Backend. Nothing to prepare.
func (b *Backend) Initialize(ctx context.Context) error { return nil }

// Get implements core.Backend.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.data[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements core.Backend.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}

	b.mu.Lock()
	_, existed := b.data[key]
	b.data[key] = append([]byte(nil), value...)
	b.mu.Unlock()

	eType := core.EventCreate
	if existed {
		eType = core.EventModify
	}
	b.publish(core.Event{Type: eType, ID: key, Timestamp: time.Now().Unix()})
	return nil
}

// Remove implements core.Backend.
func (b *Backend) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	_, existed := b.data[key]
	delete(b.data, key)
	b.mu.Unlock()

	if existed {
		b.publish(core.Event{Type: core.EventDelete, ID: key, Timestamp: time.Now().Unix()})
	}
	return nil
}

// Keys implements core.Backend.
func (b *Backend) Keys(ctx context.Context, pattern string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		if pattern != "" {
			ok, err := doublestar.Match(pattern, k)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch implements core.Watchable. The channel closes when ctx is done.
func (b *Backend) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	w := &watcher{pattern: pattern, ch: make(chan core.Event, watchBuffer)}
	b.mu.Lock()
	b.watchers[w] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, w)
		close(w.ch)
		b.mu.Unlock()
	}()
	return w.ch, nil
}

func (b *Backend) publish(e core.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for w := range b.watchers {
		if ok, _ := doublestar.Match(w.pattern, e.ID); !ok {
			continue
		}
		select {
		case w.ch <- e:
		default:
		}
	}
}

// BackendState exposes internal state for observability.
type BackendState struct {
	Keys     int `json:"keys"`
	Watchers int `json:"watchers"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return BackendState{Keys: len(b.data), Watchers: len(b.watchers)}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "memory-backend"
}

var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)
