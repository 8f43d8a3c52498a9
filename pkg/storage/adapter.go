// Package storage turns a raw key/value Backend into a typed store.
//
// Values are encoded with a Codec on write and decoded on read. Reads never
// fail: a missing key or an undecodable value yields the caller's default.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/jot/pkg/core"
)

// Adapter wraps a core.Backend with value (de)serialization.
type Adapter struct {
	backend core.Backend
	codec   Codec
	logger  *slog.Logger
}

// Config holds the optional settings of an Adapter.
type Config struct {
	Codec  Codec
	Logger *slog.Logger
}

// NewAdapter creates an Adapter over backend. A nil Codec means JSON.
func NewAdapter(backend core.Backend, config Config) *Adapter {
	codec := config.Codec
	if codec == nil {
		codec = JSONCodec{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{backend: backend, codec: codec, logger: logger}
}

// Backend returns the wrapped backend.
func (a *Adapter) Backend() core.Backend {
	return a.backend
}

// Codec returns the codec used for values.
func (a *Adapter) Codec() Codec {
	return a.codec
}

// Get reads and decodes the value stored under key.
// It returns def when the key is absent, unreadable or not decodable into T.
func Get[T any](ctx context.Context, a *Adapter, key string, def T) T {
	v, ok := Lookup[T](ctx, a, key)
	if !ok {
		return def
	}
	return v
}

// Lookup is like Get but reports whether a decodable value was found.
func Lookup[T any](ctx context.Context, a *Adapter, key string) (T, bool) {
	var v T
	data, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			a.logger.Warn("storage read failed", "key", key, "error", err)
		}
		return v, false
	}
	if err := a.codec.Unmarshal(data, &v); err != nil {
		a.logger.Debug("discarding undecodable value", "key", key, "error", err)
		var zero T
		return zero, false
	}
	return v, true
}

// Set encodes value and stores it under key, replacing any previous value.
func (a *Adapter) Set(ctx context.Context, key string, value any) error {
	data, err := a.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := a.backend.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. A missing key is not an error.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.backend.Remove(ctx, key); err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys matching a glob pattern.
func (a *Adapter) Keys(ctx context.Context, pattern string) ([]string, error) {
	return a.backend.Keys(ctx, pattern)
}
