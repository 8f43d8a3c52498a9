package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/debounce"
)

// options holds the internal configuration for a vault.
type options struct {
	backend core.Backend
	logger  *slog.Logger
	adapter string
	codec   string
	config  map[string]interface{}
}

// Option defines a functional option for configuring a vault.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		backend: nil,
		logger:  nil,
		adapter: "fs",
		codec:   "json",
		config:  make(map[string]interface{}),
	}
}

// WithAdapter selects the storage backend by name: "fs", "sqlite" or "memory".
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithBackend injects a custom backend (e.g. a mock). The adapter name is ignored.
func WithBackend(b core.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithCodec selects the value encoding by name: "json" (default) or "yaml".
func WithCodec(name string) Option {
	return func(o *options) {
		o.codec = name
	}
}

// WithLogger sets the logger for the vault.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDebounce sets the quiet period before an edit is written.
// Zero means default (200ms).
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.config["debounce"] = d
	}
}

// WithClock replaces the time source of the debouncer (tests use debounce.ManualClock).
func WithClock(c debounce.Clock) Option {
	return func(o *options) {
		o.config["clock"] = c
	}
}

// WithNow replaces the function stamping UpdatedAt.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.config["now"] = now
	}
}

// WithIDGenerator replaces the UUID generator of new notes.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.config["new_id"] = fn
	}
}

// WithMustExist ensures the vault must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true) the vault is re-rooted into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithEventBuffer sets the size of the Watch broker buffer.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithErrorHandler registers a callback for failures that have no caller to
// return to: debounced saves and the filesystem watcher.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["error_handler"] = fn
	}
}
