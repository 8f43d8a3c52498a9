package jot

import (
	"log/slog"
	"time"

	"github.com/aretw0/jot/internal/platform"
	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/debounce"
	"github.com/aretw0/jot/pkg/storage"
)

// --- Types ---

// Note is a public alias for the core note.
type Note = core.Note

// Node is a public alias for the rich document tree of a note.
type Node = core.Node

// Service is a public alias for the application controller.
type Service = core.Service

// Repository is a public alias for the note repository of a vault.
type Repository = storage.NoteRepository

// Event is a public alias for a note change event.
type Event = core.Event

// --- Configuration ---

// Option defines a functional option for configuring a vault.
type Option = platform.Option

// WithAdapter selects the storage backend by name: "fs" (default), "sqlite" or "memory".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithBackend injects a custom backend.
func WithBackend(b core.Backend) Option {
	return platform.WithBackend(b)
}

// WithCodec selects the value encoding: "json" (default) or "yaml".
func WithCodec(name string) Option {
	return platform.WithCodec(name)
}

// WithLogger sets the logger for the vault.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithDebounce sets the quiet period before an edit is written.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithClock replaces the debouncer's time source.
func WithClock(c debounce.Clock) Option {
	return platform.WithClock(c)
}

// WithMustExist ensures the vault must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the temp-dir sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithEventBuffer sets the size of the Watch broker buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithErrorHandler registers a callback for background failures.
func WithErrorHandler(fn func(error)) Option {
	return platform.WithErrorHandler(fn)
}

// --- Factory ---

// New opens the vault at path and returns a Service with its notes loaded.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init prepares the vault at path and returns its repository, without a Service.
func Init(path string, opts ...Option) (*storage.NoteRepository, error) {
	return platform.Init(path, opts...)
}

// --- Content ---

// ParseText builds note content from plain text with '#'-headings.
func ParseText(s string) Node {
	return core.ParseText(s)
}

// ExtractTags returns the hashtags of text in order, duplicates included.
func ExtractTags(text string) []string {
	return core.ExtractTags(text)
}

// --- Safety & Utils ---

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindVaultRoot looks upwards from startDir for a vault root indicator.
func FindVaultRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
