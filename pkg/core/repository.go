package core

import "context"

// Backend defines the contract of a raw local key/value store.
// Values are opaque bytes; encoding is the job of the storage adapter on top.
// Adhering to this interface keeps the core independent of the underlying
// mechanism (files, SQLite, memory).
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys returns the stored keys matching a glob pattern, sorted.
	// An empty pattern matches every key.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Initialize ensures the underlying storage is ready (e.g., create directories, schema migration).
	Initialize(ctx context.Context) error
}

// Repository defines the contract for storing and retrieving notes.
type Repository interface {
	// Load returns every readable note listed in the index, in index order.
	// Unreadable records are skipped.
	Load(ctx context.Context) ([]Note, error)

	// Get retrieves a single note by its ID.
	Get(ctx context.Context, id string) (Note, error)

	// Save writes the note record and makes sure its ID is in the index.
	Save(ctx context.Context, n Note) error

	// Delete removes the note record and its index entry.
	Delete(ctx context.Context, id string) error
}

// Watchable defines an interface for stores that can report external changes.
// For a Backend the event ID is the storage key, for a Repository the note ID.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
