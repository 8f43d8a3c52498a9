package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTitle is the title of a freshly created note, and the fallback
	// when the first block of the content carries no text.
	DefaultTitle = "New note"

	// IndexKey is the storage key holding the ordered list of note IDs.
	IndexKey = "notes"
)

// RecordKey returns the storage key of a single note record ("notes:<id>").
func RecordKey(id string) string {
	return IndexKey + ":" + id
}

// Note is the central entity of the domain.
// Title, Tags and UpdatedAt are derived from Content on every edit.
type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   Node      `json:"content" yaml:"content"`
	UpdatedAt time.Time `json:"updateAt" yaml:"updateAt"`
	Tags      []string  `json:"tags" yaml:"tags"`
}

// HasAnyTag reports whether the note carries at least one of the given tags.
func (n Note) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range n.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// EventType represents the type of change in the vault.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a stored key or note.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

// ValidateKey checks that a storage key is usable by every backend.
// Keys are flat: path separators and ".." are rejected.
func ValidateKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\\x00") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
