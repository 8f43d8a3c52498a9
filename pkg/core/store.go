package core

import (
	"sort"
	"sync"
)

// Store is the in-memory working set of notes, keyed by ID,
// plus the ID of the note currently being edited.
type Store struct {
	mu     sync.RWMutex
	notes  map[string]Note
	active string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{notes: make(map[string]Note)}
}

// Replace discards the current contents and loads the given notes.
func (s *Store) Replace(notes []Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = make(map[string]Note, len(notes))
	for _, n := range notes {
		s.notes[n.ID] = n
	}
	if _, ok := s.notes[s.active]; !ok {
		s.active = ""
	}
}

// Put inserts or replaces a note.
func (s *Store) Put(n Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[n.ID] = n
}

// Get returns the note with the given ID.
func (s *Store) Get(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	return n, ok
}

// Delete removes a note and clears the active ID if it pointed to it.
// It reports whether the note existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.notes[id]
	delete(s.notes, id)
	if s.active == id {
		s.active = ""
	}
	return ok
}

// List returns all notes, most recently updated first.
func (s *Store) List() []Note {
	s.mu.RLock()
	notes := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		notes = append(notes, n)
	}
	s.mu.RUnlock()

	SortByRecent(notes)
	return notes
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// Active returns the active note ID, or "" when none is selected.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActive marks id as the active note.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
}

// SortByRecent orders notes by descending UpdatedAt; ties are broken by ID.
func SortByRecent(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		}
		return notes[i].ID < notes[j].ID
	})
}
