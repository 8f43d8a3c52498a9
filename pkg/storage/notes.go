package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/jot/pkg/core"
)

// NoteRepository implements core.Repository on top of an Adapter.
//
// Layout:
//
//	notes        -> ["id1", "id2", ...]  (the note index)
//	notes:<id>   -> core.Note
type NoteRepository struct {
	store *Adapter
	// mu guards the read-modify-write of the index.
	mu sync.Mutex
}

// NewNoteRepository creates a NoteRepository.
func NewNoteRepository(store *Adapter) *NoteRepository {
	return &NoteRepository{store: store}
}

var _ core.Repository = (*NoteRepository)(nil)

// Adapter returns the underlying storage adapter.
func (r *NoteRepository) Adapter() *Adapter {
	return r.store
}

// Close releases the backend when it holds resources (e.g. a database handle).
func (r *NoteRepository) Close() error {
	if c, ok := r.store.Backend().(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ComponentType implements introspection.Component, reporting the backend kind.
func (r *NoteRepository) ComponentType() string {
	if c, ok := r.store.Backend().(introspection.Component); ok {
		return c.ComponentType()
	}
	return "note-repository"
}

// Index returns the stored note index, or an empty one.
func (r *NoteRepository) Index(ctx context.Context) []string {
	return Get(ctx, r.store, core.IndexKey, []string{})
}

// Load reads the index and then every record it lists.
// Missing or malformed records are dropped; duplicate index entries are read once.
func (r *NoteRepository) Load(ctx context.Context) ([]core.Note, error) {
	ids := r.Index(ctx)
	seen := make(map[string]bool, len(ids))
	notes := make([]core.Note, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		n, ok := r.lookup(ctx, id)
		if !ok {
			r.store.logger.Debug("dropping unreadable note", "id", id)
			continue
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// Get retrieves a note by ID. It returns core.ErrNotFound if the record is
// missing or malformed.
func (r *NoteRepository) Get(ctx context.Context, id string) (core.Note, error) {
	n, ok := r.lookup(ctx, id)
	if !ok {
		return core.Note{}, fmt.Errorf("note %s: %w", id, core.ErrNotFound)
	}
	return n, nil
}

// Save moves the note ID to the end of the index, then writes the record.
func (r *NoteRepository) Save(ctx context.Context, n core.Note) error {
	if n.ID == "" {
		return fmt.Errorf("note has no ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ids := without(r.Index(ctx), n.ID)
	if err := r.store.Set(ctx, core.IndexKey, append(ids, n.ID)); err != nil {
		return err
	}
	return r.store.Set(ctx, core.RecordKey(n.ID), n)
}

// Delete removes the ID from the index and then the record itself.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.Index(ctx)
	if remaining := without(ids, id); len(remaining) != len(ids) {
		if err := r.store.Set(ctx, core.IndexKey, remaining); err != nil {
			return err
		}
	}
	return r.store.Remove(ctx, core.RecordKey(id))
}

// Report describes inconsistencies between the index and the records,
// left behind by a crash between the two writes of Save or Delete.
type Report struct {
	// Dangling are indexed IDs without a readable record.
	Dangling []string `json:"dangling"`
	// Orphans are readable records missing from the index.
	Orphans []string `json:"orphans"`
}

// Clean reports whether no inconsistency was found.
func (r Report) Clean() bool {
	return len(r.Dangling) == 0 && len(r.Orphans) == 0
}

// Check compares the index with the stored records.
func (r *NoteRepository) Check(ctx context.Context) (Report, error) {
	keys, err := r.store.Keys(ctx, core.RecordKey("*"))
	if err != nil {
		return Report{}, fmt.Errorf("failed to list records: %w", err)
	}

	indexed := make(map[string]bool)
	report := Report{Dangling: []string{}, Orphans: []string{}}
	for _, id := range r.Index(ctx) {
		if indexed[id] {
			continue
		}
		indexed[id] = true
		if _, ok := r.lookup(ctx, id); !ok {
			report.Dangling = append(report.Dangling, id)
		}
	}

	for _, key := range keys {
		id := strings.TrimPrefix(key, core.RecordKey(""))
		if indexed[id] {
			continue
		}
		if _, ok := r.lookup(ctx, id); ok {
			report.Orphans = append(report.Orphans, id)
		}
	}
	return report, nil
}

// Repair drops dangling entries from the index and re-indexes orphans.
func (r *NoteRepository) Repair(ctx context.Context, report Report) error {
	if report.Clean() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.Index(ctx)
	for _, id := range report.Dangling {
		ids = without(ids, id)
	}
	ids = append(ids, report.Orphans...)
	return r.store.Set(ctx, core.IndexKey, core.UniqueTags(ids))
}

// Watch reports note-level changes when the backend can watch for external writes.
// Event IDs are note IDs; changes to the index itself are not reported.
func (r *NoteRepository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, ok := r.store.Backend().(core.Watchable)
	if !ok {
		return nil, core.ErrNotWatchable
	}
	if pattern == "" {
		pattern = "*"
	}

	upstream, err := w.Watch(ctx, core.RecordKey(pattern))
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event)
	go func() {
		defer close(out)
		prefix := core.RecordKey("")
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-upstream:
				if !ok {
					return
				}
				if !strings.HasPrefix(e.ID, prefix) {
					continue
				}
				e.ID = strings.TrimPrefix(e.ID, prefix)
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *NoteRepository) lookup(ctx context.Context, id string) (core.Note, bool) {
	n, ok := Lookup[core.Note](ctx, r.store, core.RecordKey(id))
	if !ok || n.ID != id {
		return core.Note{}, false
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, true
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
