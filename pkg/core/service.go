package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/google/uuid"

	"github.com/aretw0/jot/pkg/debounce"
)

const (
	// DefaultDebounce is the quiet period before an edited note is written.
	DefaultDebounce = 200 * time.Millisecond

	// DefaultEventBuffer is the size of the Watch broker buffer.
	DefaultEventBuffer = 100
)

// ServiceConfig holds the optional dependencies of a Service.
// Zero values select the defaults.
type ServiceConfig struct {
	Debounce     time.Duration
	Clock        debounce.Clock
	Now          func() time.Time
	NewID        func() string
	Logger       *slog.Logger
	ErrorHandler func(error) // receives failures of debounced saves
	EventBuffer  int
}

// Service is the application controller: it applies user actions to the
// in-memory Store and persists the results through the Repository.
// Edits are written after a quiet period, one debounced save per note;
// deletes are written immediately.
type Service struct {
	repo   Repository
	store  *Store
	saver  *debounce.Keyed[string, Note]
	config ServiceConfig

	// persistMu orders debounced saves against deletes.
	persistMu sync.Mutex

	mu              sync.RWMutex
	selected        []string
	closed          bool
	eventBufferSize int
}

// NewService creates a new Service. The store starts empty; call Load to
// populate it from the repository.
func NewService(repo Repository, config ServiceConfig) *Service {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = DefaultEventBuffer
	}

	s := &Service{
		repo:            repo,
		store:           NewStore(),
		config:          config,
		eventBufferSize: config.EventBuffer,
	}

	var opts []debounce.Option
	if config.Clock != nil {
		opts = append(opts, debounce.WithClock(config.Clock))
	}
	s.saver = debounce.NewKeyed[string](config.Debounce, s.persist, opts...)
	return s
}

// Repository returns the underlying repository.
func (s *Service) Repository() Repository {
	return s.repo
}

// Load replaces the working set with the notes found in the repository.
func (s *Service) Load(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	notes, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notes: %w", err)
	}
	s.store.Replace(notes)
	s.config.Logger.Debug("notes loaded", "count", len(notes))
	return nil
}

// Create adds a note with the default skeleton, makes it active and
// schedules its save.
func (s *Service) Create() Note {
	n := Note{
		ID:        s.config.NewID(),
		Title:     DefaultTitle,
		Content:   DefaultContent(),
		UpdatedAt: s.config.Now(),
		Tags:      []string{},
	}
	s.store.Put(n)
	s.store.SetActive(n.ID)
	s.saver.Call(n.ID, n)

	s.config.Logger.Debug("note created", "id", n.ID)
	return n
}

// Edit replaces the content of note id. Title, tags and timestamp are
// recomputed; an empty title is derived from the first block of content.
// It reports false, and does nothing, when id is unknown.
func (s *Service) Edit(id string, content Node, title string) (Note, bool) {
	n, ok := s.store.Get(id)
	if !ok {
		return Note{}, false
	}

	if title == "" {
		title = content.Title()
	}
	if title == "" {
		title = DefaultTitle
	}

	n.Content = content
	n.Title = title
	n.Tags = UniqueTags(ExtractTags(content.PlainText()))
	n.UpdatedAt = s.config.Now()

	s.store.Put(n)
	s.saver.Call(n.ID, n)

	s.config.Logger.Debug("note edited", "id", n.ID, "tags", len(n.Tags))
	return n, true
}

// OnChange edits the active note. It reports false when no note is active.
func (s *Service) OnChange(content Node, title string) (Note, bool) {
	id := s.store.Active()
	if id == "" {
		return Note{}, false
	}
	return s.Edit(id, content, title)
}

// Select makes id the active note. An empty id clears the selection.
// It reports false when id is unknown.
func (s *Service) Select(id string) bool {
	if id != "" {
		if _, ok := s.store.Get(id); !ok {
			return false
		}
	}
	s.store.SetActive(id)
	return true
}

// Active returns the active note.
func (s *Service) Active() (Note, bool) {
	id := s.store.Active()
	if id == "" {
		return Note{}, false
	}
	return s.store.Get(id)
}

// Get returns the note with the given ID from the working set.
func (s *Service) Get(id string) (Note, bool) {
	return s.store.Get(id)
}

// Delete removes the note from the working set, drops its pending save and
// removes it from the repository right away.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.isClosed() {
		return ErrClosed
	}

	s.store.Delete(id)
	s.saver.Cancel(id)

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}

	s.config.Logger.Debug("note deleted", "id", id)
	return nil
}

// Filter returns the notes carrying at least one of tags, most recent first.
// An empty selection returns every note.
func (s *Service) Filter(tags []string) []Note {
	notes := s.store.List()
	if len(tags) == 0 {
		return notes
	}

	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if n.HasAnyTag(tags) {
			out = append(out, n)
		}
	}
	return out
}

// OnSelect stores the tag selection used by Visible.
func (s *Service) OnSelect(tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = append([]string(nil), tags...)
}

// Selected returns the current tag selection.
func (s *Service) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.selected...)
}

// Visible returns Filter applied to the current tag selection.
func (s *Service) Visible() []Note {
	return s.Filter(s.Selected())
}

// Notes returns every note, most recent first.
func (s *Service) Notes() []Note {
	return s.store.List()
}

// Tags returns the sorted set of tags used across all notes.
func (s *Service) Tags() []string {
	return CollectTags(s.store.List())
}

// Pending reports whether note id has a save scheduled.
func (s *Service) Pending(id string) bool {
	return s.saver.Pending(id)
}

// Flush writes every pending save now and returns how many ran.
func (s *Service) Flush() int {
	return s.saver.Flush()
}

// Close flushes pending saves, stops the debouncer and closes the
// repository when it holds resources.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	n := s.saver.Flush()
	s.saver.Stop()
	s.config.Logger.Debug("service closed", "flushed", n)

	if c, ok := s.repo.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Watch observes external changes to the repository, applies them to the
// working set and forwards them on a buffered channel. Notes with a pending
// local save keep their in-memory version.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}
	upstream, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, s.eventBufferSize)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-upstream:
				if !ok {
					return nil
				}
				s.apply(ctx, e)
				select {
				case out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.reportError(fmt.Errorf("watch broker panic: %w", err))
	}))
	return out, nil
}

// apply mirrors one external change into the store.
func (s *Service) apply(ctx context.Context, e Event) {
	if s.saver.Pending(e.ID) {
		return
	}

	if e.Type == EventDelete {
		s.store.Delete(e.ID)
		return
	}

	n, err := s.repo.Get(ctx, e.ID)
	if err != nil {
		s.config.Logger.Debug("ignoring unreadable external change", "id", e.ID, "error", err)
		return
	}
	if cur, ok := s.store.Get(e.ID); ok && cur.UpdatedAt.After(n.UpdatedAt) {
		return
	}
	s.store.Put(n)
}

// persist is the debounced save of one note.
func (s *Service) persist(n Note) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	// Deleted while the save was waiting.
	if _, ok := s.store.Get(n.ID); !ok {
		return
	}
	if err := s.repo.Save(context.Background(), n); err != nil {
		s.reportError(fmt.Errorf("failed to save note %s: %w", n.ID, err))
		return
	}
	s.config.Logger.Debug("note saved", "id", n.ID)
}

func (s *Service) reportError(err error) {
	s.config.Logger.Error("service error", "error", err)
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	}
}

func (s *Service) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
