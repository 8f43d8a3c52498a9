package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/debounce"
)

// MockRepository implements core.Repository in memory and counts writes.
type MockRepository struct {
	mu      sync.Mutex
	notes   map[string]core.Note
	index   []string
	saves   []core.Note
	saveErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{notes: make(map[string]core.Note)}
}

func (m *MockRepository) Load(ctx context.Context) ([]core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Note, 0, len(m.index))
	for _, id := range m.index {
		out = append(out, m.notes[id])
	}
	return out, nil
}

func (m *MockRepository) Get(ctx context.Context, id string) (core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return core.Note{}, core.ErrNotFound
	}
	return n, nil
}

func (m *MockRepository) Save(ctx context.Context, n core.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.notes[n.ID]; !ok {
		m.index = append(m.index, n.ID)
	}
	m.notes[n.ID] = n
	m.saves = append(m.saves, n)
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, id)
	for i, v := range m.index {
		if v == id {
			m.index = append(m.index[:i], m.index[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockRepository) Saves() []core.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Note(nil), m.saves...)
}

func (m *MockRepository) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.notes[id]
	return ok
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newTestService wires a Service to a mock repository and a manual clock.
// Timestamps follow the clock, IDs are n1, n2, ...
func newTestService(t *testing.T, repo core.Repository) (*core.Service, *debounce.ManualClock) {
	t.Helper()
	clock := debounce.NewManualClock()
	seq := 0
	svc := core.NewService(repo, core.ServiceConfig{
		Debounce: 200 * time.Millisecond,
		Clock:    clock,
		Now:      func() time.Time { return base.Add(clock.Now()) },
		NewID: func() string {
			seq++
			return fmt.Sprintf("n%d", seq)
		},
	})
	return svc, clock
}

func text(s string) core.Node {
	return core.ParseText(s)
}

func TestService_Create(t *testing.T) {
	repo := NewMockRepository()
	svc, clock := newTestService(t, repo)

	n := svc.Create()
	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, core.DefaultTitle, n.Title)
	assert.Equal(t, core.DefaultContent(), n.Content)
	assert.Equal(t, []string{}, n.Tags)
	assert.True(t, base.Equal(n.UpdatedAt))

	active, ok := svc.Active()
	require.True(t, ok)
	assert.Equal(t, n.ID, active.ID)

	assert.True(t, svc.Pending(n.ID))
	assert.Empty(t, repo.Saves(), "save must wait for the quiet period")

	clock.Advance(200 * time.Millisecond)
	assert.False(t, svc.Pending(n.ID))
	require.Len(t, repo.Saves(), 1)
	assert.Equal(t, n, repo.Saves()[0])
}

func TestService_EditRecomputesDerivedFields(t *testing.T) {
	svc, clock := newTestService(t, NewMockRepository())
	n := svc.Create()

	clock.Advance(time.Second)
	edited, ok := svc.Edit(n.ID, text("# Groceries\nmilk #shop #food #shop"), "")
	require.True(t, ok)

	assert.Equal(t, n.ID, edited.ID)
	assert.Equal(t, "Groceries", edited.Title)
	assert.Equal(t, []string{"shop", "food"}, edited.Tags)
	assert.True(t, base.Add(time.Second).Equal(edited.UpdatedAt))

	got, ok := svc.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, edited, got)
}

func TestService_EditTitle(t *testing.T) {
	svc, _ := newTestService(t, NewMockRepository())
	n := svc.Create()

	edited, _ := svc.Edit(n.ID, text("body"), "Explicit")
	assert.Equal(t, "Explicit", edited.Title)

	edited, _ = svc.Edit(n.ID, core.Node{Type: core.NodeDoc}, "")
	assert.Equal(t, core.DefaultTitle, edited.Title)
	assert.Equal(t, []string{}, edited.Tags)
}

func TestService_EditUnknownIsNoop(t *testing.T) {
	repo := NewMockRepository()
	svc, clock := newTestService(t, repo)

	_, ok := svc.Edit("missing", text("#x"), "")
	assert.False(t, ok)

	clock.Advance(time.Second)
	assert.Empty(t, repo.Saves())
	assert.Empty(t, svc.Notes())
}

func TestService_DebouncedSaveCoalesces(t *testing.T) {
	repo := NewMockRepository()
	svc, clock := newTestService(t, repo)
	n := svc.Create()
	svc.Flush()

	svc.Edit(n.ID, text("one"), "")
	clock.Advance(50 * time.Millisecond)
	svc.Edit(n.ID, text("two"), "")
	clock.Advance(50 * time.Millisecond)
	svc.Edit(n.ID, text("three"), "")

	clock.Advance(199 * time.Millisecond)
	assert.Len(t, repo.Saves(), 1, "only the create has been written")

	clock.Advance(time.Millisecond)
	saves := repo.Saves()
	require.Len(t, saves, 2)
	assert.Equal(t, "three", saves[1].Title)
}

func TestService_SavesOfDifferentNotesDoNotDropEachOther(t *testing.T) {
	repo := NewMockRepository()
	svc, clock := newTestService(t, repo)

	a := svc.Create()
	b := svc.Create()
	svc.Edit(a.ID, text("a #x"), "")

	clock.Advance(200 * time.Millisecond)
	assert.True(t, repo.Has(a.ID))
	assert.True(t, repo.Has(b.ID))
}

func TestService_Select(t *testing.T) {
	svc, _ := newTestService(t, NewMockRepository())
	a := svc.Create()
	svc.Create()

	assert.True(t, svc.Select(a.ID))
	active, _ := svc.Active()
	assert.Equal(t, a.ID, active.ID)

	assert.False(t, svc.Select("missing"))
	active, _ = svc.Active()
	assert.Equal(t, a.ID, active.ID, "unknown id leaves the selection alone")

	assert.True(t, svc.Select(""))
	_, ok := svc.Active()
	assert.False(t, ok)
}

func TestService_DeleteCancelsPendingSave(t *testing.T) {
	repo := NewMockRepository()
	svc, clock := newTestService(t, repo)
	ctx := context.Background()

	n := svc.Create()
	require.NoError(t, svc.Delete(ctx, n.ID))

	_, ok := svc.Active()
	assert.False(t, ok, "deleting the active note clears the selection")

	clock.Advance(time.Second)
	assert.Empty(t, repo.Saves())
	assert.False(t, repo.Has(n.ID))
}

func TestService_DeleteRemovesPersistedRecord(t *testing.T) {
	repo := NewMockRepository()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	a := svc.Create()
	b := svc.Create()
	svc.Flush()
	require.True(t, repo.Has(a.ID))

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.False(t, repo.Has(a.ID))

	active, ok := svc.Active()
	require.True(t, ok, "deleting another note keeps the selection")
	assert.Equal(t, b.ID, active.ID)

	notes, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, b.ID, notes[0].ID)
}

func TestService_Filter(t *testing.T) {
	svc, clock := newTestService(t, NewMockRepository())

	a := svc.Create()
	svc.Edit(a.ID, text("#work #home"), "")
	clock.Advance(time.Second)
	b := svc.Create()
	svc.Edit(b.ID, text("#home"), "")
	clock.Advance(time.Second)
	c := svc.Create()
	svc.Edit(c.ID, text("nothing"), "")

	ids := func(notes []core.Note) []string {
		out := []string{}
		for _, n := range notes {
			out = append(out, n.ID)
		}
		return out
	}

	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(svc.Filter(nil)), "empty selection returns all, most recent first")
	assert.Equal(t, []string{b.ID, a.ID}, ids(svc.Filter([]string{"home"})))
	assert.Equal(t, []string{a.ID}, ids(svc.Filter([]string{"work"})))
	assert.Equal(t, []string{b.ID, a.ID}, ids(svc.Filter([]string{"work", "home"})))
	assert.Empty(t, svc.Filter([]string{"none"}))

	assert.Equal(t, []string{"home", "work"}, svc.Tags())

	svc.OnSelect([]string{"work"})
	assert.Equal(t, []string{"work"}, svc.Selected())
	assert.Equal(t, []string{a.ID}, ids(svc.Visible()))
}

func TestService_OnChange(t *testing.T) {
	svc, _ := newTestService(t, NewMockRepository())

	_, ok := svc.OnChange(text("x"), "")
	assert.False(t, ok, "no active note")

	n := svc.Create()
	edited, ok := svc.OnChange(text("# Title\n#tag"), "")
	require.True(t, ok)
	assert.Equal(t, n.ID, edited.ID)
	assert.Equal(t, []string{"tag"}, edited.Tags)
}

func TestService_Load(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, core.Note{ID: "x", Title: "X", UpdatedAt: base, Tags: []string{"t"}}))

	svc, _ := newTestService(t, repo)
	require.NoError(t, svc.Load(ctx))

	n, ok := svc.Get("x")
	require.True(t, ok)
	assert.Equal(t, "X", n.Title)
	assert.Equal(t, []string{"t"}, svc.Tags())
}

func TestService_SaveErrorReported(t *testing.T) {
	repo := NewMockRepository()
	repo.saveErr = errors.New("disk full")

	var reported []error
	clock := debounce.NewManualClock()
	svc := core.NewService(repo, core.ServiceConfig{
		Clock:        clock,
		ErrorHandler: func(err error) { reported = append(reported, err) },
	})

	svc.Create()
	clock.Advance(core.DefaultDebounce)

	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], repo.saveErr)
}

func TestService_CloseFlushes(t *testing.T) {
	repo := NewMockRepository()
	svc, _ := newTestService(t, repo)

	n := svc.Create()
	require.NoError(t, svc.Close())
	assert.True(t, repo.Has(n.ID))

	assert.ErrorIs(t, svc.Delete(context.Background(), n.ID), core.ErrClosed)
	assert.ErrorIs(t, svc.Load(context.Background()), core.ErrClosed)
	assert.NoError(t, svc.Close(), "closing twice is a no-op")
}

func TestService_State(t *testing.T) {
	svc, _ := newTestService(t, NewMockRepository())
	n := svc.Create()

	state, ok := svc.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, 1, state.Notes)
	assert.Equal(t, n.ID, state.Active)
	assert.Equal(t, 1, state.PendingSaves)
	assert.Equal(t, core.DefaultEventBuffer, state.EventBufferSize)
	assert.Equal(t, "repository", state.RepositoryType)
	assert.Equal(t, "service", svc.ComponentType())
}

// MockWatchRepo adds core.Watchable to MockRepository.
type MockWatchRepo struct {
	*MockRepository
	UpstreamCh chan core.Event
}

func (m *MockWatchRepo) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return m.UpstreamCh, nil
}

func TestService_WatchUnsupported(t *testing.T) {
	svc, _ := newTestService(t, NewMockRepository())

	_, err := svc.Watch(context.Background(), "*")
	assert.ErrorIs(t, err, core.ErrNotWatchable)
}

func TestService_WatchDecouplesSlowConsumer(t *testing.T) {
	repo := &MockWatchRepo{MockRepository: NewMockRepository(), UpstreamCh: make(chan core.Event)}
	svc, _ := newTestService(t, repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := svc.Watch(ctx, "*")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			select {
			case repo.UpstreamCh <- core.Event{Type: core.EventModify, ID: "evt"}:
			case <-time.After(time.Second):
				t.Error("producer blocked")
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for producer")
	}

	for i := 0; i < 5; i++ {
		select {
		case e := <-stream:
			assert.Equal(t, "evt", e.ID)
		case <-time.After(time.Second):
			t.Fatalf("timeout reading event %d", i)
		}
	}
}

func TestService_WatchAppliesExternalChanges(t *testing.T) {
	repo := &MockWatchRepo{MockRepository: NewMockRepository(), UpstreamCh: make(chan core.Event)}
	svc, _ := newTestService(t, repo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := svc.Create()
	stream, err := svc.Watch(ctx, "*")
	require.NoError(t, err)

	// Written by another process.
	external := core.Note{ID: "ext", Title: "From elsewhere", UpdatedAt: base, Tags: []string{"remote"}}
	require.NoError(t, repo.MockRepository.Save(ctx, external))

	repo.UpstreamCh <- core.Event{Type: core.EventCreate, ID: "ext"}
	<-stream
	got, ok := svc.Get("ext")
	require.True(t, ok)
	assert.Equal(t, "From elsewhere", got.Title)

	// A pending local save wins over an external delete.
	repo.UpstreamCh <- core.Event{Type: core.EventDelete, ID: local.ID}
	<-stream
	_, ok = svc.Get(local.ID)
	assert.True(t, ok)

	repo.UpstreamCh <- core.Event{Type: core.EventDelete, ID: "ext"}
	<-stream
	_, ok = svc.Get("ext")
	assert.False(t, ok)
}
