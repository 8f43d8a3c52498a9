package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jot/pkg/adapters/fs"
	"github.com/aretw0/jot/pkg/adapters/memory"
	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/storage"
)

func note(id string, tags ...string) core.Note {
	if tags == nil {
		tags = []string{}
	}
	return core.Note{
		ID:        id,
		Title:     id,
		Content:   core.ParseText("# " + id),
		UpdatedAt: time.Unix(1700000000, 0).UTC(),
		Tags:      tags,
	}
}

func newRepo(t *testing.T) (*storage.NoteRepository, *memory.Backend) {
	t.Helper()
	a, backend := newAdapter(t, nil)
	return storage.NewNoteRepository(a), backend
}

func ids(notes []core.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestNoteRepository_SaveAndLoad(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, note("a", "x")))
	require.NoError(t, repo.Save(ctx, note("b")))

	notes, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(notes))
	assert.Equal(t, []string{"x"}, notes[0].Tags)
	assert.Equal(t, []string{}, notes[1].Tags)
}

func TestNoteRepository_SaveMovesIDToEnd(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "a"} {
		require.NoError(t, repo.Save(ctx, note(id)))
	}

	assert.Equal(t, []string{"b", "a"}, repo.Index(ctx))
}

func TestNoteRepository_SaveWithoutID(t *testing.T) {
	repo, _ := newRepo(t)

	assert.Error(t, repo.Save(context.Background(), core.Note{}))
}

func TestNoteRepository_EmptyStorage(t *testing.T) {
	repo, _ := newRepo(t)

	notes, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNoteRepository_LoadSkipsBrokenRecords(t *testing.T) {
	repo, backend := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, note("a")))
	require.NoError(t, backend.Set(ctx, core.IndexKey, []byte(`["a","missing","bad","a","wrong"]`)))
	require.NoError(t, backend.Set(ctx, core.RecordKey("bad"), []byte("{oops")))
	require.NoError(t, backend.Set(ctx, core.RecordKey("wrong"), []byte(`{"id":"other"}`)))

	notes, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(notes))
}

func TestNoteRepository_Get(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.Save(ctx, note("a")))
	n, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", n.ID)
}

func TestNoteRepository_Delete(t *testing.T) {
	repo, backend := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, note("a")))
	require.NoError(t, repo.Save(ctx, note("b")))
	require.NoError(t, repo.Delete(ctx, "a"))

	notes, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(notes))

	_, err = backend.Get(ctx, core.RecordKey("a"))
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.NoError(t, repo.Delete(ctx, "a"), "deleting twice is a no-op")
}

func TestNoteRepository_CheckAndRepair(t *testing.T) {
	repo, backend := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, note("a")))
	require.NoError(t, repo.Save(ctx, note("b")))

	// Simulate a crash between the two writes of Delete and of Save.
	require.NoError(t, backend.Remove(ctx, core.RecordKey("a")))
	orphan := note("c")
	data, err := storage.JSONCodec{}.Marshal(orphan)
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, core.RecordKey("c"), data))

	report, err := repo.Check(ctx)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, []string{"a"}, report.Dangling)
	assert.Equal(t, []string{"c"}, report.Orphans)

	require.NoError(t, repo.Repair(ctx, report))
	assert.Equal(t, []string{"b", "c"}, repo.Index(ctx))

	report, err = repo.Check(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestNoteRepository_Watch(t *testing.T) {
	repo, _ := newRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, note("a")))
	require.NoError(t, repo.Delete(ctx, "a"))

	var got []core.Event
	for len(got) < 2 {
		select {
		case e := <-events:
			got = append(got, e)
		case <-time.After(time.Second):
			t.Fatalf("timeout, got %v", got)
		}
	}
	assert.Equal(t, core.Event{Type: core.EventCreate, ID: "a", Timestamp: got[0].Timestamp}, got[0])
	assert.Equal(t, core.EventDelete, got[1].Type)
	assert.Equal(t, "a", got[1].ID)
}

func TestNoteRepository_WatchUnsupported(t *testing.T) {
	repo := storage.NewNoteRepository(storage.NewAdapter(unwatchable{memory.NewBackend()}, storage.Config{}))

	_, err := repo.Watch(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrNotWatchable)
}

// unwatchable hides the Watch method of a backend.
type unwatchable struct{ core.Backend }

func TestNoteRepository_OnFilesystem(t *testing.T) {
	ctx := context.Background()
	backend := fs.NewBackend(fs.Config{Path: t.TempDir(), Ext: "yaml"})
	require.NoError(t, backend.Initialize(ctx))
	repo := storage.NewNoteRepository(storage.NewAdapter(backend, storage.Config{Codec: storage.YAMLCodec{}}))

	want := note("a", "x")
	require.NoError(t, repo.Save(ctx, want))

	notes, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, want.UpdatedAt.Equal(notes[0].UpdatedAt))
	assert.Equal(t, want.Content, notes[0].Content)
	assert.Equal(t, want.Tags, notes[0].Tags)
}
