package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jot/internal/platform"
	"github.com/aretw0/jot/pkg/adapters/fs"
	"github.com/aretw0/jot/pkg/adapters/memory"
	"github.com/aretw0/jot/pkg/adapters/sqlite"
	"github.com/aretw0/jot/pkg/core"
)

func TestInit_FS(t *testing.T) {
	vaultPath := filepath.Join(t.TempDir(), "vault")

	repo, err := platform.Init(vaultPath)
	require.NoError(t, err)

	backend, ok := repo.Adapter().Backend().(*fs.Backend)
	require.True(t, ok, "expected fs backend, got %T", repo.Adapter().Backend())
	assert.Equal(t, vaultPath, backend.Path)

	info, err := os.Stat(vaultPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInit_FSWithYAML(t *testing.T) {
	vaultPath := t.TempDir()
	ctx := context.Background()

	repo, err := platform.Init(vaultPath, platform.WithCodec("yaml"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, core.Note{ID: "a", Title: "A", Tags: []string{}}))

	assert.FileExists(t, filepath.Join(vaultPath, "notes.yaml"))
	assert.FileExists(t, filepath.Join(vaultPath, "notes", "a.yaml"))
}

func TestInit_SQLite(t *testing.T) {
	dir := t.TempDir()

	repo, err := platform.Init(dir, platform.WithAdapter("sqlite"))
	require.NoError(t, err)
	defer repo.Close()

	_, ok := repo.Adapter().Backend().(*sqlite.Backend)
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(dir, sqlite.DefaultFilename))
}

func TestInit_Memory(t *testing.T) {
	repo, err := platform.Init("", platform.WithAdapter("memory"))
	require.NoError(t, err)

	_, ok := repo.Adapter().Backend().(*memory.Backend)
	assert.True(t, ok)
}

func TestInit_InjectedBackend(t *testing.T) {
	b := memory.NewBackend()

	repo, err := platform.Init("ignored", platform.WithAdapter("nope"), platform.WithBackend(b))
	require.NoError(t, err)
	assert.Same(t, b, repo.Adapter().Backend())
}

func TestInit_Errors(t *testing.T) {
	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.Init(t.TempDir(), platform.WithAdapter("s3"))
		assert.Error(t, err)
	})

	t.Run("Unknown Codec", func(t *testing.T) {
		_, err := platform.Init(t.TempDir(), platform.WithCodec("xml"))
		assert.Error(t, err)
	})

	t.Run("MustExist Fails if Directory Missing", func(t *testing.T) {
		_, err := platform.Init(filepath.Join(t.TempDir(), "missing"), platform.WithMustExist(true))
		assert.Error(t, err)
	})
}

func TestInit_DevSafetyReroutesOutsideTemp(t *testing.T) {
	repo, err := platform.Init("jot-sandbox-check", platform.WithForceTemp(true))
	require.NoError(t, err)

	backend := repo.Adapter().Backend().(*fs.Backend)
	want := filepath.Join(os.TempDir(), "jot-dev", "jot-sandbox-check")
	assert.Equal(t, want, backend.Path)
	t.Cleanup(func() { os.RemoveAll(want) })
}
