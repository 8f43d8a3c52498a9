package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	for _, marker := range rootMarkers {
		t.Run(marker, func(t *testing.T) {
			vault := filepath.Join(t.TempDir(), "vault")
			nested := filepath.Join(vault, "notes", "deep")
			require.NoError(t, os.MkdirAll(nested, 0755))
			require.NoError(t, os.WriteFile(filepath.Join(vault, marker), nil, 0644))

			for _, start := range []string{vault, nested} {
				got, err := FindRoot(start)
				require.NoError(t, err, "start %s", start)
				assert.Equal(t, filepath.Clean(vault), filepath.Clean(got))
			}
		})
	}
}

func TestFindRoot_NearestWins(t *testing.T) {
	outer := t.TempDir()
	inner := filepath.Join(outer, "inner")
	require.NoError(t, os.MkdirAll(inner, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(outer, "jot.toml"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inner, "jot.db"), nil, 0644))

	got, err := FindRoot(inner)
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}

func TestFindRoot_NotFound(t *testing.T) {
	// The temp dir's ancestors could hold a marker; only assert when they don't.
	empty := t.TempDir()
	got, err := FindRoot(empty)
	if err == nil {
		assert.NotEqual(t, empty, got)
		return
	}
	assert.Empty(t, got)
}
