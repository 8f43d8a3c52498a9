package platform_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jot/internal/platform"
	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/debounce"
)

// persistentAdapters are the adapters whose data survives a reopen.
var persistentAdapters = []struct {
	adapter string
	codec   string
}{
	{"fs", "json"},
	{"fs", "yaml"},
	{"sqlite", "json"},
	{"sqlite", "yaml"},
}

func TestService_SurvivesReopen(t *testing.T) {
	for _, tc := range persistentAdapters {
		t.Run(fmt.Sprintf("%s-%s", tc.adapter, tc.codec), func(t *testing.T) {
			dir := t.TempDir()
			opts := []platform.Option{platform.WithAdapter(tc.adapter), platform.WithCodec(tc.codec)}

			svc, err := platform.New(dir, opts...)
			require.NoError(t, err)

			n := svc.Create()
			edited, ok := svc.Edit(n.ID, core.ParseText("# Trip\npack #travel and #maps\n#travel"), "")
			require.True(t, ok)
			gone := svc.Create()
			require.NoError(t, svc.Delete(context.Background(), gone.ID))
			require.NoError(t, svc.Close())

			reopened, err := platform.New(dir, opts...)
			require.NoError(t, err)
			defer reopened.Close()

			notes := reopened.Notes()
			require.Len(t, notes, 1)
			got := notes[0]
			assert.Equal(t, edited.ID, got.ID)
			assert.Equal(t, "Trip", got.Title)
			assert.Equal(t, []string{"travel", "maps"}, got.Tags)
			assert.Equal(t, edited.Content, got.Content)
			assert.True(t, edited.UpdatedAt.Equal(got.UpdatedAt))

			_, ok = reopened.Get(gone.ID)
			assert.False(t, ok, "deleted note must not come back")
			assert.Equal(t, []string{"maps", "travel"}, reopened.Tags())
		})
	}
}

func TestService_DebounceThroughFactory(t *testing.T) {
	clock := debounce.NewManualClock()
	svc, err := platform.New("", platform.WithAdapter("memory"), platform.WithClock(clock), platform.WithDebounce(time.Second))
	require.NoError(t, err)
	defer svc.Close()

	n := svc.Create()
	clock.Advance(999 * time.Millisecond)
	assert.True(t, svc.Pending(n.ID))

	clock.Advance(time.Millisecond)
	assert.False(t, svc.Pending(n.ID))

	stored, err := svc.Repository().Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, stored.ID)
}

func TestService_WatchSeesForeignWrites(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := platform.New(dir)
	require.NoError(t, err)
	defer svc.Close()

	events, err := svc.Watch(ctx, "")
	require.NoError(t, err)

	// A second process writing to the same vault.
	other, err := platform.New(dir)
	require.NoError(t, err)
	n := other.Create()
	require.NoError(t, other.Close())

	deadline := time.After(3 * time.Second)
	for {
		select {
		case e := <-events:
			if e.ID != n.ID {
				continue
			}
			got, ok := svc.Get(n.ID)
			require.True(t, ok)
			assert.Equal(t, core.DefaultTitle, got.Title)
			return
		case <-deadline:
			t.Fatal("timeout waiting for foreign write")
		}
	}
}
