package jsonstate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/prwatch/internal/adapter/driven/jsonstate"
	"github.com/ericfisherdev/prwatch/internal/domain/model"
)

func newTestStore(t *testing.T) (*jsonstate.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	return jsonstate.NewStore(path), path
}

func TestStore_LoadMissingFile(t *testing.T) {
	store, _ := newTestStore(t)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	status := model.PRStatus{Title: "hello", State: model.PRStateOpen, CIStatus: model.CIPending, ReviewStatus: model.ReviewPending}
	in := model.PersistedState{
		Credential: "ghp_token",
		WatchList: []model.WatchEntry{
			{Owner: "o", Repo: "r", Number: "1", URL: "https://github.com/o/r/pull/1", CachedStatus: &status},
		},
		IntervalSeconds: 45,
		OwnerHistory:    []string{"o"},
		LastRefreshTime: "2026-08-31T09:00:00Z",
	}

	require.NoError(t, store.Save(context.Background(), in))

	out, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, model.PersistedState{IntervalSeconds: 30}))
	require.NoError(t, store.Save(ctx, model.PersistedState{IntervalSeconds: 90}))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 90, out.IntervalSeconds)
}

// TestStore_LoadLegacyFile verifies an older on-disk shape with bare URL
// strings in the watch list still loads.
func TestStore_LoadLegacyFile(t *testing.T) {
	store, path := newTestStore(t)

	legacy := `{
		"credential": "old-token",
		"watch_list": [
			"https://github.com/legacy/one/pull/1",
			{"owner": "o", "repo": "r", "number": "2", "url": "https://github.com/o/r/pull/2"}
		],
		"interval_seconds": 120
	}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	out, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "old-token", out.Credential)
	assert.Equal(t, 120, out.IntervalSeconds)
	require.Len(t, out.WatchList, 2)
	assert.Equal(t, model.PRIdentity{Owner: "legacy", Repo: "one", Number: "1"}, out.WatchList[0].Identity())
}

func TestStore_LoadCorruptFile(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}
