package catalog_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"R2FM/core/catalog"
	"R2FM/core/connectivity"
	"R2FM/core/offline"
	"R2FM/model"
)

// fakeLister serves pages out of a fixed newest-first slice.
type fakeLister struct {
	songs []model.Song
	err   error
	calls int
}

func (f *fakeLister) ListSongs(_ context.Context, offset, limit int) ([]model.Song, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.songs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.songs) {
		end = len(f.songs)
	}
	return f.songs[offset:end], nil
}

func catalogOf(n int) []model.Song {
	songs := make([]model.Song, n)
	for i := range songs {
		songs[i] = model.Song{ID: int64(i + 1), ContentKey: fmt.Sprintf("key-%d", i+1)}
	}
	return songs
}

func newStore(t *testing.T) *offline.Store {
	t.Helper()
	store, err := offline.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOnlinePagination(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{songs: catalogOf(40)}
	oracle := connectivity.NewOracle(true)

	c := catalog.NewController(lister, newStore(t), oracle, 32)
	defer c.Close()

	require.NoError(t, c.LoadMore(context.Background()))
	assert.Len(t, c.Songs(), 32)
	assert.True(t, c.HasMore())

	require.NoError(t, c.LoadMore(context.Background()))
	assert.Len(t, c.Songs(), 40)
	assert.False(t, c.HasMore())

	// Exhausted: further calls must not hit the lister.
	calls := lister.calls
	require.NoError(t, c.LoadMore(context.Background()))
	assert.Equal(t, calls, lister.calls)
}

func TestOnlineAppendsInServerOrder(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{songs: catalogOf(3)}
	oracle := connectivity.NewOracle(true)

	c := catalog.NewController(lister, newStore(t), oracle, 2)
	defer c.Close()

	require.NoError(t, c.LoadMore(context.Background()))
	require.NoError(t, c.LoadMore(context.Background()))

	got := c.Songs()
	require.Len(t, got, 3)
	for i, song := range got {
		assert.Equal(t, int64(i+1), song.ID)
	}
}

func TestOfflineModeListsCacheContents(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	require.NoError(t, store.Put(model.CachedSong{Song: model.Song{ID: 1, ContentKey: "key-a"}, Audio: []byte("a")}))
	require.NoError(t, store.Put(model.CachedSong{Song: model.Song{ID: 2, ContentKey: "key-b"}, Audio: []byte("b")}))

	lister := &fakeLister{songs: catalogOf(40)}
	oracle := connectivity.NewOracle(false)

	c := catalog.NewController(lister, store, oracle, 32)
	defer c.Close()

	keys := make(map[string]bool)
	for _, song := range c.Songs() {
		keys[song.ContentKey] = true
	}
	assert.Equal(t, map[string]bool{"key-a": true, "key-b": true}, keys)
	assert.False(t, c.HasMore())

	// LoadMore is a no-op offline.
	require.NoError(t, c.LoadMore(context.Background()))
	assert.Len(t, c.Songs(), 2)
	assert.Zero(t, lister.calls)
}

func TestTransitionOnlineToOfflineReplacesList(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	require.NoError(t, store.Put(model.CachedSong{Song: model.Song{ID: 99, ContentKey: "cached"}, Audio: []byte("x")}))

	lister := &fakeLister{songs: catalogOf(10)}
	oracle := connectivity.NewOracle(true)

	c := catalog.NewController(lister, store, oracle, 32)
	defer c.Close()

	require.NoError(t, c.LoadMore(context.Background()))
	require.Len(t, c.Songs(), 10)

	oracle.Set(false)

	got := c.Songs()
	require.Len(t, got, 1)
	assert.Equal(t, "cached", got[0].ContentKey)
	assert.False(t, c.HasMore())
}

func TestTransitionOfflineToOnlineRebuildsFromPageOne(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	// A song visible offline that is not in the remote catalog: it drops out
	// of view on reconnect.
	require.NoError(t, store.Put(model.CachedSong{Song: model.Song{ID: 99, ContentKey: "offline-only"}, Audio: []byte("x")}))

	lister := &fakeLister{songs: catalogOf(40)}
	oracle := connectivity.NewOracle(false)

	c := catalog.NewController(lister, store, oracle, 32)
	defer c.Close()
	require.Len(t, c.Songs(), 1)

	oracle.Set(true)

	got := c.Songs()
	require.Len(t, got, 32)
	for _, song := range got {
		assert.NotEqual(t, "offline-only", song.ContentKey)
	}
	assert.True(t, c.HasMore())
}

// gateLister blocks its first call until release is closed, optionally
// failing it; later calls serve pages immediately.
type gateLister struct {
	songs    []model.Song
	firstErr error
	started  chan struct{}
	release  chan struct{}
	calls    atomic.Int32
}

func (g *gateLister) ListSongs(_ context.Context, offset, limit int) ([]model.Song, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
		<-g.release
		if g.firstErr != nil {
			return nil, g.firstErr
		}
	}
	if offset >= len(g.songs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(g.songs) {
		end = len(g.songs)
	}
	return g.songs[offset:end], nil
}

func TestStalePageDiscardedAfterModeChange(t *testing.T) {
	t.Parallel()
	lister := &gateLister{
		songs:   catalogOf(40),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	oracle := connectivity.NewOracle(true)

	c := catalog.NewController(lister, newStore(t), oracle, 32)
	defer c.Close()

	done := make(chan error, 1)
	go func() { done <- c.LoadMore(context.Background()) }()
	<-lister.started

	// Bounce connectivity while the first fetch is in flight; the reconnect
	// refetches page one in the fresh session.
	oracle.Set(false)
	oracle.Set(true)
	require.Len(t, c.Songs(), 32)

	close(lister.release)
	require.NoError(t, <-done)

	// The superseded fetch also ran at offset 0; its page must not be
	// appended a second time.
	assert.Len(t, c.Songs(), 32)
	assert.True(t, c.HasMore())

	require.NoError(t, c.LoadMore(context.Background()))
	assert.Len(t, c.Songs(), 40)
}

func TestStaleFetchErrorSparesFreshSession(t *testing.T) {
	t.Parallel()
	lister := &gateLister{
		songs:    catalogOf(40),
		firstErr: fmt.Errorf("timeout"),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	oracle := connectivity.NewOracle(true)

	c := catalog.NewController(lister, newStore(t), oracle, 32)
	defer c.Close()

	done := make(chan error, 1)
	go func() { done <- c.LoadMore(context.Background()) }()
	<-lister.started

	oracle.Set(false)
	oracle.Set(true)
	require.Len(t, c.Songs(), 32)

	close(lister.release)
	require.NoError(t, <-done)

	// The failure belonged to the superseded session; pagination in the
	// fresh one keeps going.
	assert.True(t, c.HasMore())
	require.NoError(t, c.LoadMore(context.Background()))
	assert.Len(t, c.Songs(), 40)
	assert.False(t, c.HasMore())
}

func TestLoadMoreErrorHaltsPagination(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{err: fmt.Errorf("boom")}
	oracle := connectivity.NewOracle(true)

	c := catalog.NewController(lister, newStore(t), oracle, 32)
	defer c.Close()

	err := c.LoadMore(context.Background())
	require.Error(t, err)
	assert.False(t, c.HasMore())

	calls := lister.calls
	require.NoError(t, c.LoadMore(context.Background()))
	assert.Equal(t, calls, lister.calls)
}
