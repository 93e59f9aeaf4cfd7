package player_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"R2FM/core/connectivity"
	"R2FM/core/offline"
	"R2FM/core/player"
	"R2FM/model"
)

// fakeIssuer points every content key at an audio test server and counts
// issuance calls.
type fakeIssuer struct {
	baseURL string
	calls   atomic.Int32
}

func (f *fakeIssuer) PlaybackURL(_ context.Context, contentKey string) (string, error) {
	f.calls.Add(1)
	return f.baseURL + "/audio/" + contentKey, nil
}

func audioFor(key string) []byte {
	return []byte("audio-" + key)
}

func newFixture(t *testing.T, online bool) (*player.Resolver, *offline.Store, *fakeIssuer, *connectivity.Oracle) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/audio/")
		w.Write(audioFor(key))
	}))
	t.Cleanup(srv.Close)

	store, err := offline.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	oracle := connectivity.NewOracle(online)
	issuer := &fakeIssuer{baseURL: srv.URL}
	return player.NewResolver(store, oracle, issuer), store, issuer, oracle
}

func song(id int64, key string) model.Song {
	return model.Song{ID: id, ContentKey: key, Title: fmt.Sprintf("Track %d", id)}
}

func TestResolveOfflineMissFails(t *testing.T) {
	t.Parallel()
	resolver, store, issuer, _ := newFixture(t, false)

	_, err := resolver.Resolve(context.Background(), song(1, "key-a"))
	require.ErrorIs(t, err, player.ErrSongUnavailableOffline)

	entries, err := store.ListAll()
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed offline resolve must not touch the cache")
	assert.Zero(t, issuer.calls.Load())
}

func TestResolveOnlinePopulatesCache(t *testing.T) {
	t.Parallel()
	resolver, store, _, _ := newFixture(t, true)

	handle, err := resolver.Resolve(context.Background(), song(1, "key-a"))
	require.NoError(t, err)
	defer handle.Release()

	data, err := os.ReadFile(handle.Path())
	require.NoError(t, err)
	assert.Equal(t, audioFor("key-a"), data)

	// Population is fire-and-forget; the entry shows up shortly after the
	// handle is returned.
	require.Eventually(t, func() bool {
		_, err := store.Get("key-a")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	entries, err := store.ListAll()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestResolveCachedHitSkipsNetwork(t *testing.T) {
	t.Parallel()
	resolver, store, issuer, oracle := newFixture(t, true)

	require.NoError(t, store.Put(model.CachedSong{Song: song(1, "key-a"), Audio: audioFor("key-a")}))

	// Even offline, a cached song resolves.
	oracle.Set(false)

	handle, err := resolver.Resolve(context.Background(), song(1, "key-a"))
	require.NoError(t, err)
	defer handle.Release()

	data, err := os.ReadFile(handle.Path())
	require.NoError(t, err)
	assert.Equal(t, audioFor("key-a"), data)
	assert.Zero(t, issuer.calls.Load(), "cache hit must not issue a signed URL")
}

func TestConcurrentResolvesCacheExactlyOneEntry(t *testing.T) {
	t.Parallel()
	resolver, store, _, _ := newFixture(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle, err := resolver.Resolve(context.Background(), song(1, "key-a"))
			assert.NoError(t, err)
			if handle != nil {
				handle.Release()
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		entries, err := store.ListAll()
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRepeatSelectionCreatesFreshHandle(t *testing.T) {
	t.Parallel()
	resolver, _, _, _ := newFixture(t, true)

	first, err := resolver.Resolve(context.Background(), song(1, "key-a"))
	require.NoError(t, err)
	defer first.Release()

	second, err := resolver.Resolve(context.Background(), song(1, "key-a"))
	require.NoError(t, err)
	defer second.Release()

	assert.NotEqual(t, first.Path(), second.Path())
}

func TestPlayerReleasesSupersededHandle(t *testing.T) {
	t.Parallel()
	resolver, _, _, _ := newFixture(t, true)
	p := player.NewPlayer(resolver)

	handleA, err := p.Play(context.Background(), song(1, "key-a"))
	require.NoError(t, err)
	pathA := handleA.Path()
	require.FileExists(t, pathA)

	handleB, err := p.Play(context.Background(), song(2, "key-b"))
	require.NoError(t, err)
	defer p.Stop()

	assert.True(t, handleA.Released())
	assert.NoFileExists(t, pathA)
	require.FileExists(t, handleB.Path())
	assert.Same(t, handleB, p.Current())
}

func TestPlayerStopReleasesCurrent(t *testing.T) {
	t.Parallel()
	resolver, _, _, _ := newFixture(t, true)
	p := player.NewPlayer(resolver)

	handle, err := p.Play(context.Background(), song(1, "key-a"))
	require.NoError(t, err)
	path := handle.Path()

	require.NoError(t, p.Stop())
	assert.NoFileExists(t, path)
	assert.Nil(t, p.Current())
}

func TestHandleReleaseIsIdempotent(t *testing.T) {
	t.Parallel()
	resolver, _, _, _ := newFixture(t, true)

	handle, err := resolver.Resolve(context.Background(), song(1, "key-a"))
	require.NoError(t, err)

	require.NoError(t, handle.Release())
	require.NoError(t, handle.Release())
	assert.Empty(t, handle.Path())
}
