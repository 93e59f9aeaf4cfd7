// Package player resolves song selections into playable handles, serving
// audio from the offline cache when possible and from the network otherwise.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"R2FM/core/connectivity"
	"R2FM/core/offline"
	"R2FM/logger"
	"R2FM/model"
)

var (
	// ErrSongUnavailableOffline reports a cache miss while offline. Terminal
	// for that playback attempt; callers present it to the user instead of
	// retrying.
	ErrSongUnavailableOffline = errors.New("song not available offline")
	// ErrNetworkFetchFailed reports a failed signed-URL issuance or audio
	// fetch. Surfaced to the UI as a non-fatal playback error; no automatic
	// retry at this layer.
	ErrNetworkFetchFailed = errors.New("network fetch failed")
)

// URLIssuer obtains a time-limited signed retrieval reference for a content
// key. Implemented by client.Client.
type URLIssuer interface {
	PlaybackURL(ctx context.Context, contentKey string) (string, error)
}

// Resolver turns song selections into playable handles.
type Resolver struct {
	store      *offline.Store
	oracle     *connectivity.Oracle
	issuer     URLIssuer
	httpClient *http.Client
}

// NewResolver creates a Resolver over the given cache store, connectivity
// oracle and signed-URL issuer.
func NewResolver(store *offline.Store, oracle *connectivity.Oracle, issuer URLIssuer) *Resolver {
	return &Resolver{
		store:  store,
		oracle: oracle,
		issuer: issuer,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Resolve produces a playable handle for the song: from cache when the
// content key is present, otherwise by fetching the audio through a signed
// URL and populating the cache as a side effect. Population is
// fire-and-forget; its failure never fails playback.
func (r *Resolver) Resolve(ctx context.Context, song model.Song) (*Handle, error) {
	cached, err := r.store.Get(song.ContentKey)
	if err == nil {
		return newHandle(song, cached.Audio)
	}
	if !errors.Is(err, offline.ErrNotFound) {
		// Storage trouble degrades to "not cached" rather than failing the
		// playback attempt.
		logger.Warn("Offline store lookup failed, treating as uncached",
			logger.String("contentKey", song.ContentKey), logger.ErrorField(err))
	}

	if !r.oracle.IsOnline() {
		return nil, fmt.Errorf("%w: %s", ErrSongUnavailableOffline, song.ContentKey)
	}

	audio, err := r.fetch(ctx, song.ContentKey)
	if err != nil {
		return nil, err
	}

	handle, err := newHandle(song, audio)
	if err != nil {
		return nil, err
	}

	go r.populate(song, audio)

	return handle, nil
}

func (r *Resolver) fetch(ctx context.Context, contentKey string) ([]byte, error) {
	url, err := r.issuer.PlaybackURL(ctx, contentKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFetchFailed, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d fetching %s", ErrNetworkFetchFailed, resp.StatusCode, contentKey)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFetchFailed, err)
	}
	return audio, nil
}

// populate writes the fetched audio into the cache. Duplicate keys are
// expected when concurrent resolutions race; the store's uniqueness
// constraint keeps exactly one entry.
func (r *Resolver) populate(song model.Song, audio []byte) {
	err := r.store.Put(model.CachedSong{Song: song, Audio: audio})
	switch {
	case err == nil:
	case errors.Is(err, offline.ErrDuplicateKey):
		logger.Debug("Song already cached", logger.String("contentKey", song.ContentKey))
	default:
		logger.Warn("Failed to cache song",
			logger.String("contentKey", song.ContentKey), logger.ErrorField(err))
	}
}

// Player keeps at most one live handle per instance. Selecting a new song
// releases the previous handle, bounding outstanding playback resources
// to O(1) regardless of how many songs were played.
type Player struct {
	resolver *Resolver

	mu      sync.Mutex
	current *Handle
}

// NewPlayer creates a Player over the resolver.
func NewPlayer(resolver *Resolver) *Player {
	return &Player{resolver: resolver}
}

// Play resolves the song and swaps it in as the current handle, releasing
// the previous one. Selecting the same song twice still creates a fresh
// handle.
func (p *Player) Play(ctx context.Context, song model.Song) (*Handle, error) {
	handle, err := p.resolver.Resolve(ctx, song)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	prev := p.current
	p.current = handle
	p.mu.Unlock()

	if prev != nil {
		if err := prev.Release(); err != nil {
			logger.Warn("Failed to release superseded handle", logger.ErrorField(err))
		}
	}
	return handle, nil
}

// Current returns the live handle, or nil when nothing is playing.
func (p *Player) Current() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Stop releases the current handle, if any.
func (p *Player) Stop() error {
	p.mu.Lock()
	prev := p.current
	p.current = nil
	p.mu.Unlock()

	if prev != nil {
		return prev.Release()
	}
	return nil
}
