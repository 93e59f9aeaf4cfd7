// Package catalog merges the paginated remote song catalog with the offline
// cache into one consistent, append-only view.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"R2FM/core/connectivity"
	"R2FM/core/offline"
	"R2FM/logger"
	"R2FM/model"
)

// Lister fetches one page of the remote catalog, newest-first. Implemented
// by client.Client.
type Lister interface {
	ListSongs(ctx context.Context, offset, limit int) ([]model.Song, error)
}

// Controller is a two-mode view over the song catalog. Online it paginates
// the remote API with an offset/limit cursor; offline it presents the cache
// contents as the complete list. Connectivity transitions switch modes
// immediately, rebuilding the visible list (reconnecting discards the
// offline view and refetches page one — never merged).
//
// LoadMore is not internally serialized; callers must not invoke it
// re-entrantly.
type Controller struct {
	lister Lister
	store  *offline.Store
	oracle *connectivity.Oracle
	limit  int

	dispose func()

	mu      sync.Mutex
	online  bool
	gen     int // bumped on every mode entry; stale fetches carry the old value
	offset  int
	songs   []model.Song
	hasMore bool
}

// NewController builds a controller in the mode matching the oracle's
// current state and subscribes to its transitions. Callers own the
// subscription lifetime: Close must run on every exit path.
func NewController(lister Lister, store *offline.Store, oracle *connectivity.Oracle, limit int) *Controller {
	c := &Controller{
		lister: lister,
		store:  store,
		oracle: oracle,
		limit:  limit,
	}

	c.enterMode(oracle.IsOnline())
	c.dispose = oracle.Subscribe(func(online bool) {
		c.enterMode(online)
		if online {
			// Rebuild from network: reset cursor and refetch page one.
			if err := c.LoadMore(context.Background()); err != nil {
				logger.Warn("Failed to refetch catalog after reconnect", logger.ErrorField(err))
			}
		}
	})
	return c
}

// Close unsubscribes from connectivity transitions.
func (c *Controller) Close() {
	if c.dispose != nil {
		c.dispose()
		c.dispose = nil
	}
}

// enterMode resets the view for the given connectivity state.
func (c *Controller) enterMode(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.online = online
	c.gen++
	c.offset = 0
	c.songs = nil

	if online {
		c.hasMore = true
		return
	}

	// Offline: the cache contents are the complete, non-paginated list.
	c.hasMore = false
	entries, err := c.store.ListAll()
	if err != nil {
		// Degrade to an empty cache rather than failing the view.
		logger.Warn("Failed to enumerate offline cache", logger.ErrorField(err))
		return
	}
	for _, entry := range entries {
		c.songs = append(c.songs, entry.Song)
	}
}

// LoadMore fetches the next catalog page and appends it to the visible list.
// A page shorter than the limit exhausts the catalog. In offline mode it is
// a no-op. A fetch error halts pagination and is returned to the caller.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if !c.online || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	offset := c.offset
	gen := c.gen
	c.mu.Unlock()

	page, err := c.lister.ListSongs(ctx, offset, c.limit)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// A transition replaced the view while the fetch was in flight;
		// discard the stale page (or its error) without touching the fresh
		// session's pagination.
		return nil
	}
	if err != nil {
		c.hasMore = false
		return fmt.Errorf("failed to fetch catalog page at offset %d: %w", offset, err)
	}
	c.songs = append(c.songs, page...)
	c.offset += c.limit
	if len(page) < c.limit {
		c.hasMore = false
	}
	return nil
}

// Songs returns a snapshot of the visible list, in server order online and
// unordered offline.
func (c *Controller) Songs() []model.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Song, len(c.songs))
	copy(out, c.songs)
	return out
}

// HasMore reports whether another LoadMore call can extend the list.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// IsOnline reports the mode the controller is currently presenting.
func (c *Controller) IsOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}
