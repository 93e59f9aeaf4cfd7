// Package connectivity tracks network reachability for the player core.
// The Oracle is the only writer of the connectivity state; the catalog
// controller and the playback resolver observe it independently.
package connectivity

import "sync"

// Oracle holds the process-wide reachability flag and fans out transition
// events to subscribers. Repeated identical states do not fire events.
type Oracle struct {
	mu        sync.Mutex
	online    bool
	nextID    int
	listeners map[int]func(online bool)
}

// NewOracle creates an Oracle seeded with the current reachability state.
func NewOracle(initial bool) *Oracle {
	return &Oracle{
		online:    initial,
		listeners: make(map[int]func(bool)),
	}
}

// IsOnline reports the current reachability state.
func (o *Oracle) IsOnline() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

// Set records a reachability transition and notifies subscribers. Setting
// the state it already holds is a no-op.
func (o *Oracle) Set(online bool) {
	o.mu.Lock()
	if o.online == online {
		o.mu.Unlock()
		return
	}
	o.online = online

	fns := make([]func(bool), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	// Notify outside the lock so a subscriber may read the Oracle or
	// unsubscribe from within its callback.
	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers fn for transition events and returns a disposer.
// Callers must invoke the disposer on every exit path of their own lifetime.
func (o *Oracle) Subscribe(fn func(online bool)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}
