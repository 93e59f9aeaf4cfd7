package player

import (
	"fmt"
	"os"
	"sync"

	"R2FM/model"
)

// Handle is an ephemeral, revocable reference to playable audio. It owns a
// temp file an audio backend can read from; Release deletes the file.
// Failing to release a superseded handle leaks the file for the rest of the
// session.
type Handle struct {
	song model.Song

	mu       sync.Mutex
	path     string
	released bool
}

func newHandle(song model.Song, audio []byte) (*Handle, error) {
	f, err := os.CreateTemp("", "r2fm-audio-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create playback file: %w", err)
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write playback file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close playback file: %w", err)
	}

	return &Handle{song: song, path: f.Name()}, nil
}

// Song returns the catalog metadata this handle was resolved for.
func (h *Handle) Song() model.Song {
	return h.song
}

// Path returns the local file the audio backend should play. Empty once
// released.
func (h *Handle) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ""
	}
	return h.path
}

// Release revokes the handle and removes its backing file. Idempotent.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove playback file: %w", err)
	}
	return nil
}

// Released reports whether the handle has been revoked.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
