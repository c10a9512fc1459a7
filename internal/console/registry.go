package console

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/quorumdeck/quorumdeck/internal/platform/errors"
)

// Registry maps opaque session IDs to live consoles. It is the only place
// console state lives; nothing is persisted.
type Registry struct {
	mu       sync.RWMutex
	consoles map[string]*Console
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{consoles: map[string]*Console{}}
}

// NewID generates an opaque 128-bit session identifier.
func NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Put stores a console under id, closing any console it displaces.
func (r *Registry) Put(id string, c *Console) {
	r.mu.Lock()
	previous := r.consoles[id]
	r.consoles[id] = c
	r.mu.Unlock()

	if previous != nil && previous != c {
		_ = previous.Close()
	}
}

// Get returns the console for id.
func (r *Registry) Get(id string) (*Console, error) {
	r.mu.RLock()
	c, ok := r.consoles[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.CodeConsoleSessionNotFound, "console session not found")
	}
	return c, nil
}

// Delete removes and closes the console for id. Unknown IDs are a no-op.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	c, ok := r.consoles[id]
	delete(r.consoles, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return c.Close()
}

// Close releases every console in the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	consoles := r.consoles
	r.consoles = map[string]*Console{}
	r.mu.Unlock()

	var firstErr error
	for _, c := range consoles {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
