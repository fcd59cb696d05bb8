package channel

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the channels enabled for a deployment. It is safe for
// concurrent use; registration normally happens once at startup while
// lookups happen on every dispatched job.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds a channel under its own name. Registering a second
// channel with the same name fails rather than silently replacing the
// first.
func (r *Registry) Register(ch Channel) error {
	if ch == nil {
		return fmt.Errorf("%w: channel is nil", ErrInvalidConfig)
	}
	name := ch.Name()
	if name == "" {
		return fmt.Errorf("%w: channel name is empty", ErrInvalidConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[name]; ok {
		return fmt.Errorf("%w: %s", ErrChannelExists, name)
	}
	r.channels[name] = ch
	return nil
}

// Get returns the channel registered under name.
func (r *Registry) Get(name string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, name)
	}
	return ch, nil
}

// Has reports whether a channel is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.channels[name]
	return ok
}

// List returns the registered channel names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
