package viewstate

import (
	"context"
	"sync"
	"time"
)

type registryEntry struct {
	store    *Store
	lastUsed time.Time
}

// Registry maps session keys to stores and expires idle ones.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	ttl     time.Duration
	now     func() time.Time
	onStale func(slice string)
}

// NewRegistry creates a registry. onStale, if non-nil, is installed on every
// store it creates.
func NewRegistry(ttl time.Duration, onStale func(slice string)) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		ttl:     ttl,
		now:     time.Now,
		onStale: onStale,
	}
}

// Get returns the store for key, creating it on first use.
func (r *Registry) Get(key string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		s := New()
		if r.onStale != nil {
			s.OnStale(r.onStale)
		}
		e = &registryEntry{store: s}
		r.entries[key] = e
	}
	e.lastUsed = r.now()
	return e.store
}

func (r *Registry) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes stores idle longer than the TTL and returns how many it removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	n := 0
	for key, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, key)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
