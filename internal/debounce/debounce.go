// Package debounce implements trailing-edge debouncing for request handlers:
// of a burst of calls only the most recent one runs and resolves.
package debounce

import (
	"context"
	"sync"
	"time"
)

const DefaultDelay = 300 * time.Millisecond

type Debouncer struct {
	delay time.Duration

	mu       sync.Mutex
	seq      uint64
	lastUsed time.Time
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, lastUsed: time.Now()}
}

func (d *Debouncer) begin() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.lastUsed = time.Now()
	return d.seq
}

func (d *Debouncer) current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq == seq
}

func (d *Debouncer) idleSince() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastUsed
}

// Run waits out the debounce delay and then calls fn. ok is false when a
// newer call on d arrived before this one resolved; fn is then either never
// called or its result is dropped.
func Run[T any](ctx context.Context, d *Debouncer, fn func(context.Context) (T, error)) (result T, ok bool, err error) {
	seq := d.begin()

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return result, false, ctx.Err()
	}

	if !d.current(seq) {
		return result, false, nil
	}

	value, err := fn(ctx)
	if !d.current(seq) {
		return result, false, nil
	}
	return value, true, err
}

// Registry hands out one Debouncer per key, typically a client session.
type Registry struct {
	debouncers map[string]*Debouncer
	mu         sync.RWMutex
	delay      time.Duration
	idleTTL    time.Duration
}

func NewRegistry(delay, idleTTL time.Duration) *Registry {
	return &Registry{
		debouncers: make(map[string]*Debouncer),
		delay:      delay,
		idleTTL:    idleTTL,
	}
}

func (r *Registry) Get(key string) *Debouncer {
	r.mu.RLock()
	d, exists := r.debouncers[key]
	r.mu.RUnlock()

	if exists {
		return d
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, exists = r.debouncers[key]; exists {
		return d
	}

	r.evictIdleLocked()
	d = New(r.delay)
	r.debouncers[key] = d
	return d
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.debouncers)
}

func (r *Registry) evictIdleLocked() {
	if r.idleTTL <= 0 {
		return
	}
	cutoff := time.Now().Add(-r.idleTTL)
	for key, d := range r.debouncers {
		if d.idleSince().Before(cutoff) {
			delete(r.debouncers, key)
		}
	}
}
