package store

import (
	"context"
	"sync"
	"time"
)

// gates implements the per-conversation serialization gate: one slot per
// key, acquired for the duration of a read-modify-write. Entries are
// reference counted and removed when no goroutine holds or waits on them,
// so the map does not grow with the number of conversations ever touched.
type gates struct {
	mu sync.Mutex
	m  map[string]*gateEntry
}

type gateEntry struct {
	ch   chan struct{}
	refs int
}

func newGates() *gates {
	return &gates{m: make(map[string]*gateEntry)}
}

// acquire blocks until the gate for key is held or ctx is done. On success
// the returned release function must be called exactly once; it is safe to
// defer. Cancellation while waiting never leaves the gate held.
func (g *gates) acquire(ctx context.Context, key string) (func(), error) {
	g.mu.Lock()
	e, ok := g.m[key]
	if !ok {
		e = &gateEntry{ch: make(chan struct{}, 1)}
		g.m[key] = e
	}
	e.refs++
	g.mu.Unlock()

	start := time.Now()
	select {
	case e.ch <- struct{}{}:
		gateWaitSeconds.Observe(time.Since(start).Seconds())
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-e.ch
				g.unref(key, e)
			})
		}
		return release, nil
	case <-ctx.Done():
		g.unref(key, e)
		return nil, ctx.Err()
	}
}

func (g *gates) unref(key string, e *gateEntry) {
	g.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(g.m, key)
	}
	g.mu.Unlock()
}
