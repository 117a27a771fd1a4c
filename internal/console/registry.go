package console

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/userdesk/internal/session"
)

// Workspace is everything the console keeps for one browser session.
type Workspace struct {
	Session *session.Session
	Login   *LoginView
	Board   *Board
}

type WorkspaceFactory func(sessionID string) *Workspace

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

// Registry maps session ids to workspaces. View state is in memory only; the
// token itself lives in the session store and survives eviction.
type Registry struct {
	mu      sync.Mutex
	items   map[string]*entry
	factory WorkspaceFactory
	idleTTL time.Duration
	now     func() time.Time
}

func NewRegistry(factory WorkspaceFactory, idleTTL time.Duration) *Registry {
	return &Registry{
		items:   make(map[string]*entry),
		factory: factory,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Get returns the workspace for id, creating it on first use.
func (r *Registry) Get(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.items[id]
	if !ok {
		e = &entry{ws: r.factory(id)}
		r.items[id] = e
	}
	e.lastSeen = now
	return e.ws
}

// Drop forgets the view state of id. The next Get starts fresh.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep evicts workspaces idle for longer than the idle TTL and returns how
// many went.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	n := 0
	for id, e := range r.items {
		if e.lastSeen.Before(cutoff) {
			delete(r.items, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}
