// Package registry maintains the process-wide session map and enforces the
// server's concurrency cap.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wardenlabs/bruteloom/pkg/plugin"
	"github.com/wardenlabs/bruteloom/pkg/session"
)

// ErrNoCapacity is returned by Start when available_workers == 0.
var ErrNoCapacity = errors.New("no capacity: concurrency cap reached")

// ErrSessionNotFound is returned by Get/Stop for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Registry maps session id to Session and enforces a concurrency cap on the
// number of simultaneously Running sessions. All mutating operations are
// serialized on an internal write lock; listing/inspection take a read lock
// and return snapshots.
type Registry struct {
	mu             sync.RWMutex
	sessions       map[string]*session.Session
	concurrencyCap int
	running        int

	Plugins *plugin.Registry
}

// New builds a Registry with the given concurrency cap.
func New(plugins *plugin.Registry, concurrencyCap int) *Registry {
	if concurrencyCap <= 0 {
		concurrencyCap = 10
	}
	return &Registry{
		sessions:       make(map[string]*session.Session),
		concurrencyCap: concurrencyCap,
		Plugins:        plugins,
	}
}

// AvailableWorkers returns concurrency_cap - running_count.
func (r *Registry) AvailableWorkers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.concurrencyCap - r.running
}

// Start validates argv, reserves a capacity slot, and launches a new
// session on backend. The campaign is parsed and the backend goroutine is
// spawned outside the write lock — only the resulting Session handle and its
// capacity reservation are inserted under lock — so a slow backend.Start
// never blocks readers or other starts.
func (r *Registry) Start(client string, argv []string, backend session.Backend) (*session.Session, error) {
	r.mu.Lock()
	if r.running >= r.concurrencyCap {
		r.mu.Unlock()
		return nil, ErrNoCapacity
	}
	r.running++
	r.mu.Unlock()

	campaign, err := session.ParseArgv(argv, r.Plugins)
	if err != nil {
		r.mu.Lock()
		r.running--
		r.mu.Unlock()
		return nil, err
	}

	id := uuid.New().String()
	sess := session.New(id, client, argv, campaign.PluginID, campaign.TargetSpec, campaign.SearchSpaceSize)

	ctx, cancel := context.WithCancel(context.Background())
	sess.SetCancelFunc(cancel)

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	go func() {
		_ = backend.Start(ctx, sess, campaign)
		cancel()
		r.mu.Lock()
		r.running--
		r.mu.Unlock()
	}()

	return sess, nil
}

// Get returns the session registered under id.
func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// List returns a snapshot of every known session, running or completed.
func (r *Registry) List() []session.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]session.Snapshot, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess.Snapshot())
	}
	return out
}

// Stop requests cooperative cancellation of the session registered under id.
// Idempotent: stopping an already-Completed session returns success.
func (r *Registry) Stop(id string) error {
	sess, err := r.Get(id)
	if err != nil {
		return err
	}
	sess.Stop()
	return nil
}
