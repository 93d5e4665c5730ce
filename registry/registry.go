// Package registry provides the in-memory project registry: the single
// authority for project state shared between HTTP handlers, the engine,
// and background sweeps.
//
// The registry holds live aggregates behind per-project mutexes. Reads
// return deep-copied snapshots; all writes go through [Registry.Mutate],
// which runs the caller's function under the project's lock so concurrent
// message appends, artifact merges, and status transitions serialize per
// project without blocking unrelated projects.
//
// Projects live here until explicitly evicted. The optional [Janitor]
// sweeps terminal projects on a cron schedule once a retention window is
// configured; by default nothing is ever evicted.
package registry

import (
	"log/slog"
	"sync"

	"github.com/xraph/atelier"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
)

// entry pairs a live aggregate with the mutex that serializes access to
// it. The pointer inside never changes after registration; only the
// aggregate's fields do.
type entry struct {
	mu sync.Mutex
	p  *project.Project
}

// Registry is a concurrency-safe map of project ID to project state.
type Registry struct {
	mu      sync.RWMutex
	entries map[id.ProjectID]*entry
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used by the registry and its janitor.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[id.ProjectID]*entry),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts a new project. Returns [atelier.ErrDuplicateProject]
// if the ID is already present.
func (r *Registry) Register(p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[p.ID]; exists {
		return atelier.ErrDuplicateProject
	}
	r.entries[p.ID] = &entry{p: p}

	r.logger.Debug("project registered", "project_id", p.ID, "status", p.Status)
	return nil
}

// Get returns a deep-copied snapshot of the project, or
// [atelier.ErrProjectNotFound]. Mutating the returned value has no effect
// on registry state.
func (r *Registry) Get(pid id.ProjectID) (*project.Project, error) {
	e, err := r.lookup(pid)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.p.Clone(), nil
}

// Mutate runs fn on the live project under its lock. The update is atomic
// with respect to every other Mutate and Get on the same project. If fn
// returns an error the error is passed through; any changes fn already
// made to the aggregate remain.
func (r *Registry) Mutate(pid id.ProjectID, fn func(*project.Project) error) error {
	e, err := r.lookup(pid)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.p)
}

// List returns snapshots of every registered project, in no particular
// order.
func (r *Registry) List() []*project.Project {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]*project.Project, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.p.Clone())
		e.mu.Unlock()
	}
	return out
}

// Len returns the number of registered projects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Evict removes a project and reports whether it was present. The
// project's artifacts and messages are gone with it.
func (r *Registry) Evict(pid id.ProjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[pid]; !exists {
		return false
	}
	delete(r.entries, pid)

	r.logger.Debug("project evicted", "project_id", pid)
	return true
}

func (r *Registry) lookup(pid id.ProjectID) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[pid]
	if !exists {
		return nil, atelier.ErrProjectNotFound
	}
	return e, nil
}
