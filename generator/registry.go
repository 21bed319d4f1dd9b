package generator

import (
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/loom/errors"
)

// Registry holds the generators participating in runs, in registration order.
type Registry struct {
	mu         sync.RWMutex
	generators []Generator
	byID       map[string]Generator
	engine     string
}

// NewRegistry creates a registry that checks generators against engineVersion.
func NewRegistry(engineVersion string) *Registry {
	return &Registry{
		byID:   make(map[string]Generator),
		engine: engineVersion,
	}
}

// Register adds g. It fails on a duplicate ID or an engine constraint that
// does not accept the registry's engine version.
func (r *Registry) Register(g Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := g.ID()
	if id == "" {
		return errors.NewInvalidArgumentError("generator has an empty ID")
	}
	if _, exists := r.byID[id]; exists {
		return errors.Newf("generator already registered: %s", id)
	}
	if err := r.validateEngine(g.Settings()); err != nil {
		return errors.Wrapf(err, "generator %s", id)
	}

	r.generators = append(r.generators, g)
	r.byID[id] = g
	return nil
}

// MustRegister is Register for composition roots; it panics on error.
func (r *Registry) MustRegister(gs ...Generator) *Registry {
	for _, g := range gs {
		if err := r.Register(g); err != nil {
			panic(fmt.Sprintf("register generator: %v", err))
		}
	}
	return r
}

// Get retrieves a generator by ID.
func (r *Registry) Get(id string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byID[id]
	return g, ok
}

// Generators returns the registered generators in registration order.
func (r *Registry) Generators() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Generator, len(r.generators))
	copy(out, r.generators)
	return out
}

// List returns the registered IDs in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.generators))
	for _, g := range r.generators {
		ids = append(ids, g.ID())
	}
	return ids
}

func (r *Registry) validateEngine(s Settings) error {
	if s.Engine == "" {
		return nil
	}

	engine, err := semver.NewVersion(r.engine)
	if err != nil {
		return errors.Wrapf(err, "invalid engine version %s", r.engine)
	}
	constraint, err := semver.NewConstraint(s.Engine)
	if err != nil {
		return errors.Wrapf(err, "invalid engine constraint %s", s.Engine)
	}
	if !constraint.Check(engine) {
		err := errors.Newf("requires engine %s, but running %s", s.Engine, r.engine)
		return errors.WithHint(err, "upgrade loom or pin an older generator version")
	}
	return nil
}
