package campaign

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog provides named circuits.
type Catalog interface {
	// List returns the circuit names in sorted order.
	List() []string
	// Get returns the circuit registered under name.
	Get(name string) (Circuit, error)
	// GetAll returns every circuit, sorted by name.
	GetAll() []Circuit
}

// Registry is a concurrency-safe Catalog.
type Registry struct {
	mu       sync.RWMutex
	circuits map[string]Circuit
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{circuits: make(map[string]Circuit)}
}

// Register validates c and adds it. Names are unique.
func (r *Registry) Register(c Circuit) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.circuits[c.Name]; dup {
		return fmt.Errorf("circuit %q already registered", c.Name)
	}
	r.circuits[c.Name] = c
	return nil
}

// MustRegister is Register for package-level declarations; it panics on error.
func (r *Registry) MustRegister(cs ...Circuit) *Registry {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.circuits))
	for name := range r.circuits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the circuit registered under name.
func (r *Registry) Get(name string) (Circuit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.circuits[name]
	if !ok {
		return Circuit{}, fmt.Errorf("unknown circuit %q", name)
	}
	return c, nil
}

// GetAll returns every circuit, sorted by name.
func (r *Registry) GetAll() []Circuit {
	names := r.List()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Circuit, 0, len(names))
	for _, name := range names {
		if c, ok := r.circuits[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Select resolves a comma-free selection: "all" returns every circuit,
// otherwise each name must be registered.
func Select(cat Catalog, names []string) ([]Circuit, error) {
	if len(names) == 0 || (len(names) == 1 && names[0] == "all") {
		return cat.GetAll(), nil
	}
	out := make([]Circuit, 0, len(names))
	for _, name := range names {
		c, err := cat.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
