package collector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/smaprob/internal/core"
)

// Registry manages the available price providers
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry creates a new collector registry
func NewRegistry() *Registry {
	return &Registry{
		collectors: make(map[string]Collector),
	}
}

// Register adds a collector to the registry
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Name()] = c
}

// Get retrieves a collector by name
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	return c, ok
}

// Open retrieves a collector by name and initializes it with cfg
func (r *Registry) Open(name string, cfg Config) (Collector, error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown provider %q (available: %v)", name, r.Names()))
	}
	if err := c.Init(cfg); err != nil {
		return nil, fmt.Errorf("initializing provider %s: %w", name, err)
	}
	return c, nil
}

// Names returns the registered collector names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
