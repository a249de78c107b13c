package order

import (
	"fmt"
	"sort"
	"sync"
)

// LocatorFactory creates a Locator for a strategy.
type LocatorFactory func() Locator

// DefaultLocatorName is the strategy used when none is configured.
const DefaultLocatorName = "brace"

// LocatorRegistry maintains the available body locator strategies.
// Strategies register by name; alternate ones register themselves via init().
// Thread-safe for concurrent access.
type LocatorRegistry struct {
	mu       sync.RWMutex
	locators map[string]LocatorFactory
}

// NewLocatorRegistry creates a registry holding only the brace strategy.
func NewLocatorRegistry() *LocatorRegistry {
	r := &LocatorRegistry{
		locators: make(map[string]LocatorFactory),
	}
	r.Register(DefaultLocatorName, func() Locator { return NewBraceLocator() })
	return r
}

// Register adds a locator factory. The first registration of a name wins.
func (r *LocatorRegistry) Register(name string, factory LocatorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.locators[name]; exists {
		return
	}
	r.locators[name] = factory
}

// Create instantiates a locator by name. An empty name selects the default.
func (r *LocatorRegistry) Create(name string) (Locator, error) {
	if name == "" {
		name = DefaultLocatorName
	}

	r.mu.RLock()
	factory, ok := r.locators[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("locator not registered: %s", name)
	}
	return factory(), nil
}

// Has returns true if a locator with the given name is registered.
func (r *LocatorRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.locators[name]
	return ok
}

// Names returns all registered strategy names, sorted.
func (r *LocatorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.locators))
	for name := range r.locators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global locator registry.
var DefaultRegistry = NewLocatorRegistry()
