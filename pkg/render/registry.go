package render

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

var (
	// ErrUnknownRenderer is returned when no renderer is registered under a
	// name.
	ErrUnknownRenderer = errors.New("render: unknown renderer")
	// ErrNoPages is returned when a renderer only renders single forms.
	ErrNoPages = errors.New("render: renderer cannot render pages")
)

// Registry holds the output formats a request can pick between, typically
// the HTML pages and the terminal prompts, keyed by Name().
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Renderer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Renderer)}
}

// Register adds renderer. Names must be non-empty and unique.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return errors.New("render: renderer is required")
	}
	name := renderer.Name()
	if name == "" {
		return errors.New("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("render: renderer %q already registered", name)
	}
	r.byName[name] = renderer
	return nil
}

// MustRegister is Register for wiring that cannot fail at runtime.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get returns the renderer registered under name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	renderer, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
	return renderer, nil
}

// Pages returns the named renderer when it also renders the landing and
// result pages.
func (r *Registry) Pages(name string) (PageRenderer, error) {
	renderer, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return AsPages(renderer)
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byName))
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

// AsPages narrows renderer to a PageRenderer or reports ErrNoPages.
func AsPages(renderer Renderer) (PageRenderer, error) {
	pages, ok := renderer.(PageRenderer)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoPages, renderer.Name())
	}
	return pages, nil
}
