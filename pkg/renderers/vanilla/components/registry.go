package components

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-grantforms/pkg/model"
	rendertemplate "github.com/goliatone/go-grantforms/pkg/render/template"
)

// ErrUnknownWidget is returned when a field names a widget nobody registered.
var ErrUnknownWidget = errors.New("components: unknown widget")

// Renderer writes the control markup for one field into buf. The label, help
// text, warning and error slot around it belong to the caller.
type Renderer func(buf *bytes.Buffer, field model.Field, data ComponentData) error

// ComponentData is the visitor state of the field being drawn.
type ComponentData struct {
	Template      rendertemplate.TemplateRenderer
	ThemePartials map[string]string

	ControlID   string
	DescribedBy string
	Value       string
	Selected    []string
	Invalid     bool
	Valid       bool
}

// Script is a page script a widget needs. Src names an embedded asset; Inline
// is emitted as is.
type Script struct {
	Src    string
	Inline string
	Defer  bool
}

// Descriptor is a registered widget.
type Descriptor struct {
	Name     string
	Renderer Renderer
	Scripts  []Script
}

// Registry maps widget names used by form definitions to their renderers.
type Registry struct {
	mu      sync.RWMutex
	widgets map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{widgets: make(map[string]Descriptor)}
}

// Register adds or replaces a widget. Names are case-insensitive.
func (r *Registry) Register(name string, descriptor Descriptor) error {
	key := widgetKey(name)
	switch {
	case key == "":
		return fmt.Errorf("components: widget name is required")
	case descriptor.Renderer == nil:
		return fmt.Errorf("components: widget %q has no renderer", key)
	}
	descriptor.Name = key
	descriptor.Scripts = slices.Clone(descriptor.Scripts)

	r.mu.Lock()
	r.widgets[key] = descriptor
	r.mu.Unlock()
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, descriptor Descriptor) {
	if err := r.Register(name, descriptor); err != nil {
		panic(err)
	}
}

// Descriptor looks a widget up by name.
func (r *Registry) Descriptor(name string) (Descriptor, error) {
	r.mu.RLock()
	descriptor, ok := r.widgets[widgetKey(name)]
	r.mu.RUnlock()
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownWidget, name)
	}
	descriptor.Scripts = slices.Clone(descriptor.Scripts)
	return descriptor, nil
}

// Names lists the registered widgets in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.widgets))
}

// Scripts returns the scripts the named widgets need, each once, in first-use
// order. Unknown names are skipped.
func (r *Registry) Scripts(names []string) []Script {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Script
	for _, name := range names {
		for _, script := range r.widgets[widgetKey(name)].Scripts {
			if !slices.Contains(out, script) {
				out = append(out, script)
			}
		}
	}
	return out
}

func widgetKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
