package theming

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

var (
	// ErrUnknownTheme is returned when a selection names an unregistered theme.
	ErrUnknownTheme = errors.New("theming: unknown theme")
	// ErrUnknownVariant is returned when a theme has no such variant.
	ErrUnknownVariant = errors.New("theming: unknown variant")
)

// Selector resolves theme and variant names against a fixed set of manifests.
// It satisfies theme.ThemeSelector.
type Selector struct {
	manifests      map[string]*theme.Manifest
	provider       theme.ThemeProvider
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Selector)(nil)

// NewSelector registers manifests with a go-theme registry, which validates
// them, and records the defaults applied when Select receives empty names.
// With no manifests the built-in ones are used.
func NewSelector(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) (*Selector, error) {
	if len(manifests) == 0 {
		manifests = BuiltinManifests()
	}
	registry := theme.NewRegistry()
	s := &Selector{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if _, exists := s.manifests[manifest.Name]; exists {
			return nil, fmt.Errorf("theming: theme %q registered twice", manifest.Name)
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("theming: register %q: %w", manifest.Name, err)
		}
		s.manifests[manifest.Name] = manifest
	}
	s.provider = registry

	if s.defaultTheme == "" {
		s.defaultTheme = DefaultTheme
	}
	if _, err := s.Select(s.defaultTheme, s.defaultVariant); err != nil {
		return nil, err
	}
	return s, nil
}

// Select resolves name and variant. An empty name selects the default theme
// and its default variant.
func (s *Selector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	variant = strings.TrimSpace(variant)
	if name == "" {
		name = s.defaultTheme
		if variant == "" {
			variant = s.defaultVariant
		}
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %q has no %q", ErrUnknownVariant, name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// Provider exposes the underlying go-theme registry.
func (s *Selector) Provider() theme.ThemeProvider {
	return s.provider
}

// Themes lists registered theme names.
func (s *Selector) Themes() []string {
	out := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Variants lists the variants of a theme.
func (s *Selector) Variants(name string) []string {
	manifest, ok := s.manifests[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(manifest.Variants))
	for variant := range manifest.Variants {
		out = append(out, variant)
	}
	sort.Strings(out)
	return out
}
