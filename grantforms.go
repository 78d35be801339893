// Package grantforms re-exports the pieces most callers need to render the
// energy grant forms without wiring each package by hand.
package grantforms

import (
	"context"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/orchestrator"
	"github.com/goliatone/go-grantforms/pkg/render"
)

// RenderOptions describes per-request values, inline errors and validity a
// renderer can use to prefill a form.
type RenderOptions = render.RenderOptions

// Request describes a single render.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML renders the named form with the named renderer. It is the
// simplest entry point for callers that just want HTML output.
func GenerateHTML(ctx context.Context, formID, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		FormID:   formID,
		Renderer: rendererName,
	})
}

// LoadDefinitions layers definition directories over the built-in schemes.
func LoadDefinitions(layers ...fs.FS) (*definitions.Store, error) {
	return definitions.Load(append([]fs.FS{definitions.EmbeddedFS()}, layers...)...)
}

// WithDefinitions renders from defs instead of the built-in set.
func WithDefinitions(defs *definitions.Store) orchestrator.Option {
	return orchestrator.WithDefinitions(defs)
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithThemeFallbacks forwards fallback partials used when deriving renderer
// configuration from a theme selection.
func WithThemeFallbacks(fallbacks map[string]string) orchestrator.Option {
	return orchestrator.WithThemeFallbacks(fallbacks)
}
