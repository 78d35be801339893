package orchestrator

import (
	"context"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/render"
	"github.com/goliatone/go-grantforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-grantforms/pkg/theming"
)

const defaultRendererName = vanilla.Name

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithDefinitions injects the form definitions. Defaults to the built-in set.
func WithDefinitions(defs *definitions.Store) Option {
	return func(o *Orchestrator) {
		o.defs = defs
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformer registers a Transformer that mutates form models before the
// decorators run.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithDecorators registers decorators that run against every resolved form
// before rendering.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		if len(decorators) == 0 {
			return
		}
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithThemeSelector resolves theme and variant names ahead of rendering so
// renderers receive partials, tokens and asset URLs.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithThemeFallbacks overrides the partials used when a theme declares none.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = fallbacks
	}
}

// Orchestrator coordinates definitions, decorators and renderers. It applies
// defaults (built-in definitions, vanilla renderer) while remaining open to
// dependency injection.
type Orchestrator struct {
	defs            *definitions.Store
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	decorators      []model.Decorator
	themeSelector   theme.ThemeSelector
	themeFallbacks  map[string]string
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations; a failure
// there is reported by the first Generate call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes a single render.
type Request struct {
	// FormID selects the definition to render. Ignored by GenerateHome and
	// GenerateResult.
	FormID string

	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// RenderOptions carries values, inline errors, validity and hidden fields.
	RenderOptions render.RenderOptions

	// ThemeName and ThemeVariant select a theme when a selector is configured.
	// Empty values use the selector defaults.
	ThemeName    string
	ThemeVariant string
}

// Definitions exposes the definitions the orchestrator renders from.
func (o *Orchestrator) Definitions() *definitions.Store {
	return o.defs
}

// Form resolves a definition and applies the transformer and decorators. The
// returned model is a copy.
func (o *Orchestrator) Form(ctx context.Context, formID string) (model.FormModel, error) {
	if err := o.ready(ctx); err != nil {
		return model.FormModel{}, err
	}
	if formID == "" {
		return model.FormModel{}, errors.New("orchestrator: form id is required")
	}
	form, err := o.defs.Form(formID)
	if err != nil {
		return model.FormModel{}, err
	}
	form = form.Clone()
	if err := o.applyTransformer(ctx, &form); err != nil {
		return model.FormModel{}, err
	}
	if err := o.applyDecorators(&form); err != nil {
		return model.FormModel{}, err
	}
	return form, nil
}

// Generate renders the requested form.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	form, err := o.Form(ctx, req.FormID)
	if err != nil {
		return nil, err
	}
	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}
	opts, err := o.withTheme(req)
	if err != nil {
		return nil, err
	}
	output, err := renderer.Render(ctx, form, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// GenerateHome renders the landing page. The renderer must implement
// render.PageRenderer.
func (o *Orchestrator) GenerateHome(ctx context.Context, req Request, view render.HomeView) ([]byte, error) {
	pages, opts, err := o.pageRenderer(ctx, req)
	if err != nil {
		return nil, err
	}
	output, err := pages.RenderHome(ctx, view, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render home: %w", err)
	}
	return output, nil
}

// GenerateResult renders a result page summary.
func (o *Orchestrator) GenerateResult(ctx context.Context, req Request, view render.ResultView) ([]byte, error) {
	pages, opts, err := o.pageRenderer(ctx, req)
	if err != nil {
		return nil, err
	}
	output, err := pages.RenderResult(ctx, view, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render result: %w", err)
	}
	return output, nil
}

func (o *Orchestrator) pageRenderer(ctx context.Context, req Request) (render.PageRenderer, render.RenderOptions, error) {
	if err := o.ready(ctx); err != nil {
		return nil, render.RenderOptions{}, err
	}
	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, render.RenderOptions{}, err
	}
	pages, err := render.AsPages(renderer)
	if err != nil {
		return nil, render.RenderOptions{}, fmt.Errorf("orchestrator: %w", err)
	}
	opts, err := o.withTheme(req)
	if err != nil {
		return nil, render.RenderOptions{}, err
	}
	return pages, opts, nil
}

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.initialiseErr
}

func (o *Orchestrator) withTheme(req Request) (render.RenderOptions, error) {
	opts := req.RenderOptions
	if opts.Theme != nil || o.themeSelector == nil {
		return opts, nil
	}
	selection, err := o.themeSelector.Select(req.ThemeName, req.ThemeVariant)
	if err != nil {
		return opts, fmt.Errorf("orchestrator: select theme: %w", err)
	}
	fallbacks := o.themeFallbacks
	if fallbacks == nil {
		fallbacks = theming.DefaultFallbacks()
	}
	opts.Theme = theming.RendererConfig(selection, fallbacks)
	return opts, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDecorators(form *model.FormModel) error {
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(form); err != nil {
			return fmt.Errorf("orchestrator: decorate form: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, form *model.FormModel) error {
	if o.transformer == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, form); err != nil {
		return fmt.Errorf("orchestrator: transform form: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defs == nil {
		defs, err := definitions.Builtin()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: builtin definitions: %w", err)
			return
		}
		o.defs = defs
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		o.registry.MustRegister(renderer)
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
