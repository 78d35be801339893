package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/render"
	rendertemplate "github.com/goliatone/go-grantforms/pkg/render/template"
	"github.com/goliatone/go-grantforms/pkg/render/template/gotemplate"
	"github.com/goliatone/go-grantforms/pkg/renderers/vanilla/components"
)

// Name is the registry name of the HTML renderer.
const Name = "vanilla"

const consentMessage = "Please accept the terms and conditions to continue"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templatesDir     string
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	assetPrefix      string
	widgetOverrides  map[string]string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplatesDir loads templates from a directory on disk ahead of the
// embedded bundle.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templatesDir = strings.TrimSpace(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the default widget registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithAssetURLPrefix links the stylesheet and scripts from prefix (for
// example "/assets/") instead of inlining them.
func WithAssetURLPrefix(prefix string) Option {
	return func(cfg *config) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		cfg.assetPrefix = prefix
	}
}

// WithWidgetOverrides forces a component per field name.
func WithWidgetOverrides(overrides map[string]string) Option {
	return func(cfg *config) {
		if cfg.widgetOverrides == nil {
			cfg.widgetOverrides = make(map[string]string, len(overrides))
		}
		maps.Copy(cfg.widgetOverrides, overrides)
	}
}

// Renderer renders forms, the landing page and result pages as HTML.
type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	registry    *components.Registry
	assetPrefix string
	overrides   map[string]string
}

var _ render.PageRenderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engineOpts := []gotemplate.Option{gotemplate.WithFS(cfg.templateFS)}
		if cfg.templatesDir != "" {
			engineOpts = append(engineOpts, gotemplate.WithBaseDir(cfg.templatesDir))
		}
		engine, err := gotemplate.New(engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure templates: %w", err)
		}
		templates = engine
	}

	registry := cfg.registry
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}

	return &Renderer{
		templates:   templates,
		registry:    registry,
		assetPrefix: cfg.assetPrefix,
		overrides:   cfg.widgetOverrides,
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the page for a single form.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := newComponentRenderer(r.templates, r.registry, r.overrides, pageTheme{cfg: opts.Theme}.partials())
	sections, err := r.renderSections(form, fields, opts)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: %w", err)
	}

	action := opts.Action
	if action == "" {
		action = form.Route
	}
	submitLabel := form.SubmitLabel
	if submitLabel == "" {
		submitLabel = "Continue"
	}

	data := r.shell(form.Title, opts)
	data["form"] = map[string]any{
		"id":      form.ID,
		"title":   form.Title,
		"summary": form.Summary,
	}
	data["action"] = action
	data["api_base"] = opts.APIBase
	data["classes"] = chromeClasses()
	data["form_errors"] = render.MergeFormErrors(opts.FormErrors)
	data["hidden"] = hiddenList(opts.Hidden)
	data["sections"] = sections
	data["consent"] = map[string]any{
		"name":        form.ConsentName(),
		"label":       form.Consent.Label,
		"description": sanitizeHelp(form.Consent.Description),
		"checked":     opts.Consent,
		"missing":     opts.ConsentMissing,
		"message":     consentMessage,
	}
	data["back"] = form.Back
	data["can_submit"] = opts.CanSubmit
	data["submit_label"] = submitLabel

	if opts.APIBase != "" {
		scripts := fields.scripts()
		data["scripts"] = r.scripts(scripts)
	}

	return r.execute("form", data)
}

// RenderHome produces the landing page listing every scheme.
func (r *Renderer) RenderHome(ctx context.Context, view render.HomeView, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	schemes := make([]map[string]any, 0, len(view.Schemes))
	for _, card := range view.Schemes {
		schemes = append(schemes, map[string]any{
			"id":          card.ID,
			"name":        card.Name,
			"description": card.Description,
			"start_route": card.StartRoute,
			"icon":        sanitizeIcon(card.Icon),
		})
	}
	data := r.shell(view.Title, opts)
	data["title"] = view.Title
	data["schemes"] = schemes
	return r.execute("home", data)
}

// RenderResult produces a scheme's summary page.
func (r *Renderer) RenderResult(ctx context.Context, view render.ResultView, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sections := make([]map[string]any, 0, len(view.Sections))
	for _, section := range view.Sections {
		answers := make([]map[string]any, 0, len(section.Answers))
		for _, answer := range section.Answers {
			answers = append(answers, map[string]any{
				"name":  answer.Name,
				"label": answer.Label,
				"value": answer.Value,
				"valid": answer.Valid,
			})
		}
		sections = append(sections, map[string]any{
			"title":   section.Title,
			"route":   section.Route,
			"answers": answers,
		})
	}

	data := r.shell(view.Page.Title, opts)
	data["page"] = map[string]any{
		"title":   view.Page.Title,
		"summary": view.Page.Summary,
		"notes":   view.Page.Notes,
	}
	data["complete"] = view.Complete
	data["sections"] = sections
	data["reset_hidden"] = hiddenList(render.MergeHiddenFields(opts.Hidden, render.ResetAction()))
	return r.execute("result", data)
}

func (r *Renderer) renderSections(form model.FormModel, fields *componentRenderer, opts render.RenderOptions) ([]map[string]any, error) {
	placed := make(map[string]struct{}, len(form.Fields))
	out := make([]map[string]any, 0, len(form.Sections)+1)

	for _, section := range form.Sections {
		markup := make([]string, 0, len(section.Fields))
		for _, name := range section.Fields {
			field, ok := form.Field(name)
			if !ok {
				continue
			}
			html, err := fields.render(field, opts)
			if err != nil {
				return nil, err
			}
			placed[name] = struct{}{}
			markup = append(markup, html)
		}
		out = append(out, map[string]any{
			"id":          section.ID,
			"title":       section.Title,
			"description": section.Description,
			"fields":      markup,
		})
	}

	var rest []string
	for _, field := range form.Fields {
		if _, ok := placed[field.Name]; ok {
			continue
		}
		html, err := fields.render(field, opts)
		if err != nil {
			return nil, err
		}
		rest = append(rest, html)
	}
	if len(rest) > 0 {
		out = append(out, map[string]any{"fields": rest})
	}
	return out, nil
}

func (r *Renderer) shell(title string, opts render.RenderOptions) map[string]any {
	th := pageTheme{cfg: opts.Theme}
	var stylesheets []string
	inline := ""
	if r.assetPrefix != "" {
		stylesheets = append(stylesheets, r.assetPrefix+StylesheetName)
	} else {
		inline = readAsset(StylesheetName)
	}
	if href := th.assetURL(ThemeStylesheetKey); href != "" {
		stylesheets = append(stylesheets, href)
	}
	return map[string]any{
		"page_title":    title,
		"stylesheets":   stylesheets,
		"inline_styles": inline,
		"theme":         th.context(),
		"scripts":       []map[string]any{},
	}
}

func (r *Renderer) scripts(scripts []components.Script) []map[string]any {
	out := make([]map[string]any, 0, len(scripts))
	for _, script := range scripts {
		switch {
		case script.Inline != "":
			out = append(out, map[string]any{"inline": script.Inline})
		case r.assetPrefix != "":
			out = append(out, map[string]any{"src": r.assetPrefix + script.Src, "defer": script.Defer})
		default:
			if body := readAsset(script.Src); body != "" {
				out = append(out, map[string]any{"inline": body})
			}
		}
	}
	return out
}

func (r *Renderer) execute(name string, data map[string]any) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	out, err := r.templates.Render(name, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render %s: %w", name, err)
	}
	return []byte(out), nil
}

func hiddenList(hidden map[string]string) []map[string]any {
	fields := render.SortedHiddenFields(hidden)
	out := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		out = append(out, map[string]any{"name": field.Name, "value": field.Value})
	}
	return out
}
