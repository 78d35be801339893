package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/orchestrator"
	"github.com/goliatone/go-grantforms/pkg/render"
	"github.com/goliatone/go-grantforms/pkg/theming"
)

type stubRenderer struct {
	last    model.FormModel
	options render.RenderOptions
	home    *render.HomeView
	result  *render.ResultView
}

func (s *stubRenderer) Name() string        { return "stub" }
func (s *stubRenderer) ContentType() string { return "text/plain" }

func (s *stubRenderer) Render(_ context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	s.last = form
	s.options = opts
	return []byte("ok"), nil
}

func (s *stubRenderer) RenderHome(_ context.Context, view render.HomeView, opts render.RenderOptions) ([]byte, error) {
	s.home = &view
	s.options = opts
	return []byte("home"), nil
}

func (s *stubRenderer) RenderResult(_ context.Context, view render.ResultView, opts render.RenderOptions) ([]byte, error) {
	s.result = &view
	s.options = opts
	return []byte("result"), nil
}

type formOnlyRenderer struct{}

func (formOnlyRenderer) Name() string        { return "form-only" }
func (formOnlyRenderer) ContentType() string { return "text/plain" }
func (formOnlyRenderer) Render(context.Context, model.FormModel, render.RenderOptions) ([]byte, error) {
	return []byte("form"), nil
}

func newStubOrchestrator(t *testing.T, opts ...orchestrator.Option) (*orchestrator.Orchestrator, *stubRenderer) {
	t.Helper()
	renderer := &stubRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)
	registry.MustRegister(formOnlyRenderer{})
	base := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(renderer.Name()),
	}
	return orchestrator.New(append(base, opts...)...), renderer
}

func TestOrchestrator_GenerateResolvesDefinition(t *testing.T) {
	orch, renderer := newStubOrchestrator(t)
	values := map[string]any{"companyName": "Acme"}

	output, err := orch.Generate(context.Background(), orchestrator.Request{
		FormID:        "beas-mandatory",
		RenderOptions: render.RenderOptions{Values: values},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(output) != "ok" {
		t.Fatalf("unexpected renderer output: %s", output)
	}
	if renderer.last.ID != "beas-mandatory" || renderer.last.Route != "/mandatory_form/beas-form" {
		t.Fatalf("unexpected form passed to renderer: %+v", renderer.last)
	}
	if renderer.options.Values["companyName"] != "Acme" {
		t.Fatalf("render options not forwarded: %+v", renderer.options)
	}
	if renderer.options.Theme != nil {
		t.Fatalf("no selector configured, theme should stay nil")
	}
}

func TestOrchestrator_Errors(t *testing.T) {
	orch, _ := newStubOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.Generate(ctx, orchestrator.Request{}); err == nil {
		t.Fatalf("expected error for missing form id")
	}
	if _, err := orch.Generate(ctx, orchestrator.Request{FormID: "nope"}); !errors.Is(err, definitions.ErrUnknownForm) {
		t.Fatalf("expected ErrUnknownForm, got %v", err)
	}
	if _, err := orch.Generate(ctx, orchestrator.Request{FormID: "amw-check", Renderer: "missing"}); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}
	if _, err := orch.GenerateHome(ctx, orchestrator.Request{Renderer: "form-only"}, render.HomeView{}); !errors.Is(err, render.ErrNoPages) {
		t.Fatalf("expected page renderer error, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := orch.Generate(cancelled, orchestrator.Request{FormID: "amw-check"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOrchestrator_AppliesDecoratorsToACopy(t *testing.T) {
	decorator := model.DecoratorFunc(func(form *model.FormModel) error {
		if form.Metadata == nil {
			form.Metadata = make(map[string]string)
		}
		form.Metadata["decorated"] = "true"
		form.Fields[0].Label = "Changed"
		return nil
	})
	orch, renderer := newStubOrchestrator(t, orchestrator.WithDecorators(decorator))

	if _, err := orch.Generate(context.Background(), orchestrator.Request{FormID: "amw-check"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if renderer.last.Metadata["decorated"] != "true" || renderer.last.Fields[0].Label != "Changed" {
		t.Fatalf("decorator not applied: %+v", renderer.last)
	}

	pristine, err := orch.Definitions().Form("amw-check")
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	if pristine.Metadata["decorated"] == "true" || pristine.Fields[0].Label == "Changed" {
		t.Fatalf("decorator mutated the shared definition")
	}
}

func TestOrchestrator_PassesThemeConfigToRenderer(t *testing.T) {
	selector, err := theming.NewSelector("", theming.VariantDark)
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	orch, renderer := newStubOrchestrator(t, orchestrator.WithThemeSelector(selector))

	if _, err := orch.Generate(context.Background(), orchestrator.Request{FormID: "amw-check"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	cfg := renderer.options.Theme
	if cfg == nil {
		t.Fatalf("expected theme config passed to renderer")
	}
	if cfg.Theme != theming.DefaultTheme || cfg.Variant != theming.VariantDark {
		t.Fatalf("unexpected selection %s/%s", cfg.Theme, cfg.Variant)
	}
	if cfg.CSSVars["--color-brand"] != "#4ea1f3" {
		t.Fatalf("variant tokens not applied: %v", cfg.CSSVars)
	}
	if cfg.Partials["widgets.radio"] != "widgets/radio" {
		t.Fatalf("fallback partials missing: %v", cfg.Partials)
	}

	_, err = orch.Generate(context.Background(), orchestrator.Request{FormID: "amw-check", ThemeVariant: "sepia", ThemeName: theming.DefaultTheme})
	if !errors.Is(err, theming.ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestOrchestrator_GeneratePages(t *testing.T) {
	orch, renderer := newStubOrchestrator(t)
	ctx := context.Background()

	out, err := orch.GenerateHome(ctx, orchestrator.Request{}, render.HomeView{Title: "Grants"})
	if err != nil || string(out) != "home" {
		t.Fatalf("home: %q %v", out, err)
	}
	if renderer.home == nil || renderer.home.Title != "Grants" {
		t.Fatalf("home view not forwarded")
	}

	view := render.ResultView{Page: model.ResultPage{ID: "amw-result"}, Complete: true}
	out, err = orch.GenerateResult(ctx, orchestrator.Request{}, view)
	if err != nil || string(out) != "result" {
		t.Fatalf("result: %q %v", out, err)
	}
	if renderer.result == nil || renderer.result.Page.ID != "amw-result" {
		t.Fatalf("result view not forwarded")
	}
}

func TestOrchestrator_DefaultsRenderHTML(t *testing.T) {
	orch := orchestrator.New()
	output, err := orch.Generate(context.Background(), orchestrator.Request{
		FormID: "amw-mandatory",
		RenderOptions: render.RenderOptions{
			Action: "/mandatory_form/amw-form",
			Errors: map[string]string{"companyName": "Company name is required"},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	html := string(output)
	for _, want := range []string{"<form", `action="/mandatory_form/amw-form"`, "Company name is required"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output", want)
		}
	}
}
