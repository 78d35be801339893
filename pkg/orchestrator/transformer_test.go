package orchestrator_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/orchestrator"
	"github.com/goliatone/go-grantforms/pkg/render"
)

func TestOrchestrator_AppliesTransformer(t *testing.T) {
	renderer := &stubRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	transformCalled := false
	transformer := orchestrator.TransformerFunc(func(ctx context.Context, form *model.FormModel) error {
		transformCalled = true
		form.Metadata = map[string]string{"patched": "true"}
		return nil
	})

	orch := orchestrator.New(
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(renderer.Name()),
		orchestrator.WithTransformer(transformer),
	)

	if _, err := orch.Generate(context.Background(), orchestrator.Request{FormID: "amw-check"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !transformCalled {
		t.Fatalf("expected transformer to be invoked")
	}
	if renderer.last.Metadata["patched"] != "true" {
		t.Fatalf("transformer mutation missing: %#v", renderer.last.Metadata)
	}
}

func TestPresetTransformerFromFS(t *testing.T) {
	transformer, err := orchestrator.NewPresetTransformerFromFS(os.DirFS("testdata"), "presets.yaml")
	if err != nil {
		t.Fatalf("new preset transformer: %v", err)
	}
	orch := orchestrator.New(orchestrator.WithTransformer(transformer))

	form, err := orch.Form(context.Background(), "ppa-check")
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if form.Title != "Check your home" || form.Metadata["campaign"] != "spring" {
		t.Fatalf("form patch missing: %q %#v", form.Title, form.Metadata)
	}
	if form.Consent.Label != "I agree to be contacted about the scheme" {
		t.Fatalf("consent patch missing: %q", form.Consent.Label)
	}
	field, _ := form.Field("epcRating")
	if field.Label != "EPC band" {
		t.Fatalf("field label not updated: %#v", field)
	}
	for _, option := range field.Options {
		if option.Value == "unknown" && option.Label != "Not sure" {
			t.Fatalf("option label not updated: %#v", option)
		}
	}
	area, _ := form.Field("floorArea")
	if area.UIHints["suffix"] != "sq m" {
		t.Fatalf("ui hint missing: %#v", area.UIHints)
	}

	pristine, err := orch.Definitions().Form("ppa-check")
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	if pristine.Title == "Check your home" {
		t.Fatalf("preset leaked into the shared definition")
	}
	if original, _ := pristine.Field("epcRating"); original.Label == "EPC band" {
		t.Fatalf("field preset leaked into the shared definition")
	}
}

func TestPresetTransformerRejectsUnknownField(t *testing.T) {
	transformer, err := orchestrator.NewPresetTransformer([]byte("forms:\n  amw-check:\n    fields:\n      shoeSize: {label: Shoe}\n"))
	if err != nil {
		t.Fatalf("new preset transformer: %v", err)
	}
	orch := orchestrator.New(orchestrator.WithTransformer(transformer))
	if _, err := orch.Form(context.Background(), "amw-check"); err == nil || !strings.Contains(err.Error(), "shoeSize") {
		t.Fatalf("expected unknown field error, got %v", err)
	}

	if _, err := orchestrator.NewPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected empty document error")
	}
}

func TestOrchestrator_TransformerErrorAborts(t *testing.T) {
	renderer := &stubRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	transformer := orchestrator.TransformerFunc(func(context.Context, *model.FormModel) error {
		return fmt.Errorf("boom")
	})

	orch := orchestrator.New(
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(renderer.Name()),
		orchestrator.WithTransformer(transformer),
	)

	_, err := orch.Generate(context.Background(), orchestrator.Request{FormID: "amw-check"})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected transformer error, got %v", err)
	}
}
