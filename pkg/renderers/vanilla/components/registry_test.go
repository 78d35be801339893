package components

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-grantforms/pkg/model"
)

func noopRenderer(*bytes.Buffer, model.Field, ComponentData) error { return nil }

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := New()
	if err := reg.Register("Radio ", Descriptor{Renderer: noopRenderer, Scripts: []Script{{Src: "a.js"}}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	desc, err := reg.Descriptor("radio")
	if err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	if desc.Name != "radio" {
		t.Fatalf("expected normalised name, got %q", desc.Name)
	}
	desc.Scripts[0].Src = "mutated.js"
	again, _ := reg.Descriptor("RADIO")
	if again.Scripts[0].Src != "a.js" {
		t.Fatalf("registry entry mutated through a lookup")
	}

	if _, err := reg.Descriptor("slider"); !errors.Is(err, ErrUnknownWidget) {
		t.Fatalf("expected ErrUnknownWidget, got %v", err)
	}
	if err := reg.Register("", Descriptor{Renderer: noopRenderer}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := reg.Register("select", Descriptor{}); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
}

func TestRegistryScriptsDeduplicates(t *testing.T) {
	reg := New()
	reg.MustRegister("input", Descriptor{Renderer: noopRenderer, Scripts: []Script{{Src: "shared.js"}}})
	reg.MustRegister("select", Descriptor{Renderer: noopRenderer, Scripts: []Script{{Src: "shared.js"}, {Src: "select.js"}}})

	got := reg.Scripts([]string{"input", "select", "missing"})
	if diff := cmp.Diff([]Script{{Src: "shared.js"}, {Src: "select.js"}}, got); diff != "" {
		t.Fatalf("scripts mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultRegistryCoversEveryWidget(t *testing.T) {
	reg := NewDefaultRegistry()
	want := []string{NameCheckboxes, NameInput, NameNumber, NameRadio, NameSelect}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Script{{Src: FieldScript, Defer: true}}, reg.Scripts(reg.Names())); diff != "" {
		t.Fatalf("scripts mismatch (-want +got):\n%s", diff)
	}
}

// nameEcho renders the resolved template name so tests can see which
// partial was chosen.
type nameEcho struct{}

func (nameEcho) Render(name string, _ any, _ ...io.Writer) (string, error) {
	return name, nil
}

func TestTemplateComponentRendererRequiresEngine(t *testing.T) {
	desc, _ := NewDefaultRegistry().Descriptor(NameInput)
	var buf bytes.Buffer
	if err := desc.Renderer(&buf, model.Field{Name: "postcode"}, ComponentData{}); err == nil {
		t.Fatalf("expected error without a template engine")
	}
}

func TestTemplateComponentRendererUsesThemePartial(t *testing.T) {
	desc, _ := NewDefaultRegistry().Descriptor(NameCheckboxes)
	var buf bytes.Buffer
	err := desc.Renderer(&buf, model.Field{Name: "benefits"}, ComponentData{
		Template:      nameEcho{},
		ThemePartials: map[string]string{"widgets.checkboxes": "custom/checkboxes"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "custom/checkboxes") {
		t.Fatalf("expected theme partial to be used, got %q", buf.String())
	}
}
