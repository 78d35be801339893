package grantforms

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

func TestAssetsFSContainsStylesheetAndScript(t *testing.T) {
	fsys := AssetsFS()
	for _, name := range []string{"grantforms.css", "grantforms-fields.js"} {
		if _, err := fs.ReadFile(fsys, name); err != nil {
			t.Fatalf("expected %s to be readable: %v", name, err)
		}
	}
	if _, err := fs.ReadFile(EmbeddedTemplates(), "form.html"); err != nil {
		t.Fatalf("expected form template: %v", err)
	}
}

func TestGenerateHTML(t *testing.T) {
	html, err := GenerateHTML(context.Background(), "ppa-mandatory", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(html), `action="/mandatory_form/ppa-form"`) {
		t.Fatalf("expected form posting to its route")
	}
	if _, err := GenerateHTML(context.Background(), "nope", ""); err == nil {
		t.Fatalf("expected unknown form error")
	}
}

func TestLoadDefinitionsLayersOverBuiltin(t *testing.T) {
	overlay := fstest.MapFS{
		"amw.yaml": {Data: []byte(`schemes:
  - id: amw
    name: Renewable PPA for business
    mandatory: amw-mandatory
    eligibility: amw-check
    result: amw-result
`)},
	}
	defs, err := LoadDefinitions(overlay)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	scheme, err := defs.Scheme("amw")
	if err != nil {
		t.Fatalf("scheme: %v", err)
	}
	if scheme.Name != "Renewable PPA for business" {
		t.Fatalf("expected overlay name, got %q", scheme.Name)
	}

	html, err := GenerateHTML(context.Background(), "amw-check", "", WithDefinitions(defs))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(html), "/eligibility_checks/amw-check") {
		t.Fatalf("expected amw-check route in output")
	}
}
