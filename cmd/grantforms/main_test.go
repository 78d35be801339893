package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateBuiltinDefinitions(t *testing.T) {
	out, err := run(t, "validate")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "ok: 3 schemes, 6 forms, 3 results") {
		t.Fatalf("unexpected summary %q", out)
	}
}

func TestValidateFormAnswers(t *testing.T) {
	out, err := run(t, "validate", "--form", "beas-mandatory",
		"--set", "companyName=A",
		"--set", "intervention=Solar",
	)
	if err == nil {
		t.Fatalf("expected incomplete answers to fail")
	}
	for _, want := range []string{
		"✗ companyName: Company name must be at least 2 characters",
		"✓ intervention",
		"✗ postcode: Postcode is required",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	if _, err := run(t, "validate", "--form", "beas-mandatory", "--set", "shoeSize=9"); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := run(t, "validate", "--form", "beas-mandatory", "--set", "novalue"); err == nil {
		t.Fatalf("expected malformed assignment error")
	}
}

func TestRenderWritesHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.html")
	if out, err := run(t, "render", "beas-mandatory", "--set", "companyName=A", "-o", path); err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	html := string(data)
	for _, want := range []string{`action="/mandatory_form/beas-form"`, "Company name must be at least 2 characters"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in rendered form", want)
		}
	}

	if _, err := run(t, "render", "nope"); err == nil {
		t.Fatalf("expected unknown form error")
	}
}

func TestOpenAPICommand(t *testing.T) {
	out, err := run(t, "openapi", "--server-url", "https://grants.example")
	if err != nil {
		t.Fatalf("openapi: %v\n%s", err, out)
	}
	var doc struct {
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "https://grants.example" {
		t.Fatalf("unexpected servers %+v", doc.Servers)
	}
	if _, ok := doc.Paths["/api/forms/amw-check/submit"]; !ok {
		t.Fatalf("expected submit path for amw-check")
	}
}

func TestDefinitionsDirOverlay(t *testing.T) {
	dir := t.TempDir()
	overlay := `forms:
  - id: beas-check
    scheme: beas
    kind: eligibility
    title: Premises check
    route: /eligibility_checks/beas-check
    next: /eligibility_results/beas-result
    storagePrefix: beas_
    consent:
      name: termsAccepted
      label: I agree
    fields:
      - name: premisesTenure
        type: string
        label: Tenure
        validations:
          - kind: required
            message: Tenure is required
`
	if err := os.WriteFile(filepath.Join(dir, "beas.yaml"), []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	out, err := run(t, "validate", "--definitions-dir", dir, "--form", "beas-check")
	if err == nil {
		t.Fatalf("expected empty tenure to fail")
	}
	if !strings.Contains(out, "✗ premisesTenure: Tenure is required") || strings.Contains(out, "employeeCount") {
		t.Fatalf("expected overlaid form only:\n%s", out)
	}

	if _, err := run(t, "validate", "--definitions-dir", filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected missing directory error")
	}
}

func TestUnknownStorageDriver(t *testing.T) {
	if _, err := run(t, "serve", "--storage.driver", "redis"); err == nil {
		t.Fatalf("expected config validation error")
	}
}
