package components

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/model"
)

const templatePrefix = "widgets/"

// NewDefaultRegistry returns a registry holding the built-in widgets. Each one
// is a pongo2 partial that a theme may replace through its "widgets.<name>"
// template key.
func NewDefaultRegistry() *Registry {
	registry := New()
	scripts := []Script{{Src: FieldScript, Defer: true}}

	for _, name := range []string{NameInput, NameNumber, NameSelect, NameRadio, NameCheckboxes} {
		registry.MustRegister(name, Descriptor{
			Renderer: templateComponentRenderer("widgets."+name, templatePrefix+name),
			Scripts:  scripts,
		})
	}
	return registry
}

func templateComponentRenderer(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, field model.Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}

		resolved := templateName
		if candidate := strings.TrimSpace(data.ThemePartials[partialKey]); candidate != "" {
			resolved = candidate
		}

		options := make([]map[string]any, 0, len(field.Options))
		for _, opt := range field.Options {
			options = append(options, map[string]any{
				"value": opt.Value,
				"label": opt.Display(),
			})
		}
		selected := data.Selected
		if selected == nil {
			selected = []string{}
		}

		payload := map[string]any{
			"field": map[string]any{
				"name":        field.Name,
				"label":       field.Label,
				"placeholder": field.Placeholder,
				"options":     options,
				"input_mode":  field.UIHints["inputMode"],
				"suffix":      field.UIHints["suffix"],
			},
			"control": map[string]any{
				"id":           data.ControlID,
				"described_by": data.DescribedBy,
				"value":        data.Value,
				"selected":     selected,
				"invalid":      data.Invalid,
				"valid":        data.Valid,
			},
		}
		rendered, err := data.Template.Render(resolved, payload)
		if err != nil {
			return fmt.Errorf("components: render %q: %w", resolved, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}
