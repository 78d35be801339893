package vanilla

import (
	"bytes"
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/render"
	"github.com/goliatone/go-grantforms/pkg/render/template"
	"github.com/goliatone/go-grantforms/pkg/renderers/vanilla/components"
)

// componentRenderer renders the fields of a single page and remembers which
// components were used so their assets can be emitted once.
type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	overrides map[string]string
	partials  map[string]string

	used map[string]struct{}
}

func newComponentRenderer(templates template.TemplateRenderer, registry *components.Registry, overrides, partials map[string]string) *componentRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &componentRenderer{
		templates: templates,
		registry:  registry,
		overrides: overrides,
		partials:  partials,
		used:      make(map[string]struct{}),
	}
}

func (r *componentRenderer) render(field model.Field, opts render.RenderOptions) (string, error) {
	widget := strings.TrimSpace(r.overrides[field.Name])
	if widget == "" {
		widget = field.Widget
	}
	if widget == "" {
		widget = components.NameInput
	}

	descriptor, err := r.registry.Descriptor(widget)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", field.Name, err)
	}

	state := fieldStateFor(field, opts)
	data := components.ComponentData{
		Template:      r.templates,
		ThemePartials: r.partials,
		ControlID:     idsFor(field.Name).control,
		DescribedBy:   state.describedBy(field),
		Value:         state.value,
		Selected:      state.selected,
		Invalid:       state.message != "",
		Valid:         state.valid,
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, field, data); err != nil {
		return "", fmt.Errorf("render component %q for field %q: %w", widget, field.Name, err)
	}
	r.used[descriptor.Name] = struct{}{}

	return buildFieldMarkup(field, widget, control.String(), state), nil
}

func (r *componentRenderer) scripts() []components.Script {
	if len(r.used) == 0 {
		return nil
	}
	return r.registry.Scripts(slices.Sorted(maps.Keys(r.used)))
}

type fieldState struct {
	value    string
	selected []string
	message  string
	valid    bool
	help     string
	warning  string
}

func fieldStateFor(field model.Field, opts render.RenderOptions) fieldState {
	state := fieldState{
		message: strings.TrimSpace(opts.Errors[field.Name]),
		help:    sanitizeHelp(field.Description),
	}
	if field.Type == model.FieldTypeSet {
		state.selected = opts.ValueSet(field.Name)
		state.valid = state.message == "" && opts.Validity[field.Name] && len(state.selected) > 0
	} else {
		state.value = opts.ValueString(field.Name)
		state.valid = state.message == "" && opts.Validity[field.Name] && strings.TrimSpace(state.value) != ""
	}
	if trigger := field.Metadata["warnWhen"]; trigger != "" && trigger == state.value {
		state.warning = strings.TrimSpace(field.Metadata["warning"])
	}
	return state
}

func (s fieldState) describedBy(field model.Field) string {
	ids := idsFor(field.Name)
	refs := make([]string, 0, 3)
	if s.help != "" {
		refs = append(refs, ids.help)
	}
	if s.warning != "" {
		refs = append(refs, ids.warning)
	}
	return strings.Join(append(refs, ids.error), " ")
}

func buildFieldMarkup(field model.Field, widget, control string, state fieldState) string {
	ids := idsFor(field.Name)
	var builder strings.Builder
	builder.Grow(len(control) + 384)

	builder.WriteString(`      <div class="`)
	builder.WriteString(string(ClassField))
	builder.WriteString(` gf-field--`)
	builder.WriteString(html.EscapeString(widget))
	switch {
	case state.message != "":
		builder.WriteString(" " + string(ClassInvalid))
	case state.valid:
		builder.WriteString(" " + string(ClassValidity))
	}
	if cls := extraClasses(field.UIHints["cssClass"]); cls != "" {
		builder.WriteByte(' ')
		builder.WriteString(html.EscapeString(cls))
	}
	builder.WriteString(`" data-gf-wrapper="`)
	builder.WriteString(html.EscapeString(field.Name))
	builder.WriteString(`" data-component="`)
	builder.WriteString(html.EscapeString(widget))
	builder.WriteString("\">\n")

	if label := strings.TrimSpace(field.Label); label != "" {
		if !groupWidget(widget) {
			fmt.Fprintf(&builder, "        <label for=\"%s\" id=\"%s\" class=\"%s\">%s</label>\n",
				ids.control, ids.label, ClassLabel, html.EscapeString(label))
		} else {
			fmt.Fprintf(&builder, "        <span id=\"%s\" class=\"%s\">%s</span>\n",
				ids.label, ClassLabel, html.EscapeString(label))
		}
	}

	for _, line := range strings.Split(control, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		builder.WriteString("        ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	if state.help != "" {
		fmt.Fprintf(&builder, "        <small id=\"%s\" class=\"%s\">%s</small>\n", ids.help, ClassHelp, state.help)
	}
	if state.warning != "" {
		fmt.Fprintf(&builder, "        <p id=\"%s\" class=\"%s\" role=\"note\">%s</p>\n", ids.warning, ClassWarning, html.EscapeString(state.warning))
	}

	fmt.Fprintf(&builder, "        <p id=\"%s\" class=\"%s\" data-gf-error=\"%s\" role=\"alert\"",
		ids.error, ClassError, html.EscapeString(field.Name))
	if state.message == "" {
		builder.WriteString(" hidden></p>\n")
	} else {
		builder.WriteString(">")
		builder.WriteString(html.EscapeString(state.message))
		builder.WriteString("</p>\n")
	}

	builder.WriteString("      </div>\n")
	return builder.String()
}
