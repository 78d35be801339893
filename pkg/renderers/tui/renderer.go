package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/flow"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/render"
	"github.com/goliatone/go-grantforms/pkg/validation"
)

// Name is the registry identifier of the terminal renderer.
const Name = "tui"

const consentReminder = "Please accept the terms and conditions to continue"

// Renderer implements render.Renderer for terminal sessions. Every field is
// prompted in declaration order and re-asked until its validators pass; the
// consent flag is asked last and must be accepted.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	prefixes     Prefixes
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		prefixes:     Prefixes{Error: "✗ ", Info: "! "},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	format, err := ParseOutputFormat(string(r.outputFormat))
	if err != nil {
		return nil, err
	}
	r.outputFormat = format
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every field of form and serializes the collected values.
// opts.Values seeds the prompt defaults and opts.Errors is shown before the
// matching field is asked.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sink := newMemorySink(form, opts.Values)
	if form.Title != "" {
		if err := r.driver.Info(ctx, r.prefixes.Title+form.Title); err != nil {
			return nil, err
		}
	}
	if err := r.promptFields(ctx, form, form.Fields, sink, opts.Errors); err != nil {
		return nil, err
	}
	if err := r.promptConsent(ctx, form, sink); err != nil {
		return nil, err
	}
	return r.serialize(form, sink.values)
}

func (r *Renderer) promptFields(ctx context.Context, form model.FormModel, fields []model.Field, sink valueSink, pending map[string]string) error {
	for _, field := range fields {
		if message := pending[field.Name]; message != "" {
			if err := r.driver.Info(ctx, r.prefixes.Error+message); err != nil {
				return err
			}
		}
		if err := r.promptField(ctx, field, sink); err != nil {
			return fmt.Errorf("tui: %s.%s: %w", form.ID, field.Name, err)
		}
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, field model.Field, sink valueSink) error {
	for {
		value, err := r.ask(ctx, field, sink.value(field.Name))
		if err != nil {
			return err
		}
		result, err := sink.set(ctx, field, value)
		if err != nil {
			return err
		}
		if result.Valid {
			return r.warn(ctx, field, value)
		}
		if err := r.driver.Info(ctx, r.prefixes.Error+result.Message); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptConsent(ctx context.Context, form model.FormModel, sink valueSink) error {
	label := form.Consent.Label
	if strings.TrimSpace(label) == "" {
		label = model.DefaultLabel(form.ConsentName())
	}
	for {
		accepted, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: label,
			Help:    form.Consent.Description,
			Default: validation.AsBool(sink.value(form.ConsentName())),
		})
		if err != nil {
			return err
		}
		if err := sink.consent(ctx, accepted); err != nil {
			return err
		}
		if accepted {
			return nil
		}
		if err := r.driver.Info(ctx, r.prefixes.Error+consentReminder); err != nil {
			return err
		}
	}
}

// ask issues the prompt matching the field shape: multi-select for sets,
// select for enumerated choices, confirm for flags and free input otherwise.
func (r *Renderer) ask(ctx context.Context, field model.Field, current any) (any, error) {
	label := displayLabel(field)
	help := displayHelp(field)

	switch {
	case field.Type == model.FieldTypeSet:
		values := field.OptionValues()
		var defaults []int
		for _, selected := range validation.AsSet(current) {
			if idx := slices.Index(values, selected); idx >= 0 {
				defaults = append(defaults, idx)
			}
		}
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  optionLabels(field),
			Defaults: defaults,
			Help:     help,
		})
		if err != nil {
			return nil, err
		}
		picked := pick(values, indices)
		if picked == nil {
			picked = []string{}
		}
		return picked, nil

	case len(field.Options) > 0:
		values := field.OptionValues()
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      optionLabels(field),
			DefaultIndex: slices.Index(values, validation.AsString(current)),
			Help:         help,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(values) {
			return "", nil
		}
		return values[idx], nil

	case field.Type == model.FieldTypeBoolean:
		return r.driver.Confirm(ctx, ConfirmConfig{
			Message: label,
			Help:    help,
			Default: validation.AsBool(current),
		})

	default:
		if suffix := field.UIHints["suffix"]; suffix != "" {
			label = fmt.Sprintf("%s (%s)", label, suffix)
		}
		return r.driver.Input(ctx, InputConfig{
			Message: label,
			Help:    help,
			Default: validation.AsString(current),
		})
	}
}

func (r *Renderer) warn(ctx context.Context, field model.Field, value any) error {
	trigger := field.Metadata["warnWhen"]
	warning := field.Metadata["warning"]
	if trigger == "" || warning == "" || validation.AsString(value) != trigger {
		return nil
	}
	return r.driver.Info(ctx, r.prefixes.Info+warning)
}

func (r *Renderer) serialize(form model.FormModel, values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(encodeForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(form, values)), nil
	default:
		return json.Marshal(values)
	}
}

func displayLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return model.DefaultLabel(field.Name)
}

func displayHelp(field model.Field) string {
	if h := field.Metadata["cli.help"]; h != "" {
		return h
	}
	return field.Description
}

func optionLabels(field model.Field) []string {
	out := make([]string, 0, len(field.Options))
	for _, option := range field.Options {
		out = append(out, option.Display())
	}
	return out
}

func encodeForm(values map[string]any) string {
	out := url.Values{}
	for key, value := range values {
		if set, ok := value.([]string); ok {
			for _, item := range set {
				out.Add(key, item)
			}
			continue
		}
		out.Set(key, validation.AsString(value))
	}
	return out.Encode()
}

func prettyPrint(form model.FormModel, values map[string]any) string {
	var b strings.Builder
	for _, field := range form.Fields {
		fmt.Fprintf(&b, "%s: %s\n", displayLabel(field), flow.DisplayValue(field, values[field.Name]))
	}
	consent := "no"
	if validation.AsBool(values[form.ConsentName()]) {
		consent = "yes"
	}
	fmt.Fprintf(&b, "Terms accepted: %s\n", consent)
	return b.String()
}
