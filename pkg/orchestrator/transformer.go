package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-grantforms/pkg/model"
)

// Transformer mutates a FormModel before decorators run. Implementations can
// reword labels, inject metadata or perform arbitrary rewrites; they must not
// rename fields since names double as storage keys.
type Transformer interface {
	Transform(ctx context.Context, form *model.FormModel) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *model.FormModel) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *model.FormModel) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// PresetTransformer applies copy overrides loaded from a YAML (or JSON)
// document keyed by form id:
//
//	forms:
//	  ppa-check:
//	    title: Check your home
//	    consent: {label: I agree}
//	    fields:
//	      epcRating:
//	        label: EPC band
//	        options: {unknown: Not sure}
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Forms map[string]formPatch `yaml:"forms"`
}

type formPatch struct {
	Title       string                `yaml:"title"`
	Summary     string                `yaml:"summary"`
	SubmitLabel string                `yaml:"submitLabel"`
	Metadata    map[string]string     `yaml:"metadata"`
	Consent     consentPatch          `yaml:"consent"`
	Fields      map[string]fieldPatch `yaml:"fields"`
}

type consentPatch struct {
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

type fieldPatch struct {
	Label       string            `yaml:"label"`
	Description string            `yaml:"description"`
	Placeholder string            `yaml:"placeholder"`
	Metadata    map[string]string `yaml:"metadata"`
	UIHints     map[string]string `yaml:"uiHints"`
	Options     map[string]string `yaml:"options"`
}

// NewPresetTransformer constructs a transformer from raw document bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the patch registered for form.ID, if any.
func (t *PresetTransformer) Transform(ctx context.Context, form *model.FormModel) error {
	if form == nil {
		return errors.New("preset transformer: form model is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	patch, ok := t.document.Forms[form.ID]
	if !ok {
		return nil
	}

	setIfPresent(&form.Title, patch.Title)
	setIfPresent(&form.Summary, patch.Summary)
	setIfPresent(&form.SubmitLabel, patch.SubmitLabel)
	setIfPresent(&form.Consent.Label, patch.Consent.Label)
	setIfPresent(&form.Consent.Description, patch.Consent.Description)
	form.Metadata = mergeStringMap(form.Metadata, patch.Metadata)

	for name, fp := range patch.Fields {
		field := findField(form.Fields, name)
		if field == nil {
			return fmt.Errorf("preset transformer: %s: field %q not found", form.ID, name)
		}
		if err := applyFieldPatch(field, fp); err != nil {
			return fmt.Errorf("preset transformer: %s: %w", form.ID, err)
		}
	}
	return nil
}

func applyFieldPatch(field *model.Field, patch fieldPatch) error {
	setIfPresent(&field.Label, patch.Label)
	setIfPresent(&field.Description, patch.Description)
	setIfPresent(&field.Placeholder, patch.Placeholder)
	field.Metadata = mergeStringMap(field.Metadata, patch.Metadata)
	field.UIHints = mergeStringMap(field.UIHints, patch.UIHints)

	for value, label := range patch.Options {
		found := false
		for idx := range field.Options {
			if field.Options[idx].Value == value {
				field.Options[idx].Label = label
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("field %q has no option %q", field.Name, value)
		}
	}
	return nil
}

func setIfPresent(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

func findField(fields []model.Field, name string) *model.Field {
	for idx := range fields {
		if fields[idx].Name == name {
			return &fields[idx]
		}
	}
	return nil
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
