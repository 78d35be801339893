package definitions

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-grantforms/pkg/model"
)

type documentFile struct {
	Schemes []model.Scheme     `json:"schemes" yaml:"schemes"`
	Forms   []model.FormModel  `json:"forms" yaml:"forms"`
	Results []model.ResultPage `json:"results" yaml:"results"`
}

// LoadFS walks the provided filesystem, parses every JSON/YAML document and
// validates the combined definitions. A nil filesystem yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	return Load(fsys)
}

// Load merges the definitions of each layer in order. Entries in later layers
// replace earlier entries with the same id, so a directory on disk can override
// the embedded set. Duplicate ids inside a single layer are rejected.
func Load(layers ...fs.FS) (*Store, error) {
	store := newStore()
	for _, fsys := range layers {
		if fsys == nil {
			continue
		}
		layer, err := loadLayer(fsys)
		if err != nil {
			return nil, err
		}
		store.merge(layer)
	}
	if err := store.validate(); err != nil {
		return nil, err
	}
	return store, nil
}

// Builtin loads the embedded definitions.
func Builtin() (*Store, error) {
	return LoadFS(EmbeddedFS())
}

func loadLayer(fsys fs.FS) (*Store, error) {
	layer := newStore()
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definitions: read %s: %w", path, err)
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for _, scheme := range doc.Schemes {
			id := strings.TrimSpace(scheme.ID)
			if id == "" {
				return fmt.Errorf("definitions: file %s defines a scheme without id", path)
			}
			if _, exists := layer.schemes[id]; exists {
				return fmt.Errorf("definitions: duplicate scheme %q (file %s)", id, path)
			}
			scheme.ID = id
			layer.schemes[id] = scheme
		}
		for _, form := range doc.Forms {
			id := strings.TrimSpace(form.ID)
			if id == "" {
				return fmt.Errorf("definitions: file %s defines a form without id", path)
			}
			if _, exists := layer.forms[id]; exists {
				return fmt.Errorf("definitions: duplicate form %q (file %s)", id, path)
			}
			form.ID = id
			layer.forms[id] = normaliseForm(form, path)
		}
		for _, result := range doc.Results {
			id := strings.TrimSpace(result.ID)
			if id == "" {
				return fmt.Errorf("definitions: file %s defines a result page without id", path)
			}
			if _, exists := layer.results[id]; exists {
				return fmt.Errorf("definitions: duplicate result %q (file %s)", id, path)
			}
			result.ID = id
			layer.results[id] = result
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return layer, nil
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("definitions: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("definitions: parse %s: %w", source, err)
		}
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("definitions: parse %s: %w", source, err)
	}
	return doc, nil
}

func normaliseForm(form model.FormModel, source string) model.FormModel {
	if form.Metadata == nil {
		form.Metadata = map[string]string{}
	}
	form.Metadata["source"] = source
	if strings.TrimSpace(form.SubmitLabel) == "" {
		form.SubmitLabel = "Continue"
	}
	if strings.TrimSpace(form.Consent.Name) == "" {
		form.Consent.Name = model.DefaultConsentName
	}
	if strings.TrimSpace(form.Consent.Label) == "" {
		form.Consent.Label = "I confirm the information provided is accurate and I accept the terms and conditions"
	}

	fields := make([]model.Field, len(form.Fields))
	for i, field := range form.Fields {
		field.Name = strings.TrimSpace(field.Name)
		if strings.TrimSpace(field.Label) == "" {
			field.Label = model.DefaultLabel(field.Name)
		}
		if field.Type == "" {
			field.Type = model.FieldTypeString
		}
		if strings.TrimSpace(field.Widget) == "" {
			field.Widget = defaultWidget(field)
		}
		fields[i] = field
	}
	form.Fields = fields
	return form
}

func defaultWidget(field model.Field) string {
	switch {
	case field.Type == model.FieldTypeSet:
		return model.WidgetCheckboxes
	case field.Type == model.FieldTypeNumber:
		return model.WidgetNumber
	case len(field.Options) > 0 && len(field.Options) <= 3:
		return model.WidgetRadio
	case len(field.Options) > 0:
		return model.WidgetSelect
	default:
		return model.WidgetInput
	}
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
