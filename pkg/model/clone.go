package model

import (
	"maps"
	"slices"
)

// Clone returns a deep copy so decorators can mutate the result without
// touching the shared definition.
func (f FormModel) Clone() FormModel {
	out := f
	out.Metadata = maps.Clone(f.Metadata)
	if f.Sections != nil {
		out.Sections = make([]Section, len(f.Sections))
		for i, section := range f.Sections {
			section.Fields = slices.Clone(section.Fields)
			out.Sections[i] = section
		}
	}
	if f.Fields != nil {
		out.Fields = make([]Field, len(f.Fields))
		for i, field := range f.Fields {
			out.Fields[i] = field.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	out.Options = slices.Clone(f.Options)
	out.Metadata = maps.Clone(f.Metadata)
	out.UIHints = maps.Clone(f.UIHints)
	if f.Validations != nil {
		out.Validations = make([]ValidationRule, len(f.Validations))
		for i, rule := range f.Validations {
			rule.Params = maps.Clone(rule.Params)
			out.Validations[i] = rule
		}
	}
	return out
}
