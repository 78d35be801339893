package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ActionField carries the intent of a page post that is not a submission.
// ActionReset asks the server to clear the form's stored answers.
const (
	ActionField = "_action"
	ActionReset = "reset"
)

// HiddenField is a hidden input posted with a page form.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// ResetAction is the hidden input behind every "Clear answers" button.
func ResetAction() HiddenField {
	return Hidden(ActionField, ActionReset)
}

// FormIDField records which form a page post belongs to.
func FormIDField(formID string) HiddenField {
	return Hidden("_form", formID)
}

// MergeHiddenFields copies base and applies fields over it. Blank names are
// dropped; later fields win.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for name, value := range base {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = value
		}
	}
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			out[name] = field.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields lists fields by name so pages render deterministically.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	var out []HiddenField
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, HiddenField{Name: trimmed, Value: fields[name]})
		}
	}
	return out
}
