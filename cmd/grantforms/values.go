package main

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/model"
)

// parseAssignments turns repeated name=value flags into form values. Set
// fields collect every assignment; other fields keep the last one.
func parseAssignments(form model.FormModel, assignments []string) (map[string]any, error) {
	values := make(map[string]any, len(assignments))
	for _, assignment := range assignments {
		name, value, ok := strings.Cut(assignment, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, want name=value", assignment)
		}
		field, known := form.Field(name)
		if known && field.Type == model.FieldTypeSet {
			current, _ := values[name].([]string)
			values[name] = append(current, value)
			continue
		}
		values[name] = value
	}
	return values, nil
}
