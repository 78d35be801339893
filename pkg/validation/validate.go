package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/model"
)

// ErrUnknownField is returned when a value is checked against a field the form
// does not declare.
var ErrUnknownField = errors.New("validation: unknown field")

// Result is the outcome of validating one field. Message is empty when Valid.
type Result struct {
	Message string `json:"message"`
	Valid   bool   `json:"valid"`
}

// Pass is the result for a value that satisfies every rule.
var Pass = Result{Valid: true}

// Fail builds a failing result.
func Fail(message string) Result {
	return Result{Message: message}
}

// Validate runs the field's rules in declaration order and reports the first
// failure. Rules other than required are skipped for empty values so optional
// fields may be left blank.
func Validate(field model.Field, value any) Result {
	empty := isEmpty(field, value)
	for _, rule := range field.Validations {
		if empty && rule.Kind != model.ValidationRuleRequired && rule.Kind != model.ValidationRuleNonEmpty {
			continue
		}
		fn, ok := Lookup(rule.Kind)
		if !ok {
			continue
		}
		message := fn(field, rule, value)
		if message == "" {
			continue
		}
		if custom := strings.TrimSpace(rule.Message); custom != "" {
			message = custom
		}
		return Fail(message)
	}
	return Pass
}

// ValidateField validates value against the named field of form.
func ValidateField(form model.FormModel, name string, value any) (Result, error) {
	field, ok := form.Field(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, form.ID, name)
	}
	return Validate(field, value), nil
}

// ValidateForm validates every declared field. Missing values are treated as
// empty.
func ValidateForm(form model.FormModel, values map[string]any) map[string]Result {
	out := make(map[string]Result, len(form.Fields))
	for _, field := range form.Fields {
		out[field.Name] = Validate(field, values[field.Name])
	}
	return out
}

// Valid reports whether every result passed.
func Valid(results map[string]Result) bool {
	for _, result := range results {
		if !result.Valid {
			return false
		}
	}
	return true
}

// Messages returns the failure messages keyed by field name.
func Messages(results map[string]Result) map[string]string {
	out := make(map[string]string)
	for name, result := range results {
		if !result.Valid && result.Message != "" {
			out[name] = result.Message
		}
	}
	return out
}

// AsString converts a stored or submitted value to its textual form.
func AsString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ",")
	default:
		return fmt.Sprint(v)
	}
}

// AsSet converts a value into a list of selected options.
func AsSet(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, AsString(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return []string{AsString(v)}
	}
}

// AsBool reports whether value represents a checked flag. The HTML checkbox
// default "on" counts as checked.
func AsBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.EqualFold(trimmed, "on") {
			return true
		}
		parsed, err := strconv.ParseBool(trimmed)
		return err == nil && parsed
	default:
		return false
	}
}

// isEmpty applies the emptiness test used by the required rule. Free text is
// trimmed; choices and numbers are compared raw.
func isEmpty(field model.Field, value any) bool {
	switch field.Type {
	case model.FieldTypeSet:
		return !NonEmptySet(AsSet(value))
	case model.FieldTypeBoolean:
		return !AsBool(value)
	case model.FieldTypeNumber:
		return AsString(value) == ""
	}
	if len(field.Options) > 0 {
		return AsString(value) == ""
	}
	return IsBlank(AsString(value))
}
