package model

import "strings"

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeSet     FieldType = "set"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeSet:
		return true
	default:
		return false
	}
}

// FormKind separates the two steps every scheme walks through.
type FormKind string

const (
	FormKindMandatory   FormKind = "mandatory"
	FormKindEligibility FormKind = "eligibility"
)

const (
	ValidationRuleRequired  = "required"
	ValidationRuleMinLength = "minLength"
	ValidationRulePattern   = "pattern"
	ValidationRulePostcode  = "postcode"
	ValidationRuleContact   = "contact"
	ValidationRuleEnum      = "enum"
	ValidationRulePositive  = "positive"
	ValidationRuleMin       = "min"
	ValidationRuleNonEmpty  = "nonEmpty"
)

const (
	WidgetInput      = "input"
	WidgetNumber     = "number"
	WidgetSelect     = "select"
	WidgetRadio      = "radio"
	WidgetCheckboxes = "checkboxes"
)

// ValidationRule represents a single validation constraint applied to a field.
// Length and numeric thresholds live in Params["value"], regular expressions in
// Params["pattern"]. Message overrides the validator's default wording.
type ValidationRule struct {
	Kind    string            `json:"kind" yaml:"kind"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Message string            `json:"message,omitempty" yaml:"message,omitempty"`
}

// Param returns a trimmed parameter value.
func (r ValidationRule) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return strings.TrimSpace(r.Params[name])
}

// Option is a single enumerated choice for select, radio and checkbox widgets.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Display returns the label, falling back to the raw value.
func (o Option) Display() string {
	if strings.TrimSpace(o.Label) != "" {
		return o.Label
	}
	return o.Value
}

// Field models an individual input inside a form.
type Field struct {
	Name        string            `json:"name" yaml:"name"`
	Type        FieldType         `json:"type" yaml:"type"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Widget      string            `json:"widget,omitempty" yaml:"widget,omitempty"`
	Options     []Option          `json:"options,omitempty" yaml:"options,omitempty"`
	Validations []ValidationRule  `json:"validations,omitempty" yaml:"validations,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	UIHints     map[string]string `json:"uiHints,omitempty" yaml:"uiHints,omitempty"`
}

// OptionValues returns the raw values of the field's options in order.
func (f Field) OptionValues() []string {
	if len(f.Options) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		out = append(out, opt.Value)
	}
	return out
}

// Rule returns the first rule of the given kind.
func (f Field) Rule(kind string) (ValidationRule, bool) {
	for _, rule := range f.Validations {
		if rule.Kind == kind {
			return rule, true
		}
	}
	return ValidationRule{}, false
}

// Consent describes the boolean terms flag that gates submission.
type Consent struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Section groups related fields under a heading.
type Section struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []string `json:"fields" yaml:"fields"`
}

// FormModel is the top-level representation renderers and the controller
// consume. Route is the page path, Next the path reached after a successful
// submit and StoragePrefix the key prefix each field is persisted under.
type FormModel struct {
	ID            string            `json:"id" yaml:"id"`
	Scheme        string            `json:"scheme" yaml:"scheme"`
	Kind          FormKind          `json:"kind" yaml:"kind"`
	Title         string            `json:"title" yaml:"title"`
	Summary       string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	Route         string            `json:"route" yaml:"route"`
	Next          string            `json:"next" yaml:"next"`
	Back          string            `json:"back,omitempty" yaml:"back,omitempty"`
	SubmitLabel   string            `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	StoragePrefix string            `json:"storagePrefix" yaml:"storagePrefix"`
	Consent       Consent           `json:"consent" yaml:"consent"`
	Sections      []Section         `json:"sections,omitempty" yaml:"sections,omitempty"`
	Fields        []Field           `json:"fields" yaml:"fields"`
	Metadata      map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Field looks up a field by name.
func (f FormModel) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in declaration order.
func (f FormModel) FieldNames() []string {
	out := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		out = append(out, field.Name)
	}
	return out
}

// StorageKey returns the persistent key for a field name.
func (f FormModel) StorageKey(name string) string {
	return f.StoragePrefix + name
}

// ConsentName returns the consent field name, defaulting to termsAccepted.
func (f FormModel) ConsentName() string {
	if name := strings.TrimSpace(f.Consent.Name); name != "" {
		return name
	}
	return DefaultConsentName
}

// DefaultConsentName is the consent key used when a definition omits one.
const DefaultConsentName = "termsAccepted"

// ResultPage is the last step of a scheme. It summarises the answers stored by
// the listed forms; no scoring is applied.
type ResultPage struct {
	ID      string   `json:"id" yaml:"id"`
	Scheme  string   `json:"scheme" yaml:"scheme"`
	Route   string   `json:"route" yaml:"route"`
	Title   string   `json:"title" yaml:"title"`
	Summary string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Forms   []string `json:"forms" yaml:"forms"`
	Notes   []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Scheme ties a mandatory form, an eligibility form and a result page together.
// Icon is optional inline SVG markup; renderers sanitise it before output.
type Scheme struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Mandatory   string `json:"mandatory" yaml:"mandatory"`
	Eligibility string `json:"eligibility" yaml:"eligibility"`
	Result      string `json:"result" yaml:"result"`
	Order       int    `json:"order,omitempty" yaml:"order,omitempty"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
}
