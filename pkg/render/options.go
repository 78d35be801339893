package render

import (
	"slices"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-grantforms/pkg/validation"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the form model.
type RenderOptions struct {
	// Action is the URL the page form posts to. Defaults to the form route.
	Action string
	// APIBase is the prefix of the JSON field-change endpoints the page script
	// calls on input. An empty value disables live updates.
	APIBase string
	// Values pre-populates controls keyed by field name. Sets are []string.
	Values map[string]any
	// Errors holds the inline message shown under each field.
	Errors map[string]string
	// Validity marks each field valid or invalid for the input chrome.
	Validity map[string]bool
	// Consent is the current state of the terms checkbox.
	Consent bool
	// CanSubmit enables the submit button.
	CanSubmit bool
	// ConsentMissing shows the consent reminder after a rejected submit.
	ConsentMissing bool
	// Hidden adds hidden inputs (CSRF tokens and the like).
	Hidden map[string]string
	// FormErrors are shown above the form.
	FormErrors []string
	// Theme carries resolved go-theme tokens, partials and assets.
	Theme *theme.RendererConfig
}

// ValueString returns the textual value for name.
func (o RenderOptions) ValueString(name string) string {
	return validation.AsString(o.Values[name])
}

// ValueSet returns the selected options for a set field.
func (o RenderOptions) ValueSet(name string) []string {
	return validation.AsSet(o.Values[name])
}

// Checked reports whether option is selected for name.
func (o RenderOptions) Checked(name, option string) bool {
	return slices.Contains(o.ValueSet(name), option)
}
