package components

// Canonical component names. They match the widget names form definitions use.
const (
	NameInput      = "input"
	NameNumber     = "number"
	NameSelect     = "select"
	NameRadio      = "radio"
	NameCheckboxes = "checkboxes"
)

// FieldScript is the asset every interactive widget depends on: it posts field
// changes to the JSON API and refreshes inline errors.
const FieldScript = "grantforms-fields.js"
