package vanilla

// ChromeClass is a typed identifier for the CSS classes on page chrome.
type ChromeClass string

const (
	ClassForm     ChromeClass = "gf-form"
	ClassHeader   ChromeClass = "gf-header"
	ClassSection  ChromeClass = "gf-section"
	ClassErrors   ChromeClass = "gf-errors"
	ClassGrid     ChromeClass = "gf-grid"
	ClassActions  ChromeClass = "gf-actions"
	ClassField    ChromeClass = "gf-field"
	ClassLabel    ChromeClass = "gf-label"
	ClassHelp     ChromeClass = "gf-help"
	ClassWarning  ChromeClass = "gf-warning"
	ClassError    ChromeClass = "gf-error"
	ClassInvalid  ChromeClass = "gf-field--invalid"
	ClassValidity ChromeClass = "gf-field--valid"
)

func chromeClasses() map[string]string {
	return map[string]string{
		"form":    string(ClassForm),
		"header":  string(ClassHeader),
		"section": string(ClassSection),
		"errors":  string(ClassErrors),
		"grid":    string(ClassGrid),
		"actions": string(ClassActions),
	}
}
