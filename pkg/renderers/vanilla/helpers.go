package vanilla

import (
	"slices"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/renderers/vanilla/components"
)

// fieldIDs are the element ids around one field. The field script looks errors
// up by these ids, so they must stay stable.
type fieldIDs struct {
	control string
	label   string
	help    string
	warning string
	error   string
}

func idsFor(name string) fieldIDs {
	base := strings.TrimSpace(name)
	if base == "" {
		return fieldIDs{}
	}
	base = "gf-" + base
	return fieldIDs{
		control: base,
		label:   base + "-label",
		help:    base + "-help",
		warning: base + "-warning",
		error:   base + "-error",
	}
}

// extraClasses keeps the definition's cssClass hint minus anything in the
// renderer's own gf- namespace.
func extraClasses(hint string) string {
	tokens := slices.DeleteFunc(strings.Fields(hint), func(token string) bool {
		return strings.HasPrefix(token, "gf-")
	})
	return strings.Join(tokens, " ")
}

// groupWidget reports whether the widget draws several inputs, in which case
// the label cannot use for=.
func groupWidget(widget string) bool {
	switch strings.TrimSpace(widget) {
	case components.NameRadio, components.NameCheckboxes:
		return true
	}
	return false
}
