package vanilla

import (
	"maps"
	"slices"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// pageTheme wraps the resolved go-theme selection for one render. A nil config
// means the built-in look.
type pageTheme struct {
	cfg *theme.RendererConfig
}

// context is what layout.html reads under "theme".
func (t pageTheme) context() map[string]any {
	if t.cfg == nil {
		return map[string]any{}
	}
	return map[string]any{
		"name":           t.cfg.Theme,
		"variant":        t.cfg.Variant,
		"css_vars_style": rootVars(t.cfg.CSSVars),
	}
}

// partials maps "widgets.<name>" keys to replacement widget templates.
func (t pageTheme) partials() map[string]string {
	if t.cfg == nil {
		return nil
	}
	return t.cfg.Partials
}

func (t pageTheme) assetURL(key string) string {
	if t.cfg == nil || t.cfg.AssetURL == nil {
		return ""
	}
	return strings.TrimSpace(t.cfg.AssetURL(key))
}

// rootVars renders theme tokens as a :root block, keys sorted.
func rootVars(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		b.WriteString(key + ": " + vars[key] + ";\n")
	}
	b.WriteString("}")
	return b.String()
}
