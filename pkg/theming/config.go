package theming

import (
	"maps"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-grantforms/pkg/renderers/vanilla/components"
)

// DefaultFallbacks maps every widget partial key to its bundled template.
func DefaultFallbacks() map[string]string {
	out := make(map[string]string)
	for _, name := range []string{
		components.NameInput,
		components.NameNumber,
		components.NameSelect,
		components.NameRadio,
		components.NameCheckboxes,
	} {
		out["widgets."+name] = "widgets/" + name
	}
	return out
}

// RendererConfig flattens a selection into renderer configuration. Variant
// tokens, templates and asset files override the base manifest; fallbacks fill
// partials neither declares. Every token is also exposed as a "--" CSS custom
// property.
func RendererConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant, hasVariant := manifest.Variants[selection.Variant]

	tokens := maps.Clone(manifest.Tokens)
	if tokens == nil {
		tokens = make(map[string]string)
	}
	partials := make(map[string]string, len(fallbacks)+len(manifest.Templates))
	maps.Copy(partials, fallbacks)
	maps.Copy(partials, manifest.Templates)

	files := maps.Clone(manifest.Assets.Files)
	if files == nil {
		files = make(map[string]string)
	}
	prefix := manifest.Assets.Prefix

	if hasVariant {
		maps.Copy(tokens, variant.Tokens)
		maps.Copy(partials, variant.Templates)
		maps.Copy(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.Contains(file, "://") || strings.HasPrefix(file, "/") {
				return file
			}
			return strings.TrimSuffix(prefix, "/") + "/" + file
		},
	}
}
