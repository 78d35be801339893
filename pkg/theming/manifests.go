package theming

import theme "github.com/goliatone/go-theme"

const (
	// DefaultTheme is the theme used when a request names none.
	DefaultTheme = "grantforms"
	// VariantDark and VariantContrast are the built-in variants of DefaultTheme.
	VariantDark     = "dark"
	VariantContrast = "high-contrast"
)

// BuiltinManifests returns fresh copies of the bundled manifests.
func BuiltinManifests() []*theme.Manifest {
	return []*theme.Manifest{
		{
			Name:    DefaultTheme,
			Version: "1.0.0",
			Tokens: map[string]string{
				"color-brand":   "#0b5cab",
				"color-text":    "#1f2933",
				"color-muted":   "#52606d",
				"color-error":   "#b42318",
				"color-valid":   "#027a48",
				"color-warning": "#b54708",
				"color-surface": "#ffffff",
				"color-border":  "#cbd2d9",
				"radius":        "6px",
			},
			Variants: map[string]theme.Variant{
				VariantDark: {
					Tokens: map[string]string{
						"color-brand":   "#4ea1f3",
						"color-text":    "#e4e7eb",
						"color-muted":   "#9aa5b1",
						"color-surface": "#1f2933",
						"color-border":  "#3e4c59",
					},
				},
				VariantContrast: {
					Tokens: map[string]string{
						"color-brand":  "#000000",
						"color-text":   "#000000",
						"color-muted":  "#1f1f1f",
						"color-error":  "#8a0000",
						"color-border": "#000000",
						"radius":       "0",
					},
				},
			},
		},
	}
}
