package vanilla

import (
	"embed"
	"io/fs"
)

// bundle holds the page templates, the widget partials and the static files
// the pages link to.
//
//go:embed templates assets
var bundle embed.FS

const (
	// StylesheetName is the embedded base stylesheet.
	StylesheetName = "grantforms.css"
	// ThemeStylesheetKey is the go-theme asset key for an extra stylesheet.
	ThemeStylesheetKey = "vanilla.stylesheet"
)

// TemplatesFS returns the page and widget templates.
func TemplatesFS() fs.FS { return subtree("templates") }

// AssetsFS returns the stylesheet and field script for serving over HTTP.
func AssetsFS() fs.FS { return subtree("assets") }

func subtree(dir string) fs.FS {
	sub, err := fs.Sub(bundle, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// readAsset returns an embedded asset body, or "" when it does not exist.
func readAsset(name string) string {
	data, err := fs.ReadFile(AssetsFS(), name)
	if err != nil {
		return ""
	}
	return string(data)
}
