package definitions

import (
	"embed"
	"io/fs"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// EmbeddedFS exposes the built-in scheme definitions.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		return builtinFS
	}
	return sub
}
