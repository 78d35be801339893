package template

import "io"

// TemplateRenderer executes a page or widget template by name (without
// extension) and optionally copies the output to out.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}
