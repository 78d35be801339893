// Package theming ships the built-in go-theme manifests and turns a theme
// selection into the renderer configuration the HTML renderer consumes.
package theming
