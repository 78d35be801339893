package tui

import (
	"fmt"
	"strings"
)

// OutputFormat selects how Render serialises the collected answers.
type OutputFormat string

const (
	OutputFormatJSON           OutputFormat = "json"
	OutputFormatFormURLEncoded OutputFormat = "form"
	OutputFormatPrettyText     OutputFormat = "pretty"
)

// ParseOutputFormat accepts a format name case-insensitively.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch format := OutputFormat(strings.ToLower(strings.TrimSpace(name))); format {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
		return format, nil
	}
	return "", fmt.Errorf("tui: unknown output format %q", name)
}

// Prefixes are prepended to the lines the wizard prints: form titles, warning
// notes and validation errors.
type Prefixes struct {
	Title string
	Info  string
	Error string
}

// Option configures the terminal renderer.
type Option func(*Renderer)

// WithPromptDriver replaces the survey driver, typically with a scripted one.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the serialisation of Render's result.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithPrefixes overrides the message prefixes.
func WithPrefixes(prefixes Prefixes) Option {
	return func(r *Renderer) {
		r.prefixes = prefixes
	}
}
