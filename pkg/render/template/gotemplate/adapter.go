// Package gotemplate runs the page and widget templates on pongo2.
package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-grantforms/pkg/render/template"
)

const extension = ".html"

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	dir   string
	files fs.FS
}

// WithBaseDir loads templates from a directory on disk. Files found there take
// precedence over the embedded set, which lets a deployment restyle pages
// without rebuilding.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.dir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// Engine implements template.TemplateRenderer. Parsed templates are cached by
// name for the engine's lifetime.
type Engine struct {
	set *pongo2.TemplateSet

	mu     sync.RWMutex
	parsed map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

var filtersOnce sync.Once

// New builds an Engine. At least one of WithBaseDir or WithFS is required.
func New(options ...Option) (*Engine, error) {
	var cfg config
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.dir == "" && cfg.files == nil {
		return nil, errors.New("gotemplate: need a base dir or an fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.dir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(cfg.dir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: local loader: %w", err)
		}
		loaders = append(loaders, local)
	}
	if cfg.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.files))
	}

	filtersOnce.Do(registerFilters)
	return &Engine{
		set:    pongo2.NewSet("grantforms", loaders...),
		parsed: make(map[string]*pongo2.Template),
	}, nil
}

// Render executes the named template. A name containing template tags is
// treated as inline content.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if strings.Contains(name, "{{") || strings.Contains(name, "{%") {
		return e.RenderString(name, data, out...)
	}
	tmpl, err := e.lookup(strings.TrimSuffix(name, extension) + extension)
	if err != nil {
		return "", err
	}
	return execute(tmpl, name, data, out)
}

// RenderString parses and executes inline template content.
func (e *Engine) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("gotemplate: parse inline: %w", err)
	}
	return execute(tmpl, "inline", data, out)
}

func (e *Engine) lookup(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.parsed[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %q: %w", path, err)
	}
	e.mu.Lock()
	e.parsed[path] = tmpl
	e.mu.Unlock()
	return tmpl, nil
}

func execute(tmpl *pongo2.Template, name string, data any, out []io.Writer) (string, error) {
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("gotemplate: execute %q: %w", name, err)
	}
	for _, w := range out {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// toContext turns view data into a pongo2.Context. Structs go through their
// JSON encoding so templates address fields by their json names.
func toContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	value, err := normalise(data)
	if err != nil {
		return nil, err
	}
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("view data must be an object, got %T", data)
	}
	return pongo2.Context(fields), nil
}

func normalise(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, int, int64, float64, []string, map[string]string, map[string]bool:
		return v, nil
	case pongo2.Context:
		return normalise(map[string]any(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			converted, err := normalise(item)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			converted, err := normalise(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			converted, err := normalise(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	}
	if reflect.ValueOf(value).Kind() == reflect.Func {
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return normalise(decoded)
}

// registerFilters adds the filters the widget templates rely on. pongo2
// filters are process wide.
func registerFilters() {
	if !pongo2.FilterExists("contains") {
		_ = pongo2.RegisterFilter("contains", filterContains)
	}
	if !pongo2.FilterExists("postcode") {
		_ = pongo2.RegisterFilter("postcode", filterPostcode)
	}
}

// filterContains reports whether a list of selected options holds param. The
// checkbox widget uses it to mark checked options.
func filterContains(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	needle := param.String()
	found := false
	in.Iterate(func(_, _ int, item, _ *pongo2.Value) bool {
		if item.String() == needle {
			found = true
			return false
		}
		return true
	}, func() {})
	return pongo2.AsValue(found), nil
}

// filterPostcode prints a UK postcode upper-cased with a single space before
// the inward code, e.g. "sw1a1aa" as "SW1A 1AA". Other input is only trimmed.
func filterPostcode(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	compact := strings.ToUpper(strings.Join(strings.Fields(in.String()), ""))
	if len(compact) < 5 || len(compact) > 7 {
		return pongo2.AsValue(strings.TrimSpace(in.String())), nil
	}
	return pongo2.AsValue(compact[:len(compact)-3] + " " + compact[len(compact)-3:]), nil
}
