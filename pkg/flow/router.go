// Package flow maps request paths to pages and knows how the forms of each
// scheme chain together: mandatory form, eligibility check, result.
package flow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/render"
)

// PageKind classifies a resolved route.
type PageKind string

const (
	PageHome   PageKind = "home"
	PageForm   PageKind = "form"
	PageResult PageKind = "result"
)

// HomeAliases are the paths that all render the landing page.
var HomeAliases = []string{"/", "/home", "/why-us", "/products", "/how-it-works"}

// Page is a resolved route.
type Page struct {
	Kind     PageKind `json:"kind"`
	Path     string   `json:"path"`
	FormID   string   `json:"form,omitempty"`
	ResultID string   `json:"result,omitempty"`
	Scheme   string   `json:"scheme,omitempty"`
}

// Router is an immutable route table.
type Router struct {
	pages   map[string]Page
	next    map[string]string
	starts  map[string]string
	schemes []model.Scheme
}

// New builds the route table from loaded definitions.
func New(defs *definitions.Store) (*Router, error) {
	if defs == nil {
		return nil, fmt.Errorf("flow: definitions are required")
	}
	r := &Router{
		pages:   make(map[string]Page),
		next:    make(map[string]string),
		starts:  make(map[string]string),
		schemes: defs.Schemes(),
	}
	for _, scheme := range r.schemes {
		if form, err := defs.Form(scheme.Mandatory); err == nil {
			r.starts[scheme.ID] = form.Route
		}
	}
	for _, alias := range HomeAliases {
		r.pages[alias] = Page{Kind: PageHome, Path: alias}
	}
	for _, form := range defs.Forms() {
		if err := r.add(Page{Kind: PageForm, Path: form.Route, FormID: form.ID, Scheme: form.Scheme}); err != nil {
			return nil, err
		}
		r.next[form.ID] = form.Next
	}
	for _, result := range defs.Results() {
		if err := r.add(Page{Kind: PageResult, Path: result.Route, ResultID: result.ID, Scheme: result.Scheme}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Router) add(page Page) error {
	if _, exists := r.pages[page.Path]; exists {
		return fmt.Errorf("flow: route %q registered twice", page.Path)
	}
	r.pages[page.Path] = page
	return nil
}

// Resolve looks up the page for path. A trailing slash is ignored.
func (r *Router) Resolve(path string) (Page, bool) {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	page, ok := r.pages[path]
	return page, ok
}

// NextFor returns the route a successful submit of formID leads to.
func (r *Router) NextFor(formID string) (string, bool) {
	next, ok := r.next[formID]
	return next, ok
}

// Schemes lists the schemes in display order.
func (r *Router) Schemes() []model.Scheme {
	return append([]model.Scheme(nil), r.schemes...)
}

// StartRoute returns the first page of a scheme.
func (r *Router) StartRoute(schemeID string) (string, bool) {
	route, ok := r.starts[schemeID]
	return route, ok
}

// Home builds the landing page view.
func (r *Router) Home(title string) render.HomeView {
	view := render.HomeView{Title: title, Schemes: make([]render.SchemeCard, 0, len(r.schemes))}
	for _, scheme := range r.schemes {
		view.Schemes = append(view.Schemes, render.SchemeCard{
			ID:          scheme.ID,
			Name:        scheme.Name,
			Description: scheme.Description,
			StartRoute:  r.starts[scheme.ID],
			Icon:        scheme.Icon,
		})
	}
	return view
}

// Routes lists every registered path in sorted order.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.pages))
	for path := range r.pages {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Pages lists every page in route order.
func (r *Router) Pages() []Page {
	routes := r.Routes()
	out := make([]Page, 0, len(routes))
	for _, path := range routes {
		out = append(out, r.pages[path])
	}
	return out
}
