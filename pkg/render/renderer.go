package render

import (
	"context"

	"github.com/goliatone/go-grantforms/pkg/model"
)

// Renderer converts a FormModel into a byte representation (HTML, terminal
// transcript, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}

// PageRenderer is implemented by renderers that can also produce the landing
// page and the result pages.
type PageRenderer interface {
	Renderer
	RenderHome(ctx context.Context, view HomeView, options RenderOptions) ([]byte, error)
	RenderResult(ctx context.Context, view ResultView, options RenderOptions) ([]byte, error)
}

// HomeView lists the schemes a visitor can start.
type HomeView struct {
	Title   string       `json:"title"`
	Schemes []SchemeCard `json:"schemes"`
}

// SchemeCard is a single scheme entry on the landing page.
type SchemeCard struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartRoute  string `json:"startRoute"`
	Icon        string `json:"icon,omitempty"`
}

// ResultView summarises the stored answers of each form in a scheme.
type ResultView struct {
	Page     model.ResultPage `json:"page"`
	Sections []ResultSection  `json:"sections"`
	Complete bool             `json:"complete"`
}

// ResultSection holds the answers of one form.
type ResultSection struct {
	FormID  string   `json:"form"`
	Title   string   `json:"title"`
	Route   string   `json:"route"`
	Answers []Answer `json:"answers"`
}

// Answer is a labelled stored value ready for display.
type Answer struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}
