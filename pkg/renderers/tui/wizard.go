package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/flow"
	"github.com/goliatone/go-grantforms/pkg/formstate"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/render"
	"github.com/goliatone/go-grantforms/pkg/storage"
)

// Wizard walks one scheme end to end in the terminal: the mandatory form, the
// eligibility check and finally the result summary. Answers are persisted
// through form controllers so an interrupted run resumes with its defaults.
type Wizard struct {
	renderer  *Renderer
	defs      *definitions.Store
	router    *flow.Router
	store     storage.Store
	namespace string
	observer  formstate.Observer
}

// WizardOption customises a Wizard.
type WizardOption func(*Wizard)

// WithObserver forwards controller events, typically to metrics.
func WithObserver(observer formstate.Observer) WizardOption {
	return func(w *Wizard) {
		w.observer = observer
	}
}

// NewWizard wires a wizard over the given definitions and store. namespace
// isolates this run's answers from other visitors sharing the store.
func NewWizard(renderer *Renderer, defs *definitions.Store, store storage.Store, namespace string, opts ...WizardOption) (*Wizard, error) {
	if renderer == nil {
		return nil, errors.New("tui: renderer is required")
	}
	if store == nil {
		return nil, errors.New("tui: store is required")
	}
	router, err := flow.New(defs)
	if err != nil {
		return nil, err
	}
	w := &Wizard{
		renderer:  renderer,
		defs:      defs,
		router:    router,
		store:     store,
		namespace: namespace,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run starts at the scheme's first page and follows each accepted submit until
// a result page is reached. The summary is printed and returned.
func (w *Wizard) Run(ctx context.Context, schemeID string) (render.ResultView, error) {
	route, ok := w.router.StartRoute(schemeID)
	if !ok {
		return render.ResultView{}, fmt.Errorf("tui: unknown scheme %q", schemeID)
	}

	visited := make(map[string]bool)
	for {
		if err := ctx.Err(); err != nil {
			return render.ResultView{}, err
		}
		page, ok := w.router.Resolve(route)
		if !ok || visited[page.Path] {
			return render.ResultView{}, fmt.Errorf("%w: %s", ErrDeadEnd, route)
		}
		visited[page.Path] = true

		switch page.Kind {
		case flow.PageForm:
			next, err := w.runForm(ctx, page.FormID)
			if err != nil {
				return render.ResultView{}, err
			}
			route = next
		case flow.PageResult:
			view, err := flow.Summarise(ctx, w.defs, w.store, w.namespace, page.ResultID)
			if err != nil {
				return render.ResultView{}, err
			}
			return view, w.printResult(ctx, view)
		default:
			return render.ResultView{}, fmt.Errorf("%w: %s", ErrDeadEnd, route)
		}
	}
}

func (w *Wizard) runForm(ctx context.Context, formID string) (string, error) {
	form, err := w.defs.Form(formID)
	if err != nil {
		return "", err
	}
	var opts []formstate.Option
	if w.observer != nil {
		opts = append(opts, formstate.WithObserver(w.observer))
	}
	ctrl, err := formstate.Load(ctx, w.store, w.namespace, form, opts...)
	if err != nil {
		return "", err
	}

	r := w.renderer
	if err := r.driver.Info(ctx, r.prefixes.Title+form.Title); err != nil {
		return "", err
	}
	sink := controllerSink{ctrl: ctrl}
	if err := r.promptFields(ctx, form, form.Fields, sink, nil); err != nil {
		return "", err
	}
	if err := r.promptConsent(ctx, form, sink); err != nil {
		return "", err
	}

	for {
		outcome, err := ctrl.Submit(ctx)
		if err != nil {
			return "", err
		}
		if outcome.Accepted {
			return outcome.Next, nil
		}
		if err := r.promptFields(ctx, form, failing(form, outcome.Errors), sink, outcome.Errors); err != nil {
			return "", err
		}
		if outcome.ConsentMissing {
			if err := r.promptConsent(ctx, form, sink); err != nil {
				return "", err
			}
		}
	}
}

func (w *Wizard) printResult(ctx context.Context, view render.ResultView) error {
	r := w.renderer
	lines := []string{r.prefixes.Title + view.Page.Title}
	if view.Page.Summary != "" {
		lines = append(lines, view.Page.Summary)
	}
	for _, section := range view.Sections {
		lines = append(lines, r.prefixes.Title+section.Title)
		for _, answer := range section.Answers {
			lines = append(lines, fmt.Sprintf("  %s: %s", answer.Label, answer.Value))
		}
	}
	lines = append(lines, view.Page.Notes...)
	for _, line := range lines {
		if err := r.driver.Info(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

// failing returns the fields named in errors in declaration order.
func failing(form model.FormModel, errors map[string]string) []model.Field {
	var out []model.Field
	for _, field := range form.Fields {
		if _, ok := errors[field.Name]; ok {
			out = append(out, field)
		}
	}
	return out
}
