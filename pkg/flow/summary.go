package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/formstate"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/render"
	"github.com/goliatone/go-grantforms/pkg/storage"
	"github.com/goliatone/go-grantforms/pkg/validation"
)

// Summarise reads the answers a visitor stored for every form of a result page.
// Nothing is scored; the view is complete when every listed form would pass
// submission.
func Summarise(ctx context.Context, defs *definitions.Store, store storage.Store, namespace, resultID string) (render.ResultView, error) {
	page, err := defs.Result(resultID)
	if err != nil {
		return render.ResultView{}, err
	}

	view := render.ResultView{Page: page, Complete: true}
	for _, formID := range page.Forms {
		form, err := defs.Form(formID)
		if err != nil {
			return render.ResultView{}, err
		}
		ctrl, err := formstate.Load(ctx, store, namespace, form)
		if err != nil {
			return render.ResultView{}, fmt.Errorf("flow: summarise %s: %w", formID, err)
		}
		snap := ctrl.Snapshot()

		section := render.ResultSection{
			FormID:  form.ID,
			Title:   form.Title,
			Route:   form.Route,
			Answers: make([]render.Answer, 0, len(form.Fields)),
		}
		for _, field := range form.Fields {
			section.Answers = append(section.Answers, render.Answer{
				Name:  field.Name,
				Label: field.Label,
				Value: DisplayValue(field, snap.Values[field.Name]),
				Valid: snap.Validity[field.Name],
			})
		}
		if !snap.CanSubmit {
			view.Complete = false
		}
		view.Sections = append(view.Sections, section)
	}
	return view, nil
}

// DisplayValue formats a stored value with option labels; sets are joined
// with commas.
func DisplayValue(field model.Field, value any) string {
	if field.Type == model.FieldTypeSet {
		items := validation.AsSet(value)
		labels := make([]string, 0, len(items))
		for _, item := range items {
			labels = append(labels, optionLabel(field, item))
		}
		return strings.Join(labels, ", ")
	}
	return optionLabel(field, validation.AsString(value))
}

func optionLabel(field model.Field, value string) string {
	for _, opt := range field.Options {
		if opt.Value == value {
			return opt.Display()
		}
	}
	return value
}
