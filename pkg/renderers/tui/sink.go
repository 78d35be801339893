package tui

import (
	"context"

	"github.com/goliatone/go-grantforms/pkg/formstate"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/validation"
)

// valueSink receives prompted answers. The stateless renderer keeps them in
// memory; the wizard routes them through a form controller so they persist.
type valueSink interface {
	value(name string) any
	set(ctx context.Context, field model.Field, value any) (validation.Result, error)
	consent(ctx context.Context, accepted bool) error
}

type memorySink struct {
	form   model.FormModel
	values map[string]any
}

func newMemorySink(form model.FormModel, seed map[string]any) *memorySink {
	values := make(map[string]any, len(form.Fields)+1)
	for _, field := range form.Fields {
		if value, ok := seed[field.Name]; ok {
			values[field.Name] = value
		}
	}
	if value, ok := seed[form.ConsentName()]; ok {
		values[form.ConsentName()] = validation.AsBool(value)
	}
	return &memorySink{form: form, values: values}
}

func (s *memorySink) value(name string) any {
	return s.values[name]
}

func (s *memorySink) set(_ context.Context, field model.Field, value any) (validation.Result, error) {
	s.values[field.Name] = value
	return validation.Validate(field, value), nil
}

func (s *memorySink) consent(_ context.Context, accepted bool) error {
	s.values[s.form.ConsentName()] = accepted
	return nil
}

type controllerSink struct {
	ctrl *formstate.Controller
}

func (s controllerSink) value(name string) any {
	snap := s.ctrl.Snapshot()
	if name == s.ctrl.Form().ConsentName() {
		return snap.Consent
	}
	return snap.Values[name]
}

func (s controllerSink) set(ctx context.Context, field model.Field, value any) (validation.Result, error) {
	return s.ctrl.Change(ctx, field.Name, value)
}

func (s controllerSink) consent(ctx context.Context, accepted bool) error {
	_, err := s.ctrl.Change(ctx, s.ctrl.Form().ConsentName(), accepted)
	return err
}
