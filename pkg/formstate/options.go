package formstate

import (
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/validation"
)

// Option customises a Controller.
type Option func(*Controller)

// Observer receives validation and submission events, typically to feed
// metrics. Implementations must not block.
type Observer interface {
	FieldValidated(form model.FormModel, field model.Field, result validation.Result)
	Submitted(form model.FormModel, outcome Outcome)
}

// WithObserver registers an observer for controller events.
func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		if observer != nil {
			c.observer = observer
		}
	}
}

type nopObserver struct{}

func (nopObserver) FieldValidated(model.FormModel, model.Field, validation.Result) {}
func (nopObserver) Submitted(model.FormModel, Outcome) {}
