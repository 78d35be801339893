package definitions

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/validation"
)

var (
	// ErrUnknownForm is returned when a form id is not defined.
	ErrUnknownForm = errors.New("definitions: unknown form")
	// ErrUnknownResult is returned when a result page id is not defined.
	ErrUnknownResult = errors.New("definitions: unknown result page")
	// ErrUnknownScheme is returned when a scheme id is not defined.
	ErrUnknownScheme = errors.New("definitions: unknown scheme")
)

// Store holds validated form, result and scheme definitions. It is read-only
// once returned by Load.
type Store struct {
	forms   map[string]model.FormModel
	results map[string]model.ResultPage
	schemes map[string]model.Scheme
}

func newStore() *Store {
	return &Store{
		forms:   make(map[string]model.FormModel),
		results: make(map[string]model.ResultPage),
		schemes: make(map[string]model.Scheme),
	}
}

func (s *Store) merge(other *Store) {
	for id, form := range other.forms {
		s.forms[id] = form
	}
	for id, result := range other.results {
		s.results[id] = result
	}
	for id, scheme := range other.schemes {
		s.schemes[id] = scheme
	}
}

// Form returns the form with the given id.
func (s *Store) Form(id string) (model.FormModel, error) {
	if s == nil {
		return model.FormModel{}, fmt.Errorf("%w: %s", ErrUnknownForm, id)
	}
	form, ok := s.forms[id]
	if !ok {
		return model.FormModel{}, fmt.Errorf("%w: %s", ErrUnknownForm, id)
	}
	return form, nil
}

// Forms lists every form ordered by scheme order then kind (mandatory first).
func (s *Store) Forms() []model.FormModel {
	if s == nil {
		return nil
	}
	out := make([]model.FormModel, 0, len(s.forms))
	for _, form := range s.forms {
		out = append(out, form)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := s.schemeOrder(out[i].Scheme), s.schemeOrder(out[j].Scheme)
		if oi != oj {
			return oi < oj
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == model.FormKindMandatory
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Result returns the result page with the given id.
func (s *Store) Result(id string) (model.ResultPage, error) {
	if s == nil {
		return model.ResultPage{}, fmt.Errorf("%w: %s", ErrUnknownResult, id)
	}
	result, ok := s.results[id]
	if !ok {
		return model.ResultPage{}, fmt.Errorf("%w: %s", ErrUnknownResult, id)
	}
	return result, nil
}

// Results lists result pages in scheme order.
func (s *Store) Results() []model.ResultPage {
	if s == nil {
		return nil
	}
	out := make([]model.ResultPage, 0, len(s.results))
	for _, result := range s.results {
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := s.schemeOrder(out[i].Scheme), s.schemeOrder(out[j].Scheme)
		if oi != oj {
			return oi < oj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Scheme returns the scheme with the given id.
func (s *Store) Scheme(id string) (model.Scheme, error) {
	if s == nil {
		return model.Scheme{}, fmt.Errorf("%w: %s", ErrUnknownScheme, id)
	}
	scheme, ok := s.schemes[id]
	if !ok {
		return model.Scheme{}, fmt.Errorf("%w: %s", ErrUnknownScheme, id)
	}
	return scheme, nil
}

// Schemes lists schemes by their Order, then id.
func (s *Store) Schemes() []model.Scheme {
	if s == nil {
		return nil
	}
	out := make([]model.Scheme, 0, len(s.schemes))
	for _, scheme := range s.schemes {
		out = append(out, scheme)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Empty reports whether the store holds no forms.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

func (s *Store) schemeOrder(id string) int {
	if scheme, ok := s.schemes[id]; ok {
		return scheme.Order
	}
	return int(^uint(0) >> 1)
}

func (s *Store) validate() error {
	var errs []error

	routes := make(map[string]string)
	claimRoute := func(route, owner string) {
		if route == "" {
			errs = append(errs, fmt.Errorf("definitions: %s has no route", owner))
			return
		}
		if !strings.HasPrefix(route, "/") {
			errs = append(errs, fmt.Errorf("definitions: %s route %q must start with /", owner, route))
		}
		if prev, exists := routes[route]; exists {
			errs = append(errs, fmt.Errorf("definitions: route %q used by both %s and %s", route, prev, owner))
			return
		}
		routes[route] = owner
	}

	for _, result := range s.Results() {
		claimRoute(result.Route, "result "+result.ID)
		for _, formID := range result.Forms {
			if _, ok := s.forms[formID]; !ok {
				errs = append(errs, fmt.Errorf("definitions: result %q lists unknown form %q", result.ID, formID))
			}
		}
	}

	prefixes := make(map[string]string)
	for _, form := range s.Forms() {
		owner := "form " + form.ID
		claimRoute(form.Route, owner)

		if form.Kind != model.FormKindMandatory && form.Kind != model.FormKindEligibility {
			errs = append(errs, fmt.Errorf("definitions: %s has unknown kind %q", owner, form.Kind))
		}
		if strings.TrimSpace(form.StoragePrefix) == "" {
			errs = append(errs, fmt.Errorf("definitions: %s has no storage prefix", owner))
		} else if prev, exists := prefixes[form.StoragePrefix]; exists {
			errs = append(errs, fmt.Errorf("definitions: storage prefix %q used by both %s and %s", form.StoragePrefix, prev, owner))
		} else {
			prefixes[form.StoragePrefix] = owner
		}
		if len(form.Fields) == 0 {
			errs = append(errs, fmt.Errorf("definitions: %s declares no fields", owner))
		}
		errs = append(errs, validateFields(form)...)
	}

	for _, form := range s.Forms() {
		if form.Next == "" {
			errs = append(errs, fmt.Errorf("definitions: form %s has no next route", form.ID))
			continue
		}
		if _, ok := routes[form.Next]; !ok {
			errs = append(errs, fmt.Errorf("definitions: form %s next route %q does not match any form or result", form.ID, form.Next))
		}
		if form.Back != "" && form.Back != "/" {
			if _, ok := routes[form.Back]; !ok {
				errs = append(errs, fmt.Errorf("definitions: form %s back route %q does not match any form or result", form.ID, form.Back))
			}
		}
	}

	for _, scheme := range s.Schemes() {
		if _, ok := s.forms[scheme.Mandatory]; !ok {
			errs = append(errs, fmt.Errorf("definitions: scheme %q references unknown mandatory form %q", scheme.ID, scheme.Mandatory))
		}
		if _, ok := s.forms[scheme.Eligibility]; !ok {
			errs = append(errs, fmt.Errorf("definitions: scheme %q references unknown eligibility form %q", scheme.ID, scheme.Eligibility))
		}
		if _, ok := s.results[scheme.Result]; !ok {
			errs = append(errs, fmt.Errorf("definitions: scheme %q references unknown result %q", scheme.ID, scheme.Result))
		}
	}

	return errors.Join(errs...)
}

func validateFields(form model.FormModel) []error {
	var errs []error
	owner := "form " + form.ID
	seen := make(map[string]struct{}, len(form.Fields))
	for idx, field := range form.Fields {
		if field.Name == "" {
			errs = append(errs, fmt.Errorf("definitions: %s field at index %d has no name", owner, idx))
			continue
		}
		if _, dup := seen[field.Name]; dup {
			errs = append(errs, fmt.Errorf("definitions: %s declares field %q twice", owner, field.Name))
		}
		seen[field.Name] = struct{}{}
		if field.Name == form.ConsentName() {
			errs = append(errs, fmt.Errorf("definitions: %s field %q collides with the consent flag", owner, field.Name))
		}
		if !field.Type.Valid() {
			errs = append(errs, fmt.Errorf("definitions: %s field %q has unknown type %q", owner, field.Name, field.Type))
		}
		for _, rule := range field.Validations {
			if _, ok := validation.Lookup(rule.Kind); !ok {
				errs = append(errs, fmt.Errorf("definitions: %s field %q uses unknown rule %q", owner, field.Name, rule.Kind))
				continue
			}
			switch rule.Kind {
			case model.ValidationRulePattern:
				if _, err := validation.CompilePattern(rule.Param("pattern")); err != nil || rule.Param("pattern") == "" {
					errs = append(errs, fmt.Errorf("definitions: %s field %q has an invalid pattern", owner, field.Name))
				}
			case model.ValidationRuleEnum:
				if len(field.Options) == 0 && rule.Param("values") == "" {
					errs = append(errs, fmt.Errorf("definitions: %s field %q enum rule has no options", owner, field.Name))
				}
			case model.ValidationRuleMinLength, model.ValidationRuleMin:
				if rule.Param("value") == "" {
					errs = append(errs, fmt.Errorf("definitions: %s field %q %s rule needs a value", owner, field.Name, rule.Kind))
				}
			}
		}
	}
	for _, section := range form.Sections {
		for _, name := range section.Fields {
			if _, ok := seen[name]; !ok {
				errs = append(errs, fmt.Errorf("definitions: %s section %q lists unknown field %q", owner, section.ID, name))
			}
		}
	}
	return errs
}
