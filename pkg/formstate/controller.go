package formstate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/storage"
	"github.com/goliatone/go-grantforms/pkg/validation"
)

var (
	// ErrUnknownField is returned when a change targets a field the form does
	// not declare.
	ErrUnknownField = validation.ErrUnknownField
	// ErrNotASet is returned by Toggle for fields that are not multi-select.
	ErrNotASet = errors.New("formstate: field is not a set")
)

// Outcome reports what a submit attempt did. When Accepted is false Errors
// holds the inline message for every failing field.
type Outcome struct {
	Accepted       bool              `json:"accepted"`
	Next           string            `json:"next,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
	ConsentMissing bool              `json:"consentMissing,omitempty"`
}

// Snapshot is a copy of the controller state suitable for rendering.
type Snapshot struct {
	FormID    string            `json:"form"`
	Values    map[string]any    `json:"values"`
	Errors    map[string]string `json:"errors"`
	Validity  map[string]bool   `json:"validity"`
	Consent   bool              `json:"consent"`
	CanSubmit bool              `json:"canSubmit"`
}

// Controller owns one visitor's state for one form. Every change is validated
// and persisted immediately so a reload restores the same values.
type Controller struct {
	mu        sync.Mutex
	form      model.FormModel
	store     storage.Store
	namespace string
	observer  Observer

	values  map[string]any
	results map[string]validation.Result
	errors  map[string]string
	consent bool
}

// Load reads the form's stored values from namespace and computes their
// validity. Inline errors start empty; they only appear once a field changes
// or a submit fails.
func Load(ctx context.Context, store storage.Store, namespace string, form model.FormModel, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("formstate: store is required")
	}
	c := &Controller{
		form:      form,
		store:     store,
		namespace: namespace,
		observer:  nopObserver{},
		values:    make(map[string]any, len(form.Fields)),
		results:   make(map[string]validation.Result, len(form.Fields)),
		errors:    make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	stored, err := store.List(ctx, namespace, form.StoragePrefix)
	if err != nil {
		return nil, fmt.Errorf("formstate: load %s: %w", form.ID, err)
	}

	for _, field := range form.Fields {
		raw, ok := stored[form.StorageKey(field.Name)]
		value := zeroValue(field)
		if ok {
			// malformed entries fall back to the zero value
			decoded, _ := storage.DecodeValue(field.Type, raw)
			value = normalise(field, decoded)
		}
		c.values[field.Name] = value
		c.results[field.Name] = validation.Validate(field, value)
	}

	if raw, ok := stored[form.StorageKey(form.ConsentName())]; ok {
		decoded, _ := storage.DecodeValue(model.FieldTypeBoolean, raw)
		c.consent, _ = decoded.(bool)
	}
	return c, nil
}

// Form returns the form definition the controller was loaded with.
func (c *Controller) Form() model.FormModel {
	return c.form
}

// Change sets a single field (or the consent flag), re-validates only that
// field and persists its value.
func (c *Controller) Change(ctx context.Context, name string, value any) (validation.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name == c.form.ConsentName() {
		return c.setConsent(ctx, validation.AsBool(value))
	}

	field, ok := c.form.Field(name)
	if !ok {
		return validation.Result{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.form.ID, name)
	}
	return c.setField(ctx, field, normalise(field, value))
}

// Toggle adds or removes option from a set field.
func (c *Controller) Toggle(ctx context.Context, name, option string, checked bool) (validation.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	field, ok := c.form.Field(name)
	if !ok {
		return validation.Result{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.form.ID, name)
	}
	if field.Type != model.FieldTypeSet {
		return validation.Result{}, fmt.Errorf("%w: %s.%s", ErrNotASet, c.form.ID, name)
	}

	current := slices.Clone(validation.AsSet(c.values[name]))
	idx := slices.Index(current, option)
	switch {
	case checked && idx < 0:
		current = append(current, option)
	case !checked && idx >= 0:
		current = slices.Delete(current, idx, idx+1)
	}
	if current == nil {
		current = []string{}
	}
	return c.setField(ctx, field, current)
}

// Apply sets several values at once, as a full page post does. Fields absent
// from values keep their current value; the consent flag is read from its own
// key. Every touched field gets its inline error refreshed.
func (c *Controller) Apply(ctx context.Context, values map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make(map[string]string, len(values))
	for name, value := range values {
		if name == c.form.ConsentName() {
			c.consent = validation.AsBool(value)
			entries[c.form.StorageKey(name)] = encodeBool(c.consent)
			continue
		}
		field, ok := c.form.Field(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, c.form.ID, name)
		}
		normalised := normalise(field, value)
		encoded, err := storage.EncodeValue(normalised)
		if err != nil {
			return fmt.Errorf("formstate: encode %s: %w", name, err)
		}
		c.values[name] = normalised
		c.record(field, validation.Validate(field, normalised))
		entries[c.form.StorageKey(name)] = encoded
	}

	if err := storage.SetMany(ctx, c.store, c.namespace, entries); err != nil {
		return fmt.Errorf("formstate: persist %s: %w", c.form.ID, err)
	}
	return nil
}

// Submit re-validates every field. The full record is persisted and the next
// route returned only when every field passes and consent is given.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := validation.ValidateForm(c.form, c.values)
	for name, result := range results {
		c.results[name] = result
		if result.Valid {
			delete(c.errors, name)
		} else {
			c.errors[name] = result.Message
		}
	}

	if !validation.Valid(results) || !c.consent {
		outcome := Outcome{
			Errors:         validation.Messages(results),
			ConsentMissing: !c.consent,
		}
		c.observer.Submitted(c.form, outcome)
		return outcome, nil
	}

	entries := make(map[string]string, len(c.form.Fields)+1)
	for _, field := range c.form.Fields {
		encoded, err := storage.EncodeValue(c.values[field.Name])
		if err != nil {
			return Outcome{}, fmt.Errorf("formstate: encode %s: %w", field.Name, err)
		}
		entries[c.form.StorageKey(field.Name)] = encoded
	}
	entries[c.form.StorageKey(c.form.ConsentName())] = encodeBool(c.consent)
	if err := storage.SetMany(ctx, c.store, c.namespace, entries); err != nil {
		return Outcome{}, fmt.Errorf("formstate: persist %s: %w", c.form.ID, err)
	}

	outcome := Outcome{Accepted: true, Next: c.form.Next}
	c.observer.Submitted(c.form, outcome)
	return outcome, nil
}

// CanSubmit reports whether every field is valid and consent is given. It
// drives the enabled state of the submit button.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmit()
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		FormID:    c.form.ID,
		Values:    make(map[string]any, len(c.values)),
		Errors:    make(map[string]string, len(c.errors)),
		Validity:  make(map[string]bool, len(c.results)),
		Consent:   c.consent,
		CanSubmit: c.canSubmit(),
	}
	for name, value := range c.values {
		if set, ok := value.([]string); ok {
			value = slices.Clone(set)
		}
		snap.Values[name] = value
	}
	for name, message := range c.errors {
		snap.Errors[name] = message
	}
	for name, result := range c.results {
		snap.Validity[name] = result.Valid
	}
	return snap
}

// Reset deletes every stored key of the form and clears the in-memory state.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.form.Fields)+1)
	for _, field := range c.form.Fields {
		keys = append(keys, c.form.StorageKey(field.Name))
	}
	keys = append(keys, c.form.StorageKey(c.form.ConsentName()))
	if err := c.store.Delete(ctx, c.namespace, keys...); err != nil {
		return fmt.Errorf("formstate: reset %s: %w", c.form.ID, err)
	}

	c.consent = false
	c.errors = make(map[string]string)
	for _, field := range c.form.Fields {
		value := zeroValue(field)
		c.values[field.Name] = value
		c.results[field.Name] = validation.Validate(field, value)
	}
	return nil
}

func (c *Controller) setField(ctx context.Context, field model.Field, value any) (validation.Result, error) {
	encoded, err := storage.EncodeValue(value)
	if err != nil {
		return validation.Result{}, fmt.Errorf("formstate: encode %s: %w", field.Name, err)
	}
	c.values[field.Name] = value
	result := validation.Validate(field, value)
	c.record(field, result)

	if err := c.store.Set(ctx, c.namespace, c.form.StorageKey(field.Name), encoded); err != nil {
		return result, fmt.Errorf("formstate: persist %s: %w", field.Name, err)
	}
	return result, nil
}

func (c *Controller) setConsent(ctx context.Context, accepted bool) (validation.Result, error) {
	c.consent = accepted
	if err := c.store.Set(ctx, c.namespace, c.form.StorageKey(c.form.ConsentName()), encodeBool(accepted)); err != nil {
		return validation.Result{}, fmt.Errorf("formstate: persist consent: %w", err)
	}
	return validation.Result{Valid: accepted}, nil
}

func (c *Controller) record(field model.Field, result validation.Result) {
	c.results[field.Name] = result
	if result.Valid {
		delete(c.errors, field.Name)
	} else {
		c.errors[field.Name] = result.Message
	}
	c.observer.FieldValidated(c.form, field, result)
}

func (c *Controller) canSubmit() bool {
	if !c.consent {
		return false
	}
	for _, field := range c.form.Fields {
		if !c.results[field.Name].Valid {
			return false
		}
	}
	return true
}

func zeroValue(field model.Field) any {
	switch field.Type {
	case model.FieldTypeSet:
		return []string{}
	case model.FieldTypeBoolean:
		return false
	default:
		return ""
	}
}

func normalise(field model.Field, value any) any {
	switch field.Type {
	case model.FieldTypeSet:
		set := slices.Clone(validation.AsSet(value))
		if set == nil {
			set = []string{}
		}
		return set
	case model.FieldTypeBoolean:
		return validation.AsBool(value)
	default:
		return validation.AsString(value)
	}
}

func encodeBool(v bool) string {
	encoded, _ := storage.EncodeValue(v)
	return encoded
}
