// Package model defines the typed form model shared by the definitions loader,
// validators, the form-state controller and renderers. A FormModel is a flat
// record of named fields: text and numbers travel as strings, multi-select
// answers as string sets and the consent flag as a boolean. Validation rules
// carry canonical kinds (required, minLength, pattern, postcode, contact, enum,
// positive, min, nonEmpty) with string parameters so definitions stay
// serialisable as JSON or YAML. UIHints is a free-form map of renderer
// directives (cssClass, inputMode, suffix) that renderers may ignore.
package model
