// Package openapi describes the per-field JSON API as an OpenAPI 3 document.
// Each form contributes a values schema derived from its fields and rules, so
// clients can discover the accepted names, options and constraints.
package openapi
