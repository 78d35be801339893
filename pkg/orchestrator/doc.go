// Package orchestrator wires the definitions → transformer → decorators →
// renderer pipeline behind a single entry point. Callers name a form id and a
// renderer; the orchestrator resolves the definition, applies presentation
// overrides and the selected theme, then renders.
package orchestrator
