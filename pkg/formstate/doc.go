// Package formstate holds the per-visitor state of a single form: current
// values, validity, inline errors and the consent flag. It mirrors every change
// into a storage.Store under the form's storage prefix and gates submission on
// all fields passing validation with consent given.
package formstate
