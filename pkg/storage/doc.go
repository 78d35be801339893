// Package storage defines the per-visitor key-value store form state is
// persisted in, together with the value codec shared by every backend.
// Backends live in the memory and sqlite subpackages.
package storage
