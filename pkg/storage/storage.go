package storage

import (
	"context"
	"time"
)

// Store is a namespaced string key-value store. Each visitor owns one
// namespace; keys inside it follow the form's storage prefix. Implementations
// must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace string, keys ...string) error
	List(ctx context.Context, namespace, prefix string) (map[string]string, error)
	Close() error
}

// SetMany writes each entry in turn. Backends that support batching may
// implement BatchSetter to make the write atomic.
func SetMany(ctx context.Context, store Store, namespace string, entries map[string]string) error {
	if batch, ok := store.(BatchSetter); ok {
		return batch.SetMany(ctx, namespace, entries)
	}
	for key, value := range entries {
		if err := store.Set(ctx, namespace, key, value); err != nil {
			return err
		}
	}
	return nil
}

// BatchSetter is implemented by stores that can write several keys at once.
type BatchSetter interface {
	SetMany(ctx context.Context, namespace string, entries map[string]string) error
}

// Pruner is implemented by stores that can expire idle visitors. Prune drops
// whole namespaces whose most recent write is older than cutoff, so a
// visitor's answers expire together.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
