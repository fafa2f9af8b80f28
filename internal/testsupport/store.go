package testsupport

import (
	"context"
	"testing"

	"lightbox/internal/config"
	"lightbox/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSource creates a new source item for tests using the provided store.
func NewSource(t testing.TB, store *queue.Store, sourcePath, fingerprint string) *queue.Item {
	t.Helper()

	item, err := store.NewSource(context.Background(), sourcePath, "", fingerprint)
	if err != nil {
		t.Fatalf("store.NewSource: %v", err)
	}
	return item
}
