package testsupport

import (
	"context"
	"testing"

	"clipflow/internal/config"
	"clipflow/internal/queue"
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

// InsertProcessing records a clip for tests using the provided store.
func InsertProcessing(t testing.TB, store *queue.Store, clipID, broadcaster string) *queue.Clip {
	t.Helper()

	clip, err := store.InsertProcessing(context.Background(), clipID, "https://clips.example/"+clipID, "Clip "+clipID, broadcaster)
	if err != nil {
		t.Fatalf("store.InsertProcessing: %v", err)
	}
	return clip
}
