package testutil

import (
	"testing"

	"github.com/mqnguyen/collab-notify/internal/store"
)

// NewTestStore creates a notification store backed by an in-memory
// SQLite cache with all migrations applied. The cache is closed
// automatically when the test completes.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	cache, err := store.NewSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("creating test cache: %v", err)
	}

	t.Cleanup(func() {
		if err := cache.Close(); err != nil {
			t.Errorf("closing test cache: %v", err)
		}
	})

	return store.New(cache)
}
