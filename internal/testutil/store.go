// Package testutil provides scratch-store helpers shared by tests.
package testutil

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/mirrorfs/statecache/internal/statecache"
)

// NopCipher passes key material through unchanged. Stores opened with it
// hold bare base64-framed keys, so ReadHandleKeys round-trips without a
// master key.
type NopCipher struct{}

func (NopCipher) Encrypt(b []byte) ([]byte, error) { return b, nil }

// ScratchAccount returns a unique account-scoped name, so tests sharing a
// base directory never collide on a backing file.
func ScratchAccount() string {
	return "test-" + uuid.NewString()[:8]
}

// OpenScratch opens a fresh store for a unique account under a per-test
// temp directory. The store is closed at test cleanup; stores the test
// removed itself are left alone.
func OpenScratch(t *testing.T) *statecache.Store {
	t.Helper()

	s, err := statecache.Open(t.TempDir(), ScratchAccount(), NopCipher{})
	if err != nil {
		t.Fatalf("open scratch store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil && !errors.Is(err, statecache.ErrStoreClosed) {
			t.Errorf("close scratch store: %v", err)
		}
	})
	return s
}
