package statecache

import (
	"errors"
	"testing"
)

// nopCipher passes key material through unchanged so tests can verify the
// base64 framing without a real master key.
type nopCipher struct{}

func (nopCipher) Encrypt(b []byte) ([]byte, error) { return b, nil }

// failCipher simulates a broken master-key collaborator.
type failCipher struct{}

func (failCipher) Encrypt([]byte) ([]byte, error) { return nil, errors.New("cipher broken") }

func openScratch(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "acct1", nopCipher{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strptr(s string) *string { return &s }
