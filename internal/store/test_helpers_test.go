package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	return createTestStoreAt(t, filepath.Join(t.TempDir(), "journal.db"))
}

// createTestStoreAt opens the journal at path and closes it with the test.
func createTestStoreAt(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testSession creates a session with minimal required fields.
func testSession(id string) Session {
	return Session{
		ID:          id,
		Fingerprint: "abc123",
		ModelPath:   "/models/pond.inp",
		InputCount:  2,
		OutputCount: 1,
	}
}
