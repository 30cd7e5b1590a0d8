package statecache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPath_AccountScoped(t *testing.T) {
	got := Path("/var/cache", "acct1")
	want := filepath.Join("/var/cache", "mirrorfs_statecache7_acct1.db")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestOpen_CreatesBackingFile(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, "acct1", nopCipher{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(Path(dir, "acct1")); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_InvalidDir(t *testing.T) {
	_, err := Open("/nonexistent/dir", "acct1", nopCipher{})
	if err == nil {
		t.Fatal("expected error for invalid base dir, got nil")
	}
	if !errors.Is(err, ErrOpenFailed) {
		t.Errorf("err = %v, want ErrOpenFailed", err)
	}
}

func TestOpen_FirstOpenWritesHandleKeys(t *testing.T) {
	s := openScratch(t)

	for _, slot := range []int{SlotNodeKey, SlotParentKey} {
		content, err := s.GetScalar(slot)
		if err != nil {
			t.Fatalf("GetScalar(%d) failed: %v", slot, err)
		}
		if len(content) == 0 {
			t.Errorf("slot %d is empty after first open", slot)
		}
	}
}

func TestOpen_ReopenKeepsHandleKeys(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir, "acct1", nopCipher{})
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	key1, err := s1.GetScalar(SlotNodeKey)
	if err != nil {
		t.Fatalf("GetScalar failed: %v", err)
	}
	s1.Close()

	// Second open needs no cipher: initialization already happened.
	s2, err := Open(dir, "acct1", nil)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	key2, err := s2.GetScalar(SlotNodeKey)
	if err != nil {
		t.Fatalf("GetScalar after reopen failed: %v", err)
	}
	if string(key1) != string(key2) {
		t.Error("reopen regenerated the handle key")
	}
}

func TestOpen_NilCipherOnFirstOpen(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(dir, "acct1", nil)
	if !errors.Is(err, ErrInitFailed) {
		t.Fatalf("err = %v, want ErrInitFailed", err)
	}

	// The failed open must not leave a half-initialized store behind: a
	// later open with a cipher is still treated as first-time.
	s, err := Open(dir, "acct1", nopCipher{})
	if err != nil {
		t.Fatalf("Open() after failed init: %v", err)
	}
	defer s.Close()

	if _, err := s.GetScalar(SlotNodeKey); err != nil {
		t.Errorf("handle key missing after recovery open: %v", err)
	}
}

func TestOpen_FailingCipher(t *testing.T) {
	_, err := Open(t.TempDir(), "acct1", failCipher{})
	if !errors.Is(err, ErrInitFailed) {
		t.Errorf("err = %v, want ErrInitFailed", err)
	}
}

func TestOpen_AccountsIndependent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir, "acct1", nopCipher{})
	if err != nil {
		t.Fatalf("Open(acct1) failed: %v", err)
	}
	defer s1.Close()
	s2, err := Open(dir, "acct2", nopCipher{})
	if err != nil {
		t.Fatalf("Open(acct2) failed: %v", err)
	}
	defer s2.Close()

	if err := s1.PutSCSN([]byte("SCSN-A")); err != nil {
		t.Fatalf("PutSCSN failed: %v", err)
	}
	if _, err := s2.GetSCSN(); !errors.Is(err, ErrNotFound) {
		t.Errorf("acct2 sees acct1's scsn: err = %v, want ErrNotFound", err)
	}
}

func TestClose_OperationsFailFast(t *testing.T) {
	s := openScratch(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	_, err := s.GetScalar(SlotSCSN)
	if !errors.Is(err, ErrStoreClosed) {
		t.Errorf("GetScalar after close: err = %v, want ErrStoreClosed", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("closed-store error must not read as NotFound")
	}

	if err := s.PutNode(NodeRecord{Handle: 1, Payload: []byte("x")}); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("PutNode after close: err = %v, want ErrStoreClosed", err)
	}
	if _, err := s.Children(1); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Children after close: err = %v, want ErrStoreClosed", err)
	}
	if err := s.Begin(); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Begin after close: err = %v, want ErrStoreClosed", err)
	}
}

func TestClose_Twice(t *testing.T) {
	s := openScratch(t)
	if err := s.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := s.Close(); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("second Close(): err = %v, want ErrStoreClosed", err)
	}
}

func TestRemove_DeletesFileAndDisablesStore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "acct1", nopCipher{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Remove(); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	if _, err := os.Stat(Path(dir, "acct1")); !os.IsNotExist(err) {
		t.Error("backing file still exists after Remove()")
	}
	if _, err := s.GetScalar(SlotSCSN); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("GetScalar after Remove(): err = %v, want ErrStoreClosed", err)
	}
}

func TestRemove_FreshStoreAfterReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "acct1", nopCipher{})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.PutSCSN([]byte("SCSN-1")); err != nil {
		t.Fatalf("PutSCSN failed: %v", err)
	}
	if err := s.Remove(); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	s2, err := Open(dir, "acct1", nopCipher{})
	if err != nil {
		t.Fatalf("reopen after Remove() failed: %v", err)
	}
	defer s2.Close()

	if _, err := s2.GetSCSN(); !errors.Is(err, ErrNotFound) {
		t.Errorf("fresh store still has old scsn: err = %v", err)
	}
}

func TestTruncate_ClearsAllTables(t *testing.T) {
	s := openScratch(t)

	if err := s.PutSCSN([]byte("SCSN-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.PutNode(NodeRecord{Handle: 1, ParentHandle: 0, Payload: []byte("n")}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutUser(2, []byte("u")); err != nil {
		t.Fatal(err)
	}
	if err := s.PutPendingRequest(3, []byte("p")); err != nil {
		t.Fatal(err)
	}

	if err := s.Truncate(); err != nil {
		t.Fatalf("Truncate() failed: %v", err)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if st.Nodes != 0 || st.Users != 0 || st.PendingRequests != 0 || st.ScalarSlots != 0 {
		t.Errorf("tables not empty after Truncate(): %+v", st)
	}
}

func TestStats_Counts(t *testing.T) {
	s := openScratch(t)

	if err := s.PutNode(NodeRecord{Handle: 1, Payload: []byte("n")}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutUser(2, []byte("u")); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if st.Nodes != 1 {
		t.Errorf("Nodes = %d, want 1", st.Nodes)
	}
	if st.Users != 1 {
		t.Errorf("Users = %d, want 1", st.Users)
	}
	// Slots 4 and 5 were written at first open.
	if st.ScalarSlots != 2 {
		t.Errorf("ScalarSlots = %d, want 2", st.ScalarSlots)
	}
	if st.HasSCSN {
		t.Error("HasSCSN = true before any PutSCSN")
	}

	if err := s.PutSCSN([]byte("SCSN-1")); err != nil {
		t.Fatal(err)
	}
	st, err = s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if !st.HasSCSN {
		t.Error("HasSCSN = false after PutSCSN")
	}
}
