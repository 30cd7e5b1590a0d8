package statecache

import (
	"crypto/rand"
	"database/sql"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mirrorfs/statecache/internal/handlekey"
)

//go:embed schema.sql
var schemaSQL string

const (
	filePrefix = "mirrorfs_statecache7_"
	fileExt    = ".db"
)

// Path returns the backing database file for an account-scoped store.
// One physical file per account scope; never shared across accounts.
func Path(baseDir, name string) string {
	return filepath.Join(baseDir, filePrefix+name+fileExt)
}

// Store is a per-account state cache. See the package documentation for the
// table set and lifecycle rules.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	tx      *sql.Tx
	path    string
	closed  bool
	cursors map[*cursorBase]struct{}
}

// Open opens or creates the state cache for one account scope.
//
// On first open (no prior scalar-slot table) it generates two independent
// handle-obfuscation keys, base64-frames them, encrypts each under the
// caller's master key via the cipher collaborator, and persists them at
// slots 4 and 5 in one atomic unit together with the schema bootstrap. If
// any part of that fails, Open returns ErrInitFailed and no store exists in
// a usable-but-keyless state.
//
// The cipher is only invoked during first-time initialization; reopening an
// existing store accepts a nil cipher.
func Open(baseDir, name string, cipher handlekey.Cipher) (*Store, error) {
	path := Path(baseDir, name)

	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, opError("open "+path, ErrOpenFailed, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, opError("open "+path, ErrOpenFailed, err)
	}

	// WAL lets external readers proceed alongside the writer. Best-effort:
	// some platforms cannot map the shared-memory index reliably.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		slog.Warn("statecache: WAL unavailable, using rollback journal",
			"path", path, "err", err)
	}

	// The probe must run before DDL: the scalar-slot table's existence is
	// the initialization marker.
	initialized, err := tableExists(db, "scalarslots")
	if err != nil {
		db.Close()
		return nil, opError("probe init marker", ErrOpenFailed, err)
	}

	// Schema bootstrap and first-open key persistence share one
	// transaction, so a store can never exist with tables but no
	// obfuscation keys.
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, opError("open "+path, ErrOpenFailed, err)
	}
	if _, err := tx.Exec(schemaSQL); err != nil {
		tx.Rollback()
		db.Close()
		return nil, opError("create schema", ErrOpenFailed, err)
	}
	if !initialized {
		if err := initHandleKeys(tx, cipher); err != nil {
			tx.Rollback()
			db.Close()
			return nil, opError("init handle keys", ErrInitFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		db.Close()
		if !initialized {
			return nil, opError("init handle keys", ErrInitFailed, err)
		}
		return nil, opError("create schema", ErrOpenFailed, err)
	}

	slog.Debug("statecache: database open", "path", path, "first_open", !initialized)

	return &Store{
		db:      db,
		path:    path,
		cursors: make(map[*cursorBase]struct{}),
	}, nil
}

// initHandleKeys persists fresh obfuscation keys at slots 4 and 5 on the
// bootstrap transaction.
func initHandleKeys(tx *sql.Tx, cipher handlekey.Cipher) error {
	if cipher == nil {
		return errors.New("no cipher supplied for first-time initialization")
	}

	// One key for node handles, an independent one for parent handles, so
	// the folder structure cannot be recovered by correlating the two.
	for _, slot := range []int{SlotNodeKey, SlotParentKey} {
		raw, err := handlekey.Generate(rand.Reader)
		if err != nil {
			return err
		}
		framed := []byte(base64.StdEncoding.EncodeToString(raw))
		enc, err := cipher.Encrypt(framed)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO scalarslots (id, content) VALUES (?, ?)",
			slot, enc,
		); err != nil {
			return err
		}
	}
	return nil
}

func tableExists(db *sql.DB, name string) (bool, error) {
	var found string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name = ?", name,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// runner is the statement target for the current unit of work: the open
// transaction when one is active, the plain connection otherwise. Both
// *sql.DB and *sql.Tx satisfy it.
type runner interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (s *Store) runner() (runner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	return s.db, nil
}

// Close finalizes open cursors, aborts any in-flight transaction and closes
// the connection. The backing file is kept. A closed store is permanently
// unusable; further operations return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.finalizeLocked()
	err := s.db.Close()
	s.closed = true
	slog.Debug("statecache: database closed", "path", s.path)
	if err != nil {
		return fmt.Errorf("statecache: close: %w", err)
	}
	return nil
}

// Remove finalizes open cursors, aborts any in-flight transaction, closes
// the connection and deletes the backing file. The store is permanently
// unusable afterwards; reopening the account yields a fresh store.
func (s *Store) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.finalizeLocked()
	s.db.Close()
	s.closed = true
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("statecache: remove %s: %w", s.path, err)
	}
	slog.Debug("statecache: database removed", "path", s.path)
	return nil
}

// finalizeLocked releases every open cursor and rolls back an open
// transaction. Caller holds s.mu.
func (s *Store) finalizeLocked() {
	for c := range s.cursors {
		c.done = true
		c.rows.Close()
	}
	s.cursors = nil
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
}

// Truncate deletes every row from all four tables, preserving the schema.
// Used to force a full resync. Inside an open transaction the truncation
// commits or rolls back with it.
func (s *Store) Truncate() error {
	run, err := s.runner()
	if err != nil {
		return err
	}
	for _, table := range []string{"scalarslots", "nodes", "users", "pcrs"} {
		if _, err := run.Exec("DELETE FROM " + table); err != nil {
			return opError("truncate "+table, ErrWriteFailed, err)
		}
	}
	return nil
}

// Stats summarizes the store's row populations for diagnostics.
type Stats struct {
	Path            string `json:"path"`
	Nodes           int64  `json:"nodes"`
	Users           int64  `json:"users"`
	PendingRequests int64  `json:"pending_requests"`
	ScalarSlots     int64  `json:"scalar_slots"`
	HasSCSN         bool   `json:"has_scsn"`
}

// Stats reports row counts per table and whether a sync sequence marker is
// present.
func (s *Store) Stats() (Stats, error) {
	run, err := s.runner()
	if err != nil {
		return Stats{}, err
	}

	st := Stats{Path: s.path}
	for _, c := range []struct {
		table string
		dst   *int64
	}{
		{"nodes", &st.Nodes},
		{"users", &st.Users},
		{"pcrs", &st.PendingRequests},
		{"scalarslots", &st.ScalarSlots},
	} {
		if err := run.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("statecache: count %s: %w", c.table, err)
		}
	}

	var n int64
	err = run.QueryRow("SELECT COUNT(*) FROM scalarslots WHERE id = ?", SlotSCSN).Scan(&n)
	if err != nil {
		return Stats{}, fmt.Errorf("statecache: probe scsn: %w", err)
	}
	st.HasSCSN = n > 0
	return st, nil
}
