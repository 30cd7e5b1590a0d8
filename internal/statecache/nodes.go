package statecache

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mirrorfs/statecache/internal/query"
)

// SharedState describes a node's sharing relationship.
type SharedState int

const (
	ShareNone          SharedState = 0 // not shared
	ShareOut           SharedState = 1 // outgoing share
	ShareIn            SharedState = 2 // incoming share
	SharePendingOut    SharedState = 3 // pending outgoing share
	ShareOutAndPending SharedState = 4 // outgoing share with a pending invite
)

// NodeRecord is one cached node row. Payload is the caller-owned serialized
// node; the store never interprets it.
type NodeRecord struct {
	Handle       int64
	ParentHandle int64

	// Fingerprint identifies file content. An empty fingerprint marks the
	// node as a folder and is stored as SQL NULL - presence is the sole
	// folder/file discriminator the child-count queries consume.
	Fingerprint []byte

	// AttrString is set only while the node's attributes remain
	// server-side encrypted and not yet locally decrypted.
	AttrString *string

	Shared  SharedState
	Payload []byte
}

// PutNode upserts a node row by handle.
func (s *Store) PutNode(n NodeRecord) error {
	run, err := s.runner()
	if err != nil {
		return err
	}

	var fp any
	if len(n.Fingerprint) > 0 {
		fp = n.Fingerprint
	}
	var attr any
	if n.AttrString != nil {
		attr = *n.AttrString
	}

	if _, err := run.Exec(
		"INSERT OR REPLACE INTO nodes (nodehandle, parenthandle, fingerprint, attrstring, shared, node) VALUES (?, ?, ?, ?, ?, ?)",
		n.Handle, n.ParentHandle, fp, attr, int(n.Shared), n.Payload,
	); err != nil {
		return opError(fmt.Sprintf("put node %d", n.Handle), ErrWriteFailed, err)
	}
	return nil
}

// GetNode returns the payload stored for a node handle.
func (s *Store) GetNode(handle int64) ([]byte, error) {
	return s.nodePayload(
		fmt.Sprintf("get node %d", handle),
		"SELECT node FROM nodes WHERE nodehandle = ?", handle,
	)
}

// GetNodeByFingerprint returns the payload of a node whose fingerprint
// equals fp. When several files share content, which one is returned is
// unspecified.
func (s *Store) GetNodeByFingerprint(fp []byte) ([]byte, error) {
	return s.nodePayload(
		"get node by fingerprint",
		"SELECT node FROM nodes WHERE fingerprint = ?", fp,
	)
}

func (s *Store) nodePayload(op, q string, args ...any) ([]byte, error) {
	run, err := s.runner()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = run.QueryRow(q, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, opError(op, ErrNotFound, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("statecache: %s: %w", op, err)
	}
	return payload, nil
}

// DeleteNode removes a node row. Deleting an absent handle is not an error.
func (s *Store) DeleteNode(handle int64) error {
	run, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := run.Exec("DELETE FROM nodes WHERE nodehandle = ?", handle); err != nil {
		return opError(fmt.Sprintf("delete node %d", handle), ErrWriteFailed, err)
	}
	return nil
}

// CountChildren returns the number of nodes whose parent is parent.
func (s *Store) CountChildren(parent int64) (int, error) {
	return s.countNodes("count children",
		query.Eq{Column: "parenthandle", Value: parent})
}

// CountChildFiles returns the number of child files (fingerprint present).
func (s *Store) CountChildFiles(parent int64) (int, error) {
	return s.countNodes("count child files", query.And{Preds: []query.Predicate{
		query.Eq{Column: "parenthandle", Value: parent},
		query.NotNull{Column: "fingerprint"},
	}})
}

// CountChildFolders returns the number of child folders (fingerprint
// absent).
func (s *Store) CountChildFolders(parent int64) (int, error) {
	return s.countNodes("count child folders", query.And{Preds: []query.Predicate{
		query.Eq{Column: "parenthandle", Value: parent},
		query.IsNull{Column: "fingerprint"},
	}})
}

func (s *Store) countNodes(op string, p query.Predicate) (int, error) {
	run, err := s.runner()
	if err != nil {
		return 0, err
	}

	where, args := query.Compile(p)
	var n int
	if err := run.QueryRow("SELECT COUNT(*) FROM nodes WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("statecache: %s: %w", op, err)
	}
	return n, nil
}

// Children opens a cursor over the handles of parent's direct children.
func (s *Store) Children(parent int64) (*HandleCursor, error) {
	return s.nodeHandleCursor(query.Eq{Column: "parenthandle", Value: parent})
}

// EncryptedNodes opens a cursor over the handles of nodes whose attributes
// are still server-side encrypted (attrstring present).
func (s *Store) EncryptedNodes() (*HandleCursor, error) {
	return s.nodeHandleCursor(query.NotNull{Column: "attrstring"})
}

// Outshares opens a cursor over the handles of all outgoing-share nodes,
// including those with a pending invite.
func (s *Store) Outshares() (*HandleCursor, error) {
	return s.nodeHandleCursor(sharedEither(ShareOut, ShareOutAndPending))
}

// OutsharesOf is Outshares scoped to the children of one parent. The share
// condition stays inside the parent scope.
func (s *Store) OutsharesOf(parent int64) (*HandleCursor, error) {
	return s.nodeHandleCursor(query.And{Preds: []query.Predicate{
		query.Eq{Column: "parenthandle", Value: parent},
		sharedEither(ShareOut, ShareOutAndPending),
	}})
}

// PendingShares opens a cursor over the handles of all nodes with a pending
// outgoing share.
func (s *Store) PendingShares() (*HandleCursor, error) {
	return s.nodeHandleCursor(sharedEither(SharePendingOut, ShareOutAndPending))
}

// PendingSharesOf is PendingShares scoped to the children of one parent.
func (s *Store) PendingSharesOf(parent int64) (*HandleCursor, error) {
	return s.nodeHandleCursor(query.And{Preds: []query.Predicate{
		query.Eq{Column: "parenthandle", Value: parent},
		sharedEither(SharePendingOut, ShareOutAndPending),
	}})
}

func sharedEither(a, b SharedState) query.Predicate {
	return query.Or{Preds: []query.Predicate{
		query.Eq{Column: "shared", Value: int(a)},
		query.Eq{Column: "shared", Value: int(b)},
	}}
}

func (s *Store) nodeHandleCursor(p query.Predicate) (*HandleCursor, error) {
	where, args := query.Compile(p)
	return s.openHandleCursor("SELECT nodehandle FROM nodes WHERE "+where, args...)
}
