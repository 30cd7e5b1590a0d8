package statecache

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
)

// Reserved scalar slot ids.
const (
	// SlotSCSN holds the sync sequence marker: the last applied point in
	// the remote change stream.
	SlotSCSN = 0

	// Slots 1-3 hold the three root node handles.
	SlotRootCloud = 1
	SlotRootInbox = 2
	SlotRootTrash = 3

	// SlotNodeKey and SlotParentKey hold the handle-obfuscation key
	// material, written once at first open.
	SlotNodeKey   = 4
	SlotParentKey = 5
)

// GetScalar reads the content of one scalar slot.
// Returns ErrNotFound if the slot has never been written.
func (s *Store) GetScalar(slot int) ([]byte, error) {
	run, err := s.runner()
	if err != nil {
		return nil, err
	}

	var content []byte
	err = run.QueryRow("SELECT content FROM scalarslots WHERE id = ?", slot).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, opError(fmt.Sprintf("get scalar %d", slot), ErrNotFound, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("statecache: get scalar %d: %w", slot, err)
	}
	return content, nil
}

// PutScalar upserts one scalar slot: at most one row per slot id.
func (s *Store) PutScalar(slot int, content []byte) error {
	run, err := s.runner()
	if err != nil {
		return err
	}

	if _, err := run.Exec(
		"INSERT OR REPLACE INTO scalarslots (id, content) VALUES (?, ?)",
		slot, content,
	); err != nil {
		return opError(fmt.Sprintf("put scalar %d", slot), ErrWriteFailed, err)
	}
	return nil
}

// GetSCSN reads the sync sequence marker.
func (s *Store) GetSCSN() ([]byte, error) {
	return s.GetScalar(SlotSCSN)
}

// PutSCSN updates the sync sequence marker.
func (s *Store) PutSCSN(scsn []byte) error {
	return s.PutScalar(SlotSCSN, scsn)
}

// GetRootNode reads one of the three root node handles (slots 1-3).
func (s *Store) GetRootNode(slot int) ([]byte, error) {
	if slot < SlotRootCloud || slot > SlotRootTrash {
		return nil, fmt.Errorf("statecache: root node slot %d out of range [1,3]", slot)
	}
	return s.GetScalar(slot)
}

// PutRootNode updates one of the three root node handles (slots 1-3).
// The range guard keeps callers from stomping the key slots.
func (s *Store) PutRootNode(slot int, handle []byte) error {
	if slot < SlotRootCloud || slot > SlotRootTrash {
		return fmt.Errorf("statecache: root node slot %d out of range [1,3]", slot)
	}
	return s.PutScalar(slot, handle)
}

// ReadHandleKeys returns the node and parent handle-obfuscation key blobs
// from slots 4 and 5 with their base64 framing reversed. Decrypting the slot
// content under the master key is the caller's collaborator step; the store
// only undoes the framing it applied at first open.
//
// Returns ErrNotFound if either slot is absent - the store was never
// initialized, or is corrupted.
func (s *Store) ReadHandleKeys() (nodeKey, parentKey []byte, err error) {
	nodeKey, err = s.readHandleKey(SlotNodeKey)
	if err != nil {
		return nil, nil, err
	}
	parentKey, err = s.readHandleKey(SlotParentKey)
	if err != nil {
		return nil, nil, err
	}
	return nodeKey, parentKey, nil
}

func (s *Store) readHandleKey(slot int) ([]byte, error) {
	content, err := s.GetScalar(slot)
	if IsNotFound(err) {
		return nil, opError("read handle keys", ErrNotFound, nil)
	}
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(string(content))
	if err != nil {
		return nil, fmt.Errorf("statecache: decode handle key slot %d: %w", slot, err)
	}
	return key, nil
}
