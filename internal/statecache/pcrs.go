package statecache

import (
	"database/sql"
	"errors"
	"fmt"
)

// PutPendingRequest upserts a pending contact request row by request id.
func (s *Store) PutPendingRequest(id int64, payload []byte) error {
	run, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := run.Exec(
		"INSERT OR REPLACE INTO pcrs (id, pcr) VALUES (?, ?)",
		id, payload,
	); err != nil {
		return opError(fmt.Sprintf("put pending request %d", id), ErrWriteFailed, err)
	}
	return nil
}

// GetPendingRequest returns the payload stored for a pending contact
// request id.
func (s *Store) GetPendingRequest(id int64) ([]byte, error) {
	run, err := s.runner()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = run.QueryRow("SELECT pcr FROM pcrs WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, opError(fmt.Sprintf("get pending request %d", id), ErrNotFound, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("statecache: get pending request %d: %w", id, err)
	}
	return payload, nil
}

// DeletePendingRequest removes a pending contact request row. Deleting an
// absent id is not an error.
func (s *Store) DeletePendingRequest(id int64) error {
	run, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := run.Exec("DELETE FROM pcrs WHERE id = ?", id); err != nil {
		return opError(fmt.Sprintf("delete pending request %d", id), ErrWriteFailed, err)
	}
	return nil
}

// PendingRequests opens a cursor over every stored pending contact request
// payload.
func (s *Store) PendingRequests() (*PayloadCursor, error) {
	return s.openPayloadCursor("SELECT pcr FROM pcrs")
}
