package statecache

import (
	"database/sql"
	"errors"
	"fmt"
)

// PutUser upserts a user row by user handle. The payload is the caller's
// serialized user record.
func (s *Store) PutUser(handle int64, payload []byte) error {
	run, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := run.Exec(
		"INSERT OR REPLACE INTO users (userhandle, user) VALUES (?, ?)",
		handle, payload,
	); err != nil {
		return opError(fmt.Sprintf("put user %d", handle), ErrWriteFailed, err)
	}
	return nil
}

// GetUser returns the payload stored for a user handle.
func (s *Store) GetUser(handle int64) ([]byte, error) {
	run, err := s.runner()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = run.QueryRow("SELECT user FROM users WHERE userhandle = ?", handle).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, opError(fmt.Sprintf("get user %d", handle), ErrNotFound, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("statecache: get user %d: %w", handle, err)
	}
	return payload, nil
}

// DeleteUser removes a user row. Deleting an absent handle is not an error.
func (s *Store) DeleteUser(handle int64) error {
	run, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := run.Exec("DELETE FROM users WHERE userhandle = ?", handle); err != nil {
		return opError(fmt.Sprintf("delete user %d", handle), ErrWriteFailed, err)
	}
	return nil
}

// Users opens a cursor over every stored user payload.
func (s *Store) Users() (*PayloadCursor, error) {
	return s.openPayloadCursor("SELECT user FROM users")
}
