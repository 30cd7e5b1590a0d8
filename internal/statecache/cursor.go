package statecache

import (
	"fmt"
)

// cursorBase owns one forward-only scan. Cursors are independent handles:
// any number may be open concurrently and none is invalidated by opening
// another.
//
// A cursor is finite and not restartable: once exhausted its scan resource
// is released and a fresh cursor must be created to scan again. Rows
// committed mid-scan may or may not appear - no snapshot isolation is
// guaranteed.
type cursorBase struct {
	store *Store
	rows  rowScanner
	done  bool
}

// rowScanner is the slice of *sql.Rows the cursor uses.
type rowScanner interface {
	Next() bool
	Err() error
	Scan(dest ...any) error
	Close() error
}

// Close releases the cursor's scan resource early. Closing an exhausted or
// already-closed cursor is a no-op.
func (c *cursorBase) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	err := c.rows.Close()
	c.store.forget(c)
	return err
}

// step advances the underlying scan. On exhaustion or scan error the
// resource is released and the cursor stays done.
func (c *cursorBase) step() (bool, error) {
	if c.done {
		return false, nil
	}
	if c.rows.Next() {
		return true, nil
	}
	err := c.rows.Err()
	c.done = true
	c.rows.Close()
	c.store.forget(c)
	if err != nil {
		return false, fmt.Errorf("statecache: cursor advance: %w", err)
	}
	return false, nil
}

func (c *cursorBase) fail(op string, err error) error {
	c.done = true
	c.rows.Close()
	c.store.forget(c)
	return fmt.Errorf("statecache: %s: %w", op, err)
}

// PayloadCursor yields full record payloads (users, pending contact
// requests). Next returns ok=false with a nil error once the sequence is
// exhausted; subsequent calls keep returning exhausted.
type PayloadCursor struct {
	*cursorBase
}

// Next returns the next payload. ok is false on exhaustion.
func (c *PayloadCursor) Next() (payload []byte, ok bool, err error) {
	advanced, err := c.step()
	if err != nil || !advanced {
		return nil, false, err
	}
	if err := c.rows.Scan(&payload); err != nil {
		return nil, false, c.fail("scan payload", err)
	}
	return payload, true, nil
}

// HandleCursor yields node handles (child, outshare and pending-share
// enumerations). Next returns ok=false with a nil error once the sequence is
// exhausted; subsequent calls keep returning exhausted.
type HandleCursor struct {
	*cursorBase
}

// Next returns the next node handle. ok is false on exhaustion.
func (c *HandleCursor) Next() (handle int64, ok bool, err error) {
	advanced, err := c.step()
	if err != nil || !advanced {
		return 0, false, err
	}
	if err := c.rows.Scan(&handle); err != nil {
		return 0, false, c.fail("scan handle", err)
	}
	return handle, true, nil
}

func (s *Store) openPayloadCursor(q string, args ...any) (*PayloadCursor, error) {
	base, err := s.openCursor(q, args...)
	if err != nil {
		return nil, err
	}
	return &PayloadCursor{cursorBase: base}, nil
}

func (s *Store) openHandleCursor(q string, args ...any) (*HandleCursor, error) {
	base, err := s.openCursor(q, args...)
	if err != nil {
		return nil, err
	}
	return &HandleCursor{cursorBase: base}, nil
}

// openCursor always reads through the connection pool, never through an open
// write transaction: cursors see committed data only, and a long scan cannot
// wedge the single writer.
func (s *Store) openCursor(q string, args ...any) (*cursorBase, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	db := s.db
	s.mu.Unlock()

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("statecache: open cursor: %w", err)
	}

	c := &cursorBase{store: s, rows: rows}
	s.track(c)
	return c, nil
}

func (s *Store) track(c *cursorBase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursors == nil {
		// Store was finalized between query and registration; release.
		c.done = true
		c.rows.Close()
		return
	}
	s.cursors[c] = struct{}{}
}

func (s *Store) forget(c *cursorBase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursors != nil {
		delete(s.cursors, c)
	}
}
