package statecache

import (
	"errors"
	"fmt"
)

// Error kinds returned by store operations. Callers match these with
// errors.Is; StoreError carries the kind plus the failing operation and the
// underlying engine error.
var (
	// ErrOpenFailed indicates the backing database could not be opened or
	// created.
	ErrOpenFailed = errors.New("open failed")

	// ErrInitFailed indicates first-time key generation or persistence
	// failed. Open returns no store in that case.
	ErrInitFailed = errors.New("first-time initialization failed")

	// ErrNotFound indicates the requested scalar or record is absent.
	// This is a presence-check result, not a failure condition.
	ErrNotFound = errors.New("not found")

	// ErrWriteFailed indicates an insert, replace or delete statement
	// failed.
	ErrWriteFailed = errors.New("write failed")

	// ErrStoreClosed indicates the store has been closed or removed.
	// Every operation on a closed store fails with this error.
	ErrStoreClosed = errors.New("store closed")

	// ErrAlreadyInTransaction indicates Begin while a transaction is open.
	ErrAlreadyInTransaction = errors.New("transaction already active")

	// ErrNoActiveTransaction indicates Commit or Abort without Begin.
	ErrNoActiveTransaction = errors.New("no active transaction")
)

// StoreError couples a failing operation with its error kind and the
// underlying engine error, if any. It unwraps to both, so
// errors.Is(err, ErrWriteFailed) and errors.Is(err, sqlite3.ErrBusy)-style
// checks both work on the same value.
type StoreError struct {
	Op   string // operation, e.g. "put node"
	Kind error  // one of the sentinel kinds above
	Err  error  // underlying cause (may be nil)
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("statecache: %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("statecache: %s: %v", e.Op, e.Kind)
}

func (e *StoreError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func opError(op string, kind, err error) error {
	return &StoreError{Op: op, Kind: kind, Err: err}
}

// IsNotFound reports whether err is an absence result.
// Uses errors.Is to handle wrapped errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
