package statecache

// Begin opens an explicit transaction. Every put and delete issued until
// Commit or Abort rides the engine's native transaction and becomes durable
// only on Commit. The store never auto-begins: outside an explicit
// transaction each write is its own atomic unit, so callers applying one
// sync delta across several rows must bracket it themselves.
//
// Nested Begin is rejected with ErrAlreadyInTransaction.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.tx != nil {
		return ErrAlreadyInTransaction
	}
	tx, err := s.db.Begin()
	if err != nil {
		return opError("begin", ErrWriteFailed, err)
	}
	s.tx = tx
	return nil
}

// Commit makes the open transaction's writes durable.
// Returns ErrNoActiveTransaction if no transaction is open.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.tx == nil {
		return ErrNoActiveTransaction
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return opError("commit", ErrWriteFailed, err)
	}
	return nil
}

// Abort discards the open transaction's writes.
// Returns ErrNoActiveTransaction if no transaction is open.
func (s *Store) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.tx == nil {
		return ErrNoActiveTransaction
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil {
		return opError("abort", ErrWriteFailed, err)
	}
	return nil
}

// InTransaction reports whether an explicit transaction is open.
func (s *Store) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}
