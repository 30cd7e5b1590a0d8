// Package statecache provides the SQLite-backed persistent cache a sync
// client uses to resume its remote tree state across restarts.
//
// One store exists per account scope, each backed by its own database file.
// The store persists four logical tables:
//   - Scalar slots: single-row bookkeeping values (sync sequence marker,
//     root node handles, handle-obfuscation key material)
//   - Nodes: serialized node payloads keyed by node handle
//   - Users: serialized user payloads keyed by user handle
//   - Pending contact requests: serialized payloads keyed by request id
//
// Payloads are opaque: the sync engine above this layer owns their meaning.
// The store interprets exactly two discriminators - a NULL fingerprint marks
// a folder, and a non-NULL attrstring marks a node whose attributes are
// still server-side encrypted.
//
// # Lifecycle
//
// A store is Open until Close or Remove. Every operation on a closed store
// fails fast with ErrStoreClosed; there are no silent no-ops. Remove also
// unlinks the backing file, after which the account must be re-initialized
// from a full sync.
//
// # Concurrency
//
// Mutations assume serialized calls from one owning goroutine. Read cursors
// are independent handles: any number may be open at once, each owning its
// own pooled connection, and WAL mode lets them proceed alongside the single
// writer. Cursors read committed data only - rows written inside an open
// transaction become visible to cursors after Commit.
package statecache
