// Package storage defines the ordered key/value store abstraction used by
// [github.com/wilwatikta/aduana-go/internal/pagedb] to hold its six
// sub-databases.
//
// A DB is a single flat, lexicographically ordered byte-string keyspace.
// Callers partition the keyspace into logical sub-databases by prefixing
// keys with a short tag encoded with [rsc.io/ordered], the same technique
// used throughout this package's implementations to keep multiple logical
// tables inside one physical store.
package storage

import (
	"encoding/json"
	"fmt"
	"iter"

	"rsc.io/ordered"
)

// A DB is a transactional, ordered key/value store.
//
// Single-key operations (Get, Set, Delete, DeleteRange) take effect
// immediately. Multi-key atomic updates go through [DB.Batch].
//
// Implementations must support any number of concurrent readers together
// with at most one in-progress batch commit, matching the single-writer,
// multi-reader model of an embedded mmap-backed store such as LMDB or
// Pebble.
type DB interface {
	// Get returns the value associated with key, or ok=false if absent.
	Get(key []byte) (val []byte, ok bool)

	// Scan returns an iterator over all key/value pairs with
	// start <= key <= end, in ascending key order. The value is returned
	// as a function so that scans that only need keys can avoid the cost
	// of reading values they never call.
	Scan(start, end []byte) iter.Seq2[[]byte, func() []byte]

	// Set sets the value associated with key to val, creating the entry
	// if it does not already exist.
	Set(key, val []byte)

	// Delete deletes the entry with the given key, if any.
	Delete(key []byte)

	// DeleteRange deletes every entry with start <= key <= end.
	DeleteRange(start, end []byte)

	// Batch returns a new, empty [Batch] for accumulating a group of
	// mutations that should apply atomically.
	Batch() Batch

	// Lock acquires a named lock, blocking until it is available.
	// Locks are local to one DB value (and, for the Pebble implementation,
	// to one process); they do not coordinate across processes.
	Lock(name string)

	// Unlock releases a named lock acquired with Lock.
	// It panics if name is not currently locked by this DB.
	Unlock(name string)

	// Flush forces any buffered writes to persistent storage.
	Flush()

	// Close releases all resources held by the DB. Close invalidates any
	// cursor or snapshot still open over the DB; callers must close those
	// first.
	Close()

	// Panic reports an unrecoverable internal error, such as data
	// corruption discovered while decoding a stored record. The default
	// behavior is to panic with msg and args formatted as with
	// [fmt.Sprintf]; Panic exists as a method (rather than a bare
	// package-level panic) so tests can substitute a recoverable stand-in.
	Panic(msg string, args ...any)
}

// A Batch accumulates a group of mutations that are applied to a [DB] as a
// single atomic unit when Apply is called.
type Batch interface {
	// Set adds a Set mutation to the batch.
	Set(key, val []byte)

	// Delete adds a Delete mutation to the batch.
	Delete(key []byte)

	// DeleteRange adds a DeleteRange mutation to the batch.
	DeleteRange(start, end []byte)

	// MaybeApply calls Apply if the batch has grown large enough that it
	// should be flushed before continuing to accumulate more operations.
	// It reports whether it called Apply. Callers doing a bulk load that
	// does not require the entire load to be one atomic transaction
	// should call MaybeApply periodically to bound memory use.
	MaybeApply() bool

	// Apply applies all batched mutations as a single atomic transaction
	// and resets the batch to empty.
	Apply()
}

// A Snapshot is a long-lived, read-only view of a DB as of the moment it
// was created. Writes made to the DB after the snapshot was taken are not
// visible through it. [pagedb.LinkStream] uses a Snapshot so that a single
// pass over the links sub-database sees a consistent view even while the
// writer continues to call [pagedb.PageDB.Add].
type Snapshot interface {
	// Scan returns an iterator over all key/value pairs with
	// start <= key <= end, as of the moment the snapshot was created.
	Scan(start, end []byte) iter.Seq2[[]byte, func() []byte]

	// Close releases the snapshot. A Snapshot must be closed before the
	// DB it was taken from is closed.
	Close()
}

// A Snapshotter is implemented by [DB] values that can produce a
// [Snapshot]. The in-memory DB returned by [MemDB] and the Pebble-backed
// DB implement it; the overlay DB returned by [NewOverlayDB] does not, so
// this is a separate, optional interface rather than part of DB itself.
type Snapshotter interface {
	NewSnapshot() Snapshot
}

// Panic is the default implementation of [DB.Panic]: it panics with msg
// and args formatted as with [fmt.Sprintf].
func Panic(msg string, args ...any) {
	panic(fmt.Sprintf(msg, args...))
}

// Fmt formats an ordered-encoded key or value for use in error messages and
// logging, falling back to a quoted string if b does not decode as
// [rsc.io/ordered] data.
func Fmt(b []byte) string {
	if s, err := ordered.DecodeFmt(b); err == nil {
		return s
	}
	return fmt.Sprintf("%q", b)
}

// JSON marshals v to JSON, panicking if it cannot (which should only
// happen for a programmer error such as a type with a cyclic value or an
// unsupported field type).
func JSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("storage.JSON: %v", err))
	}
	return data
}
