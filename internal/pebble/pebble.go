// Package pebble implements [storage.DB] on top of
// [github.com/cockroachdb/pebble], an embedded, ordered, log-structured
// key/value store. It is the on-disk engine behind a [pagedb.PageDB]: a
// pebble.DB gives every sub-database a consistent, transactionally
// updated, memory-mapped-cache-backed view of one flat ordered keyspace,
// matching the "any embedded, transactional, mmap-capable B-tree store"
// requirement without committing to a particular on-disk format.
package pebble

import (
	"bytes"
	"fmt"
	"iter"
	"log/slog"

	"github.com/cockroachdb/pebble"
	"github.com/wilwatikta/aduana-go/internal/storage"
)

// A DB is a [storage.DB] backed by a pebble.DB.
type DB struct {
	storage.MemLocker
	lg  *slog.Logger
	dir string
	pdb *pebble.DB
}

var (
	_ storage.DB          = (*DB)(nil)
	_ storage.Snapshotter = (*DB)(nil)
)

// Create creates a new, empty database at dir, which must not already
// exist, and opens it.
func Create(lg *slog.Logger, dir string) (*DB, error) {
	return open(lg, dir, &pebble.Options{ErrorIfExists: true})
}

// Open opens the existing database at dir. It returns an error if dir does
// not contain a database.
func Open(lg *slog.Logger, dir string) (*DB, error) {
	return open(lg, dir, &pebble.Options{ErrorIfNotExists: true})
}

func open(lg *slog.Logger, dir string, opts *pebble.Options) (*DB, error) {
	pdb, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", dir, err)
	}
	lg.Info("pebble open", "dir", dir)
	return &DB{lg: lg, dir: dir, pdb: pdb}, nil
}

// successor returns the shortest byte string strictly greater than key,
// for use as an exclusive upper bound where the caller's contract is
// inclusive (key <= end). Since byte strings order lexicographically, any
// string that has key as a proper prefix sorts after key, and appending a
// single zero byte produces the smallest such string.
func successor(key []byte) []byte {
	s := make([]byte, len(key)+1)
	copy(s, key)
	return s
}

func (db *DB) Close() {
	if err := db.pdb.Close(); err != nil {
		db.lg.Error("pebble close", "dir", db.dir, "err", err)
	}
}

func (db *DB) Panic(msg string, args ...any) {
	storage.Panic(msg, args...)
}

func (db *DB) Get(key []byte) (val []byte, ok bool) {
	v, closer, err := db.pdb.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false
	}
	if err != nil {
		db.Panic("pebble get %s: %v", storage.Fmt(key), err)
	}
	val = bytes.Clone(v)
	closer.Close()
	return val, true
}

func (db *DB) Scan(start, end []byte) iter.Seq2[[]byte, func() []byte] {
	return func(yield func([]byte, func() []byte) bool) {
		it, err := db.pdb.NewIter(&pebble.IterOptions{
			LowerBound: start,
			UpperBound: successor(end),
		})
		if err != nil {
			db.Panic("pebble scan: %v", err)
		}
		defer it.Close()
		for ok := it.First(); ok; ok = it.Next() {
			key := bytes.Clone(it.Key())
			val := bytes.Clone(it.Value())
			if !yield(key, func() []byte { return val }) {
				return
			}
		}
		if err := it.Error(); err != nil {
			db.Panic("pebble scan: %v", err)
		}
	}
}

func (db *DB) Set(key, val []byte) {
	if len(key) == 0 {
		db.Panic("pebble set: empty key")
	}
	if err := db.pdb.Set(key, val, pebble.Sync); err != nil {
		db.Panic("pebble set %s: %v", storage.Fmt(key), err)
	}
}

func (db *DB) Delete(key []byte) {
	if err := db.pdb.Delete(key, pebble.Sync); err != nil {
		db.Panic("pebble delete %s: %v", storage.Fmt(key), err)
	}
}

func (db *DB) DeleteRange(start, end []byte) {
	if err := db.pdb.DeleteRange(start, successor(end), pebble.Sync); err != nil {
		db.Panic("pebble deleterange: %v", err)
	}
}

func (db *DB) Batch() storage.Batch {
	return &batch{db: db, b: db.pdb.NewBatch()}
}

// Flush forces the active memtable to disk.
func (db *DB) Flush() {
	if err := db.pdb.Flush(); err != nil {
		db.Panic("pebble flush: %v", err)
	}
}

func (db *DB) NewSnapshot() storage.Snapshot {
	return &snapshot{snap: db.pdb.NewSnapshot(), db: db}
}

type snapshot struct {
	snap *pebble.Snapshot
	db   *DB
}

func (s *snapshot) Scan(start, end []byte) iter.Seq2[[]byte, func() []byte] {
	return func(yield func([]byte, func() []byte) bool) {
		it, err := s.snap.NewIter(&pebble.IterOptions{
			LowerBound: start,
			UpperBound: successor(end),
		})
		if err != nil {
			s.db.Panic("pebble snapshot scan: %v", err)
		}
		defer it.Close()
		for ok := it.First(); ok; ok = it.Next() {
			key := bytes.Clone(it.Key())
			val := bytes.Clone(it.Value())
			if !yield(key, func() []byte { return val }) {
				return
			}
		}
		if err := it.Error(); err != nil {
			s.db.Panic("pebble snapshot scan: %v", err)
		}
	}
}

func (s *snapshot) Close() {
	s.snap.Close()
}

// maxBatchBytes is the size at which [batch.MaybeApply] commits the batch
// so far and starts a fresh one, bounding memory use during a bulk load.
const maxBatchBytes = 16 << 20

type batch struct {
	db *DB
	b  *pebble.Batch
}

func (bt *batch) Set(key, val []byte) {
	if len(key) == 0 {
		bt.db.Panic("pebble batch set: empty key")
	}
	if err := bt.b.Set(key, val, nil); err != nil {
		bt.db.Panic("pebble batch set %s: %v", storage.Fmt(key), err)
	}
}

func (bt *batch) Delete(key []byte) {
	if err := bt.b.Delete(key, nil); err != nil {
		bt.db.Panic("pebble batch delete %s: %v", storage.Fmt(key), err)
	}
}

func (bt *batch) DeleteRange(start, end []byte) {
	if err := bt.b.DeleteRange(start, successor(end), nil); err != nil {
		bt.db.Panic("pebble batch deleterange: %v", err)
	}
}

func (bt *batch) MaybeApply() bool {
	if bt.b.Len() < maxBatchBytes {
		return false
	}
	bt.Apply()
	return true
}

func (bt *batch) Apply() {
	if err := bt.b.Commit(pebble.Sync); err != nil {
		bt.db.Panic("pebble batch commit: %v", err)
	}
	bt.b = bt.db.pdb.NewBatch()
}
