package storage

import (
	"bytes"
	"iter"
	"sort"
	"sync"

	"rsc.io/omap"
	"rsc.io/ordered"
)

// A MemLocker is a single-process implementation of [DB.Lock] and
// [DB.Unlock], suitable when only one process accesses the database at a
// time.
//
// The zero value for a MemLocker is valid and holds no locks. It must not
// be copied after first use.
type MemLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock locks the mutex with the given name.
func (l *MemLocker) Lock(name string) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	mu := l.locks[name]
	if mu == nil {
		mu = new(sync.Mutex)
		l.locks[name] = mu
	}
	l.mu.Unlock()

	mu.Lock()
}

// Unlock unlocks the mutex with the given name.
func (l *MemLocker) Unlock(name string) {
	l.mu.Lock()
	mu := l.locks[name]
	l.mu.Unlock()
	if mu == nil {
		panic("storage: Unlock of never-locked key")
	}
	mu.Unlock()
}

// MemDB returns an in-memory [DB] implementation. It is used by the "mem"
// [dbspec] kind and by tests that do not need the database to survive the
// process exiting.
func MemDB() DB {
	return new(memDB)
}

type memDB struct {
	MemLocker
	mu   sync.RWMutex
	data omap.Map[string, []byte]
}

func (*memDB) Close() {}

func (*memDB) Panic(msg string, args ...any) {
	Panic(msg, args...)
}

func (db *memDB) Get(key []byte) (val []byte, ok bool) {
	db.mu.RLock()
	v, ok := db.data.Get(string(key))
	db.mu.RUnlock()
	if ok {
		v = bytes.Clone(v)
	}
	return v, ok
}

func (db *memDB) Scan(start, end []byte) iter.Seq2[[]byte, func() []byte] {
	lo := string(start)
	hi := string(end)
	return func(yield func(key []byte, val func() []byte) bool) {
		db.mu.RLock()
		locked := true
		defer func() {
			if locked {
				db.mu.RUnlock()
			}
		}()
		for k, v := range db.data.Scan(lo, hi) {
			key := []byte(k)
			val := func() []byte { return bytes.Clone(v) }
			db.mu.RUnlock()
			locked = false
			if !yield(key, val) {
				return
			}
			db.mu.RLock()
			locked = true
		}
	}
}

func (db *memDB) Delete(key []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.Delete(string(key))
}

func (db *memDB) DeleteRange(start, end []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.DeleteRange(string(start), string(end))
}

func (db *memDB) Set(key, val []byte) {
	if len(key) == 0 {
		db.Panic("memdb set: empty key")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.Set(string(key), bytes.Clone(val))
}

func (db *memDB) Batch() Batch {
	return &memBatch{db: db}
}

// Flush is a no-op: the in-memory database is as persistent as it gets.
func (db *memDB) Flush() {}

// memDBMax is an upper bound that sorts after every key memDB expects to
// store, since every key stored through [pagedb] is encoded with
// [rsc.io/ordered], and ordered.Inf encodes larger than any other value.
var memDBMax = ordered.Encode(ordered.Inf)

type memKV struct {
	key, val []byte
}

// NewSnapshot implements [Snapshotter]. Since memDB is meant for tests and
// small databases, the snapshot is simply a frozen copy of every entry at
// the moment it is taken.
func (db *memDB) NewSnapshot() Snapshot {
	var entries []memKV
	for k, vf := range db.Scan(nil, memDBMax) {
		entries = append(entries, memKV{bytes.Clone(k), vf()})
	}
	return &memSnapshot{entries: entries}
}

type memSnapshot struct {
	entries []memKV
}

func (s *memSnapshot) Scan(start, end []byte) iter.Seq2[[]byte, func() []byte] {
	lo := sort.Search(len(s.entries), func(i int) bool {
		return bytes.Compare(s.entries[i].key, start) >= 0
	})
	return func(yield func([]byte, func() []byte) bool) {
		for i := lo; i < len(s.entries); i++ {
			e := s.entries[i]
			if bytes.Compare(e.key, end) > 0 {
				return
			}
			if !yield(e.key, func() []byte { return e.val }) {
				return
			}
		}
	}
}

func (s *memSnapshot) Close() {}

type memBatch struct {
	db  *memDB
	ops []func()
}

func (b *memBatch) Set(key, val []byte) {
	if len(key) == 0 {
		b.db.Panic("memdb batch set: empty key")
	}
	k := string(key)
	v := bytes.Clone(val)
	b.ops = append(b.ops, func() { b.db.data.Set(k, v) })
}

func (b *memBatch) Delete(key []byte) {
	k := string(key)
	b.ops = append(b.ops, func() { b.db.data.Delete(k) })
}

func (b *memBatch) DeleteRange(start, end []byte) {
	s := string(start)
	e := string(end)
	b.ops = append(b.ops, func() { b.db.data.DeleteRange(s, e) })
}

func (b *memBatch) MaybeApply() bool {
	return false
}

func (b *memBatch) Apply() {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, op := range b.ops {
		op()
	}
	b.ops = nil
}
