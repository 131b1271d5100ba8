package storage

import (
	"maps"
	"slices"
	"sync"
	"testing"

	"rsc.io/ordered"
)

// TestDB runs a battery of generic tests against a freshly constructed,
// empty DB. It is meant to be called from each implementation's own test
// file, for example:
//
//	func TestMemDB(t *testing.T) {
//		storage.TestDB(t, storage.MemDB())
//	}
func TestDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("GetSetDelete", func(t *testing.T) {
		k := ordered.Encode("TestDB", "k1")
		if _, ok := db.Get(k); ok {
			t.Fatalf("Get on empty db returned ok=true")
		}
		db.Set(k, []byte("v1"))
		v, ok := db.Get(k)
		if !ok || string(v) != "v1" {
			t.Fatalf("Get after Set = %q, %v, want v1, true", v, ok)
		}
		db.Set(k, []byte("v2"))
		v, ok = db.Get(k)
		if !ok || string(v) != "v2" {
			t.Fatalf("Get after overwrite = %q, %v, want v2, true", v, ok)
		}
		db.Delete(k)
		if _, ok := db.Get(k); ok {
			t.Fatalf("Get after Delete returned ok=true")
		}
	})

	t.Run("EmptyKeyPanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatalf("Set with empty key did not panic")
			}
		}()
		db.Set(nil, []byte("v"))
	})

	t.Run("Scan", func(t *testing.T) {
		prefix := ordered.Encode("TestDBScan")
		want := map[string]string{}
		for i := 0; i < 10; i++ {
			k := ordered.Encode("TestDBScan", int64(i))
			v := ordered.Encode(int64(i * i))
			db.Set(k, v)
			want[string(k)] = string(v)
		}
		got := map[string]string{}
		end := append(slices.Clone(prefix), ordered.Encode(ordered.Inf)...)
		for k, vf := range db.Scan(prefix, end) {
			got[string(k)] = string(vf())
		}
		if !maps.Equal(got, want) {
			t.Fatalf("Scan returned %v, want %v", got, want)
		}
		db.DeleteRange(prefix, end)
		for range db.Scan(prefix, end) {
			t.Fatalf("entries remain after DeleteRange")
		}
	})

	t.Run("BatchAtomic", func(t *testing.T) {
		prefix := ordered.Encode("TestDBBatch")
		end := append(slices.Clone(prefix), ordered.Encode(ordered.Inf)...)
		b := db.Batch()
		for i := 0; i < 5; i++ {
			b.Set(ordered.Encode("TestDBBatch", int64(i)), []byte("x"))
		}
		var n int
		for range db.Scan(prefix, end) {
			n++
		}
		if n != 0 {
			t.Fatalf("entries visible before Apply: %d", n)
		}
		b.Apply()
		n = 0
		for range db.Scan(prefix, end) {
			n++
		}
		if n != 5 {
			t.Fatalf("entries after Apply = %d, want 5", n)
		}
		db.DeleteRange(prefix, end)
	})

	t.Run("BatchDeleteAndDeleteRange", func(t *testing.T) {
		prefix := ordered.Encode("TestDBBatchDel")
		end := append(slices.Clone(prefix), ordered.Encode(ordered.Inf)...)
		for i := 0; i < 3; i++ {
			db.Set(ordered.Encode("TestDBBatchDel", int64(i)), []byte("x"))
		}
		b := db.Batch()
		b.Delete(ordered.Encode("TestDBBatchDel", int64(0)))
		b.DeleteRange(ordered.Encode("TestDBBatchDel", int64(1)), end)
		b.Apply()
		for range db.Scan(prefix, end) {
			t.Fatalf("entries remain after batched delete+deleterange")
		}
	})

	if s, ok := db.(Snapshotter); ok {
		t.Run("Snapshot", func(t *testing.T) {
			prefix := ordered.Encode("TestDBSnap")
			end := append(slices.Clone(prefix), ordered.Encode(ordered.Inf)...)
			db.Set(ordered.Encode("TestDBSnap", int64(0)), []byte("before"))
			snap := s.NewSnapshot()
			defer snap.Close()

			db.Set(ordered.Encode("TestDBSnap", int64(0)), []byte("after"))
			db.Set(ordered.Encode("TestDBSnap", int64(1)), []byte("new"))

			var got []string
			for _, vf := range snap.Scan(prefix, end) {
				got = append(got, string(vf()))
			}
			if len(got) != 1 || got[0] != "before" {
				t.Fatalf("snapshot scan = %v, want [before]", got)
			}
			db.DeleteRange(prefix, end)
		})
	}
}

// TestDBLock runs a battery of generic tests against the locking behavior
// of a freshly constructed DB.
func TestDBLock(t *testing.T, db DB) {
	t.Helper()

	t.Run("LockUnlock", func(t *testing.T) {
		db.Lock("l1")
		db.Unlock("l1")
	})

	t.Run("UnlockWithoutLockPanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatalf("Unlock of never-locked name did not panic")
			}
		}()
		db.Unlock("never-locked")
	})

	t.Run("Mutual Exclusion", func(t *testing.T) {
		db.Lock("l2")
		var mu sync.Mutex
		entered := false
		done := make(chan struct{})
		go func() {
			db.Lock("l2")
			mu.Lock()
			entered = true
			mu.Unlock()
			db.Unlock("l2")
			close(done)
		}()

		mu.Lock()
		e := entered
		mu.Unlock()
		if e {
			t.Fatalf("second Lock succeeded while first held")
		}
		db.Unlock("l2")
		<-done
	})
}
