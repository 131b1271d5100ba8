package storage

import "testing"

func TestMemDB(t *testing.T) {
	TestDB(t, MemDB())
}

func TestMemDBLock(t *testing.T) {
	TestDBLock(t, MemDB())
}
