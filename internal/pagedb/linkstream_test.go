package pagedb

import (
	"testing"

	"github.com/wilwatikta/aduana-go/internal/storage"
	"github.com/wilwatikta/aduana-go/internal/testutil"
)

func TestLinkStreamIsolatedFromConcurrentWrites(t *testing.T) {
	pdb := New(testutil.Slogger(t), storage.MemDB())

	p1 := NewCrawledPage("http://a", 1000, 0.5)
	p1.AddLink("http://b", 0.1)
	testutil.Check(t, addOK(t, pdb, p1))

	ls := pdb.NewLinkStream()
	defer ls.Close()

	p2 := NewCrawledPage("http://c", 1000, 0.5)
	p2.AddLink("http://d", 0.1)
	testutil.Check(t, addOK(t, pdb, p2))

	var edges []LinkEdge
	var e LinkEdge
	for ls.Next(&e) == StateNext {
		edges = append(edges, e)
	}
	if len(edges) != 1 {
		t.Fatalf("stream opened before the second Add saw %d edges, want 1 (isolated from the write that followed)", len(edges))
	}
}

func TestLinkStreamEmptyDatabase(t *testing.T) {
	pdb := New(testutil.Slogger(t), storage.MemDB())
	ls := pdb.NewLinkStream()
	defer ls.Close()
	var e LinkEdge
	if state := ls.Next(&e); state != StateEnd {
		t.Fatalf("Next on empty database = %v, want StateEnd", state)
	}
}
