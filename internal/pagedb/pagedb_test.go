package pagedb

import (
	"testing"

	"github.com/wilwatikta/aduana-go/internal/storage"
	"github.com/wilwatikta/aduana-go/internal/testutil"
)

func newTestDB(t *testing.T) *PageDB {
	t.Helper()
	return New(testutil.Slogger(t), storage.MemDB())
}

// S1: fresh insert.
func TestAddFreshInsert(t *testing.T) {
	pdb := newTestDB(t)
	page := NewCrawledPage("http://a", 1000, 0.5)
	page.SetContentHash32(0xAA)
	page.AddLink("http://b", 0.1)

	touched, err := pdb.Add(page)
	if err != nil {
		t.Fatal(err)
	}
	if len(touched) != 2 {
		t.Fatalf("touched = %d entries, want 2", len(touched))
	}
	if got := pdb.N(); got != 2 {
		t.Fatalf("N() = %d, want 2", got)
	}

	idxA, err := pdb.GetIdx("http://a")
	testutil.Check(t, err)
	idxB, err := pdb.GetIdx("http://b")
	testutil.Check(t, err)
	if idxA != 0 || idxB != 1 {
		t.Fatalf("idx(a)=%d idx(b)=%d, want 0, 1", idxA, idxB)
	}

	infoB, ok, err := pdb.GetInfoFromURL("http://b")
	testutil.Check(t, err)
	if !ok || infoB.NCrawls != 0 {
		t.Fatalf("PageInfo(b) = %+v, ok=%v, want NCrawls=0", infoB, ok)
	}

	edges := drain(t, pdb)
	if len(edges) != 1 || edges[0] != (LinkEdge{From: 0, To: 1}) {
		t.Fatalf("links[0] = %v, want [{0 1}]", edges)
	}
}

// S2: recrawl unchanged.
func TestAddRecrawlUnchanged(t *testing.T) {
	pdb := newTestDB(t)
	page := NewCrawledPage("http://a", 1000, 0.5)
	page.SetContentHash32(0xAA)
	testutil.Check(t, addOK(t, pdb, page))

	page2 := NewCrawledPage("http://a", 2000, 0.6)
	page2.SetContentHash32(0xAA)
	testutil.Check(t, addOK(t, pdb, page2))

	info, ok, err := pdb.GetInfoFromURL("http://a")
	testutil.Check(t, err)
	if !ok {
		t.Fatal("missing PageInfo")
	}
	if info.NCrawls != 2 || info.NChanges != 0 || info.FirstCrawl != 1000 || info.LastCrawl != 2000 {
		t.Fatalf("info = %+v, want NCrawls=2 NChanges=0 FirstCrawl=1000 LastCrawl=2000", info)
	}
}

// S3: recrawl changed.
func TestAddRecrawlChanged(t *testing.T) {
	pdb := newTestDB(t)
	page := NewCrawledPage("http://a", 1000, 0.5)
	page.SetContentHash32(0xAA)
	testutil.Check(t, addOK(t, pdb, page))

	page2 := NewCrawledPage("http://a", 2000, 0.5)
	page2.SetContentHash32(0xAA)
	testutil.Check(t, addOK(t, pdb, page2))

	page3 := NewCrawledPage("http://a", 3000, 0.5)
	page3.SetContentHash32(0xBB)
	testutil.Check(t, addOK(t, pdb, page3))

	info, ok, err := pdb.GetInfoFromURL("http://a")
	testutil.Check(t, err)
	if !ok {
		t.Fatal("missing PageInfo")
	}
	if info.NCrawls != 3 || info.NChanges != 1 {
		t.Fatalf("info = %+v, want NCrawls=3 NChanges=1", info)
	}
	if want := []byte{0xBB, 0, 0, 0}; string(info.ContentHash) != string(want) {
		t.Fatalf("ContentHash = %x, want %x", info.ContentHash, want)
	}
}

// S4: self-loop dropped.
func TestAddSelfLoopDropped(t *testing.T) {
	pdb := newTestDB(t)
	page := NewCrawledPage("http://c", 1000, 0.5)
	page.AddLink("http://c", 0.1)
	testutil.Check(t, addOK(t, pdb, page))

	idxC, err := pdb.GetIdx("http://c")
	testutil.Check(t, err)

	edges := drain(t, pdb)
	for _, e := range edges {
		if e.From == idxC && e.To == idxC {
			t.Fatalf("self-loop present in links: %v", e)
		}
	}
	if len(edges) != 0 {
		t.Fatalf("links = %v, want none", edges)
	}
}

// S5: stream yields edges from both directions.
func TestAddStreamBothDirections(t *testing.T) {
	pdb := newTestDB(t)
	a := NewCrawledPage("http://a", 1000, 0.5)
	a.AddLink("http://b", 0.1)
	testutil.Check(t, addOK(t, pdb, a))

	b := NewCrawledPage("http://b", 1000, 0.5)
	b.AddLink("http://a", 0.1)
	testutil.Check(t, addOK(t, pdb, b))

	idxA, _ := pdb.GetIdx("http://a")
	idxB, _ := pdb.GetIdx("http://b")

	edges := drain(t, pdb)
	want := map[LinkEdge]bool{{idxA, idxB}: true, {idxB, idxA}: true}
	if len(edges) != 2 {
		t.Fatalf("edges = %v, want 2 entries", edges)
	}
	for _, e := range edges {
		if !want[e] {
			t.Fatalf("unexpected edge %v", e)
		}
	}
}

// S6: rate estimate.
func TestRateEstimate(t *testing.T) {
	pi := &PageInfo{FirstCrawl: 0, LastCrawl: 100, NCrawls: 3, NChanges: 2}
	if got := pi.Rate(); got < 0.019 || got > 0.021 {
		t.Fatalf("Rate() = %v, want ~0.02", got)
	}
}

// Invariant: the link stream, when drained, reset, and drained again,
// yields the same multiset both times.
func TestLinkStreamResetYieldsSameMultiset(t *testing.T) {
	pdb := newTestDB(t)
	for i, target := range []string{"http://b", "http://c"} {
		p := NewCrawledPage("http://a", float64(1000+i), 0.5)
		p.AddLink(target, 0.1)
		testutil.Check(t, addOK(t, pdb, p))
	}

	ls := pdb.NewLinkStream()
	defer ls.Close()
	var first, second []LinkEdge
	var e LinkEdge
	for ls.Next(&e) == StateNext {
		first = append(first, e)
	}
	ls.Reset()
	for ls.Next(&e) == StateNext {
		second = append(second, e)
	}
	if len(first) != len(second) {
		t.Fatalf("first drain had %d edges, second (after reset) had %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("edge %d: first drain %v, second (after reset) %v", i, first[i], second[i])
		}
	}
}

// A page linking to the same URL twice (feed extraction does not dedup
// hrefs) must still allocate only one index for that target, and every
// index written to links must resolve back through hash2idx.
func TestAddDuplicateLinkAllocatesOneIndex(t *testing.T) {
	pdb := newTestDB(t)
	page := NewCrawledPage("http://a", 1000, 0.5)
	page.AddLink("http://b", 0.1)
	page.AddLink("http://b", 0.1)
	testutil.Check(t, addOK(t, pdb, page))

	if got := pdb.N(); got != 2 {
		t.Fatalf("N() = %d, want 2 (http://a and http://b)", got)
	}

	idxB, err := pdb.GetIdx("http://b")
	testutil.Check(t, err)

	edges := drain(t, pdb)
	if len(edges) != 2 {
		t.Fatalf("links = %v, want 2 edges (one per declared link)", edges)
	}
	for _, e := range edges {
		if e.To != idxB {
			t.Fatalf("edge %v targets index %d, want %d (hash2idx for http://b)", e, e.To, idxB)
		}
	}

	infoB, ok, err := pdb.GetInfoFromURL("http://b")
	testutil.Check(t, err)
	if !ok {
		t.Fatal("missing PageInfo for http://b")
	}
	if infoB.NCrawls != 0 {
		t.Fatalf("PageInfo(b).NCrawls = %d, want 0 (never crawled, only linked to)", infoB.NCrawls)
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	pdb := NewReadOnly(testutil.Slogger(t), storage.MemDB())

	if _, err := pdb.Add(NewCrawledPage("http://a", 1000, 0.5)); err == nil {
		t.Fatal("Add on a read-only PageDB succeeded, want error")
	}
	if err := pdb.UpdateHits(func(*LinkStream, uint64) (map[uint64]float64, error) {
		t.Fatal("compute should not run on a read-only PageDB")
		return nil, nil
	}); err == nil {
		t.Fatal("UpdateHits on a read-only PageDB succeeded, want error")
	}
	if err := pdb.UpdatePageRank(func(*LinkStream, uint64) (map[uint64]float64, error) {
		t.Fatal("compute should not run on a read-only PageDB")
		return nil, nil
	}); err == nil {
		t.Fatal("UpdatePageRank on a read-only PageDB succeeded, want error")
	}
}

func addOK(t *testing.T, pdb *PageDB, p *CrawledPage) error {
	t.Helper()
	_, err := pdb.Add(p)
	return err
}

func drain(t *testing.T, pdb *PageDB) []LinkEdge {
	t.Helper()
	ls := pdb.NewLinkStream()
	defer ls.Close()
	var edges []LinkEdge
	var e LinkEdge
	for ls.Next(&e) == StateNext {
		edges = append(edges, e)
	}
	return edges
}
