package rank

import (
	"math"
	"testing"

	"github.com/wilwatikta/aduana-go/internal/pagedb"
	"github.com/wilwatikta/aduana-go/internal/storage"
	"github.com/wilwatikta/aduana-go/internal/testutil"
)

// buildGraph returns a PageDB where page 0 links to 1 and 2, and page 1
// links to 2, so page 2 should rank highest by either algorithm.
func buildGraph(t *testing.T) *pagedb.PageDB {
	t.Helper()
	pdb := pagedb.New(testutil.Slogger(t), storage.MemDB())

	p0 := pagedb.NewCrawledPage("http://0", 1, 0)
	p0.AddLink("http://1", 0)
	p0.AddLink("http://2", 0)
	if _, err := pdb.Add(p0); err != nil {
		t.Fatal(err)
	}

	p1 := pagedb.NewCrawledPage("http://1", 1, 0)
	p1.AddLink("http://2", 0)
	if _, err := pdb.Add(p1); err != nil {
		t.Fatal(err)
	}

	return pdb
}

func TestPageRankRanksSinkHighest(t *testing.T) {
	pdb := buildGraph(t)
	if err := pdb.UpdatePageRank(PageRank); err != nil {
		t.Fatal(err)
	}

	idx0, _ := pdb.GetIdx("http://0")
	idx1, _ := pdb.GetIdx("http://1")
	idx2, _ := pdb.GetIdx("http://2")

	s0 := pdb.ScoreFromPageRank(idx0)
	s1 := pdb.ScoreFromPageRank(idx1)
	s2 := pdb.ScoreFromPageRank(idx2)

	if !(s2 > s1 && s2 > s0) {
		t.Fatalf("PageRank scores = %v %v %v, want index 2 (sink) highest", s0, s1, s2)
	}

	sum := s0 + s1 + s2
	if math.Abs(sum-1) > 0.2 {
		t.Fatalf("PageRank scores sum to %v, want close to 1", sum)
	}
}

func TestHITSRanksAuthorityOfSinkHighest(t *testing.T) {
	pdb := buildGraph(t)
	if err := pdb.UpdateHits(HITS); err != nil {
		t.Fatal(err)
	}

	idx0, _ := pdb.GetIdx("http://0")
	idx1, _ := pdb.GetIdx("http://1")
	idx2, _ := pdb.GetIdx("http://2")

	if pdb.ScoreFromHits(idx2) <= pdb.ScoreFromHits(idx0) {
		t.Fatalf("authority(sink) = %v should exceed authority(source) = %v",
			pdb.ScoreFromHits(idx2), pdb.ScoreFromHits(idx0))
	}
	if pdb.ScoreFromHits(idx2) <= pdb.ScoreFromHits(idx1) {
		t.Fatalf("authority(sink) = %v should exceed authority(page 1) = %v",
			pdb.ScoreFromHits(idx2), pdb.ScoreFromHits(idx1))
	}
}

func TestPageRankEmptyGraph(t *testing.T) {
	pdb := pagedb.New(testutil.Slogger(t), storage.MemDB())
	if err := pdb.UpdatePageRank(PageRank); err != nil {
		t.Fatal(err)
	}
}
