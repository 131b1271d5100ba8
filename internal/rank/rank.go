// Package rank implements HITS and PageRank over the edges produced by a
// [pagedb.LinkStream]. The core storage package treats ranking as a pure
// external consumer of the link graph; this package is one concrete,
// swappable implementation of that consumer, wired in through
// [pagedb.PageDB.UpdateHits] and [pagedb.PageDB.UpdatePageRank].
package rank

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/wilwatikta/aduana-go/internal/pagedb"
)

// collect drains stream into a plain slice of edges. The graphs this
// package is exercised against in this repository's own tests and
// command-line tools fit comfortably in memory; a deployment with a link
// graph too large for that would run ranking out of process over the
// same streaming contract instead of changing this package's shape.
func collect(stream *pagedb.LinkStream) ([]pagedb.LinkEdge, error) {
	var edges []pagedb.LinkEdge
	var e pagedb.LinkEdge
	for {
		switch stream.Next(&e) {
		case pagedb.StateNext:
			edges = append(edges, e)
		case pagedb.StateEnd:
			return edges, nil
		default:
			return nil, errIteration
		}
	}
}

var errIteration = rankError("link stream returned an error state during ranking")

type rankError string

func (e rankError) Error() string { return string(e) }

// shardedAccumulate partitions edges across up to GOMAXPROCS goroutines,
// each reducing its shard into a private []float64 of length n via add,
// then sums the partial results. It is the fan-out point HITS and
// PageRank share: every power-iteration step is one call to this
// function for the hub or authority (or rank mass) update.
func shardedAccumulate(edges []pagedb.LinkEdge, n uint64, add func(partial []float64, e pagedb.LinkEdge)) []float64 {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(edges)+1 {
		workers = len(edges) + 1
	}
	if workers < 1 {
		workers = 1
	}

	partials := make([][]float64, workers)
	var g errgroup.Group
	shard := (len(edges) + workers - 1) / workers
	if shard == 0 {
		shard = 1
	}
	for w := 0; w < workers; w++ {
		w := w
		lo := w * shard
		if lo >= len(edges) {
			continue
		}
		hi := lo + shard
		if hi > len(edges) {
			hi = len(edges)
		}
		g.Go(func() error {
			partial := make([]float64, n)
			for _, e := range edges[lo:hi] {
				add(partial, e)
			}
			partials[w] = partial
			return nil
		})
	}
	g.Wait() // the accumulation goroutines never return an error

	total := make([]float64, n)
	for _, partial := range partials {
		for i, v := range partial {
			total[i] += v
		}
	}
	return total
}

func normalizeL1(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}

func toScoreMap(v []float64) map[uint64]float64 {
	out := make(map[uint64]float64, len(v))
	for i, s := range v {
		out[uint64(i)] = s
	}
	return out
}
