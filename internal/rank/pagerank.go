package rank

import "github.com/wilwatikta/aduana-go/internal/pagedb"

// PageRankIterations is the number of power-iteration steps PageRank
// runs before returning.
const PageRankIterations = 30

// PageRankDamping is the probability a random surfer follows an outbound
// link rather than jumping to a uniformly random page; the standard
// value from the original PageRank paper.
const PageRankDamping = 0.85

// PageRank computes PageRank scores over the graph read from stream and
// returns them as a [pagedb.RankFunc] result, keyed by page index.
// Pages with no outbound links (dangling nodes) redistribute their mass
// uniformly over the whole graph, as in the standard random-surfer
// formulation.
func PageRank(stream *pagedb.LinkStream, n uint64) (map[uint64]float64, error) {
	if n == 0 {
		return map[uint64]float64{}, nil
	}
	edges, err := collect(stream)
	if err != nil {
		return nil, err
	}

	outDegree := make([]float64, n)
	for _, e := range edges {
		outDegree[e.From]++
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1 / float64(n)
	}

	base := (1 - PageRankDamping) / float64(n)
	for iter := 0; iter < PageRankIterations; iter++ {
		r := rank
		var danglingMass float64
		for i, d := range outDegree {
			if d == 0 {
				danglingMass += r[i]
			}
		}
		danglingShare := danglingMass / float64(n)

		next := shardedAccumulate(edges, n, func(partial []float64, e pagedb.LinkEdge) {
			partial[e.To] += r[e.From] / outDegree[e.From]
		})
		for i := range next {
			next[i] = base + PageRankDamping*(next[i]+danglingShare)
		}
		rank = next
	}

	return toScoreMap(rank), nil
}
