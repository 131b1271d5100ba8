package rank

import "github.com/wilwatikta/aduana-go/internal/pagedb"

// HITSIterations is the number of power-iteration steps HITS runs before
// returning. HITS converges quickly on typical web graphs; this many
// iterations is a fixed budget rather than a convergence check.
const HITSIterations = 20

// HITS computes Kleinberg's HITS authority scores over the graph read
// from stream and returns them as a [pagedb.RankFunc] result, keyed by
// page index. Hub scores are computed as an intermediate but are not
// themselves persisted: [pagedb.PageDB.UpdateHits] only has a slot for
// one score per page, and authority is the one kept.
func HITS(stream *pagedb.LinkStream, n uint64) (map[uint64]float64, error) {
	if n == 0 {
		return map[uint64]float64{}, nil
	}
	edges, err := collect(stream)
	if err != nil {
		return nil, err
	}

	hub := make([]float64, n)
	for i := range hub {
		hub[i] = 1
	}

	var auth []float64
	for iter := 0; iter < HITSIterations; iter++ {
		h := hub
		auth = shardedAccumulate(edges, n, func(partial []float64, e pagedb.LinkEdge) {
			partial[e.To] += h[e.From]
		})
		normalizeL1(auth)

		a := auth
		hub = shardedAccumulate(edges, n, func(partial []float64, e pagedb.LinkEdge) {
			partial[e.From] += a[e.To]
		})
		normalizeL1(hub)
	}

	return toScoreMap(auth), nil
}
