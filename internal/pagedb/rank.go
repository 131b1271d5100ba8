package pagedb

// A RankFunc computes a scalar score for every page index reachable from
// stream, for a graph of n pages. It is supplied by external ranking
// code (see internal/rank for the HITS and PageRank implementations used
// by this repository's cmd/pagedb); the database has no embedded opinion
// about the algorithm, only about how its output is persisted.
type RankFunc func(stream *LinkStream, n uint64) (map[uint64]float64, error)

// UpdateHits runs compute over a fresh link stream on pdb and persists
// the resulting score vector to the hits sub-database, fully replacing
// its previous contents as a single atomic update.
func (pdb *PageDB) UpdateHits(compute RankFunc) error {
	return pdb.updateScores(subHits, keyHits, compute)
}

// UpdatePageRank runs compute over a fresh link stream on pdb and
// persists the resulting score vector to the pagerank sub-database,
// fully replacing its previous contents as a single atomic update.
func (pdb *PageDB) UpdatePageRank(compute RankFunc) error {
	return pdb.updateScores(subPageRank, keyPageRank, compute)
}

func (pdb *PageDB) updateScores(sub string, key func(uint64) []byte, compute RankFunc) error {
	if pdb.readOnly {
		return pdb.fail(newError(KindInvalidPath, "page database is read-only"))
	}

	pdb.db.Lock(writerLock)
	defer pdb.db.Unlock(writerLock)

	n := pdb.readN()
	stream := pdb.NewLinkStream()
	scores, err := compute(stream, n)
	stream.Close()
	if err != nil {
		return pdb.fail(newError(KindInternal, "rank compute over %s: %v", sub, err))
	}

	start, end := subRange(sub)
	b := pdb.db.Batch()
	b.DeleteRange(start, end)
	for idx, score := range scores {
		b.Set(key(idx), encodeF64(score))
	}
	b.Apply()
	return nil
}

// ScoreFromHits returns the HITS authority score last written for index
// idx, or 0 if none has been written.
func (pdb *PageDB) ScoreFromHits(idx uint64) float64 {
	v, ok := pdb.db.Get(keyHits(idx))
	if !ok {
		return 0
	}
	return decodeF64(v)
}

// ScoreFromPageRank returns the PageRank score last written for index
// idx, or 0 if none has been written.
func (pdb *PageDB) ScoreFromPageRank(idx uint64) float64 {
	v, ok := pdb.db.Get(keyPageRank(idx))
	if !ok {
		return 0
	}
	return decodeF64(v)
}
