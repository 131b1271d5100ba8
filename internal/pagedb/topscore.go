package pagedb

import "sort"

// ScoredPage is one entry of the result of [PageDB.TopByScore]: a page
// index, the URL recorded for it, and the score it was ranked by.
type ScoredPage struct {
	Idx   uint64
	URL   string
	Score float64
}

// ScoreSource selects which persisted score [PageDB.TopByScore] reads:
// the per-crawl score recorded in PageInfo, the HITS authority score, or
// the PageRank score.
type ScoreSource int

const (
	ScoreLastCrawl ScoreSource = iota
	ScoreHits
	ScorePageRank
)

// TopByScore returns the n pages with the highest score from source,
// highest first. It is used by the rank command's summary output and by
// any caller that wants a ranked shortlist without reading every
// PageInfo and score itself.
func (pdb *PageDB) TopByScore(n int, source ScoreSource) ([]ScoredPage, error) {
	var all []ScoredPage
	start, end := subRange(subHash2Idx)
	for key, valf := range pdb.db.Scan(start, end) {
		h := decodeHash2IdxKey(key)
		idx := decodeU64(valf())

		info, ok, err := pdb.GetInfoFromHash(h)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		var score float64
		switch source {
		case ScoreHits:
			score = pdb.ScoreFromHits(idx)
		case ScorePageRank:
			score = pdb.ScoreFromPageRank(idx)
		default:
			score = float64(info.Score)
		}

		all = append(all, ScoredPage{Idx: idx, URL: info.URL, Score: score})
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if n < len(all) {
		all = all[:n]
	}
	return all, nil
}
