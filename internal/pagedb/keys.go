package pagedb

import "rsc.io/ordered"

// The keyspace is partitioned into six sub-databases by tagging every
// key with a short prefix encoded with [rsc.io/ordered], the technique
// used throughout the store this core is built on to keep multiple
// logical tables inside one flat ordered keyspace.
const (
	subInfo      = "info"      // one key, "n_pages" -> little-endian u64 page counter
	subHash2Idx  = "hash2idx"  // fingerprint -> page index
	subHash2Info = "hash2info" // fingerprint -> serialized PageInfo
	subLinks     = "links"     // from index -> packed array of to indices
	subHits      = "hits"      // index -> little-endian f64 HITS authority score
	subPageRank  = "pagerank"  // index -> little-endian f64 PageRank score
)

var keyNPages = ordered.Encode(subInfo, "n_pages")

func keyHash2Idx(h uint64) []byte   { return ordered.Encode(subHash2Idx, h) }
func keyHash2Info(h uint64) []byte  { return ordered.Encode(subHash2Info, h) }
func keyLinks(idx uint64) []byte    { return ordered.Encode(subLinks, idx) }
func keyHits(idx uint64) []byte     { return ordered.Encode(subHits, idx) }
func keyPageRank(idx uint64) []byte { return ordered.Encode(subPageRank, idx) }

// subRange returns the inclusive key range covering every key tagged with
// sub, for use with [storage.DB.Scan] and [storage.DB.DeleteRange].
func subRange(sub string) (start, end []byte) {
	return ordered.Encode(sub), ordered.Encode(sub, ordered.Inf)
}

// decodeHash2IdxKey extracts the fingerprint from a hash2idx key.
func decodeHash2IdxKey(key []byte) uint64 {
	var tag string
	var h uint64
	if err := ordered.Decode(key, &tag, &h); err != nil {
		panic(err)
	}
	return h
}

// decodeLinksKey extracts the from-index from a links key.
func decodeLinksKey(key []byte) uint64 {
	var tag string
	var idx uint64
	if err := ordered.Decode(key, &tag, &idx); err != nil {
		panic(err)
	}
	return idx
}
