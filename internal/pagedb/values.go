package pagedb

import (
	"encoding/binary"
	"math"
)

// encodeU64 and decodeU64 implement the raw little-endian 8-byte integer
// encoding used for counters and indices stored as values
// (as opposed to keys, which go through [rsc.io/ordered]): the n_pages
// counter in info, the index in hash2idx, and each entry of a links row.
func encodeU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func decodeU64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func encodeF64(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func decodeF64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// encodeLinks packs a row of the links sub-database: a sequence of
// 8-byte little-endian page indices, in declared order, with no
// separator or length prefix (the value's own byte length is the count).
func encodeLinks(idxs []uint64) []byte {
	b := make([]byte, 8*len(idxs))
	for i, idx := range idxs {
		binary.LittleEndian.PutUint64(b[8*i:], idx)
	}
	return b
}

// decodeLinks unpacks a links row produced by encodeLinks.
func decodeLinks(b []byte) []uint64 {
	if len(b)%8 != 0 {
		panic("pagedb: corrupt links row: length not a multiple of 8")
	}
	out := make([]uint64, len(b)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(b[8*i:])
	}
	return out
}
