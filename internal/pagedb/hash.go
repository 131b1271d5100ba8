package pagedb

import "github.com/cespare/xxhash/v2"

// Hash returns the 64-bit fingerprint of url, used throughout the database
// as the stable short key for a URL. The function and seed are fixed for
// the lifetime of a database: changing either invalidates existing data,
// since every key in hash2idx and hash2info is derived from it.
func Hash(url string) uint64 {
	return xxhash.Sum64String(url)
}
