package pagedb

import "encoding/binary"

// Link is one outbound link observed during a crawl, together with the
// crawler's estimate of the value of the page it points to.
type Link struct {
	URL   string
	Score float32
}

// CrawledPage is the in-memory record of a single crawl event: a URL, its
// declared outbound links, and crawl metadata. It is transient and
// input-only — [PageDB.Add] consumes it and returns the [PageInfo] records
// it touched; nothing of the CrawledPage itself is retained.
type CrawledPage struct {
	URL   string // non-empty ASCII/UTF-8 string
	Links []Link // order is preserved into the links sub-database
	Time  float64
	Score float32

	// ContentHash is an opaque byte sequence of arbitrary length (may be
	// empty). Use SetContentHash32/64/128 for the common fixed-width
	// cases; any other digest can be assigned to the field directly.
	ContentHash []byte
}

// NewCrawledPage returns a CrawledPage for url crawled at time t with the
// given self-score. Links and a content hash are added afterward.
func NewCrawledPage(url string, t float64, score float32) *CrawledPage {
	return &CrawledPage{URL: url, Time: t, Score: score}
}

// AddLink appends a link to url with the given score to the page's
// outbound link list, preserving declaration order.
func (p *CrawledPage) AddLink(url string, score float32) {
	p.Links = append(p.Links, Link{URL: url, Score: score})
}

// SetContentHash32 sets the content hash from a 32-bit digest, stored
// little-endian.
func (p *CrawledPage) SetContentHash32(h uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, h)
	p.ContentHash = b
}

// SetContentHash64 sets the content hash from a 64-bit digest, stored
// little-endian.
func (p *CrawledPage) SetContentHash64(h uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, h)
	p.ContentHash = b
}

// SetContentHash128 sets the content hash from a 128-bit digest given as
// two 64-bit halves, both stored little-endian, low half first.
func (p *CrawledPage) SetContentHash128(lo, hi uint64) {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[0:8], lo)
	binary.LittleEndian.PutUint64(b[8:16], hi)
	p.ContentHash = b
}
