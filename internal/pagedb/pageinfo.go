package pagedb

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// PageInfo is the persisted, per-URL aggregate record: crawl counts,
// first/last crawl times, change count, last score, and last content
// hash. It is mutated only by [PageDB.Add]; the ranking writebacks
// ([PageDB.UpdateHits] and [PageDB.UpdatePageRank]) store their scores in
// separate sub-databases and leave PageInfo unchanged. It is never deleted.
type PageInfo struct {
	URL         string
	FirstCrawl  float64 // seconds since Unix epoch
	LastCrawl   float64
	NCrawls     uint64
	NChanges    uint64
	Score       float32
	ContentHash []byte
}

// maxURLPrint is the length at which [PageInfo.String] truncates the URL
// field; it exists only to bound the size of the printed representation,
// which is for human inspection and never parsed back.
const maxURLPrint = 512

// Dump serializes p to its on-disk byte layout: fixed-width header fields
// (first_crawl, last_crawl, n_crawls, n_changes, score, little-endian),
// followed by a length-prefixed URL and a length-prefixed content hash.
func (p *PageInfo) Dump() []byte {
	url := []byte(p.URL)
	if len(url) > math.MaxUint16 {
		url = url[:math.MaxUint16]
	}
	hash := p.ContentHash
	if len(hash) > math.MaxUint16 {
		hash = hash[:math.MaxUint16]
	}

	buf := make([]byte, 38+len(url)+2+len(hash))
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(p.FirstCrawl))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(p.LastCrawl))
	binary.LittleEndian.PutUint64(buf[16:24], p.NCrawls)
	binary.LittleEndian.PutUint64(buf[24:32], p.NChanges)
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(p.Score))
	binary.LittleEndian.PutUint16(buf[36:38], uint16(len(url)))
	n := 38
	n += copy(buf[n:], url)
	binary.LittleEndian.PutUint16(buf[n:n+2], uint16(len(hash)))
	n += 2
	copy(buf[n:], hash)
	return buf
}

// LoadPageInfo deserializes a PageInfo from buf, as produced by
// [PageInfo.Dump]. It returns an error if buf's length does not match
// the lengths declared inside it.
func LoadPageInfo(buf []byte) (*PageInfo, error) {
	if len(buf) < 38 {
		return nil, fmt.Errorf("pagedb: PageInfo buffer too short: %d bytes", len(buf))
	}
	p := &PageInfo{
		FirstCrawl: math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8])),
		LastCrawl:  math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		NCrawls:    binary.LittleEndian.Uint64(buf[16:24]),
		NChanges:   binary.LittleEndian.Uint64(buf[24:32]),
		Score:      math.Float32frombits(binary.LittleEndian.Uint32(buf[32:36])),
	}
	urlLen := int(binary.LittleEndian.Uint16(buf[36:38]))
	n := 38
	if len(buf) < n+urlLen+2 {
		return nil, fmt.Errorf("pagedb: PageInfo buffer too short for url of length %d", urlLen)
	}
	p.URL = string(buf[n : n+urlLen])
	n += urlLen
	hashLen := int(binary.LittleEndian.Uint16(buf[n : n+2]))
	n += 2
	if len(buf) != n+hashLen {
		return nil, fmt.Errorf("pagedb: PageInfo buffer length %d does not match declared content_hash length %d at offset %d", len(buf), hashLen, n)
	}
	if hashLen > 0 {
		p.ContentHash = append([]byte(nil), buf[n:n+hashLen]...)
	}
	return p, nil
}

// Rate returns the page's change-rate estimate, n_changes divided by the
// elapsed time between its first and last crawl (floored at one second so
// a page crawled only once, or twice within the same second, does not
// divide by zero). Pages crawled fewer than two times have no meaningful
// rate and return 0; external schedulers use this to decide how often to
// recrawl a page.
func (p *PageInfo) Rate() float64 {
	if p.NCrawls < 2 {
		return 0
	}
	elapsed := p.LastCrawl - p.FirstCrawl
	if elapsed < 1 {
		elapsed = 1
	}
	return float64(p.NChanges) / elapsed
}

// String returns a fixed-width, human-readable representation of p:
// first_crawl, last_crawl, n_crawls, n_changes, and url, separated by
// single spaces. It is intended only for debugging; it is not parsed back
// by [LoadPageInfo].
func (p *PageInfo) String() string {
	url := p.URL
	if len(url) > maxURLPrint {
		url = url[:maxURLPrint]
	}
	return fmt.Sprintf("%s %s %s %s %s",
		formatCalendar(p.FirstCrawl),
		formatCalendar(p.LastCrawl),
		formatExp(p.NCrawls),
		formatExp(p.NChanges),
		url,
	)
}

// formatCalendar renders a Unix-epoch timestamp as a fixed 24-byte
// calendar string in the style of C's ctime/asctime, e.g.
// "Mon Jan  1 08:01:59 2015".
func formatCalendar(epoch float64) string {
	t := time.Unix(int64(epoch), 0).UTC()
	return t.Format("Mon Jan _2 15:04:05 2006")
}

// formatExp renders n in the fixed 8-byte exponential form "d.dde±dd".
func formatExp(n uint64) string {
	return fmt.Sprintf("%.2e", float64(n))
}
