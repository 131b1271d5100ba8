package pagedb

import (
	"bytes"
	"testing"
)

func TestPageInfoRoundTrip(t *testing.T) {
	for _, pi := range []*PageInfo{
		{URL: "http://a", FirstCrawl: 1000, LastCrawl: 2000, NCrawls: 2, NChanges: 1, Score: 0.5, ContentHash: []byte{0xAA, 0xBB}},
		{URL: "", FirstCrawl: 0, LastCrawl: 0, NCrawls: 0, NChanges: 0, Score: 0, ContentHash: nil},
		{URL: "http://long-url.example/path?query=1", Score: -1.25, ContentHash: bytes.Repeat([]byte{7}, 64)},
	} {
		got, err := LoadPageInfo(pi.Dump())
		if err != nil {
			t.Fatalf("LoadPageInfo(Dump(%+v)): %v", pi, err)
		}
		if got.URL != pi.URL || got.FirstCrawl != pi.FirstCrawl || got.LastCrawl != pi.LastCrawl ||
			got.NCrawls != pi.NCrawls || got.NChanges != pi.NChanges || got.Score != pi.Score ||
			!bytes.Equal(got.ContentHash, pi.ContentHash) {
			t.Fatalf("round trip mismatch:\n in  %+v\n out %+v", pi, got)
		}
	}
}

func TestLoadPageInfoTruncated(t *testing.T) {
	pi := &PageInfo{URL: "http://a", ContentHash: []byte{1, 2, 3}}
	buf := pi.Dump()
	if _, err := LoadPageInfo(buf[:len(buf)-1]); err == nil {
		t.Fatalf("LoadPageInfo of truncated buffer succeeded")
	}
	if _, err := LoadPageInfo(nil); err == nil {
		t.Fatalf("LoadPageInfo of empty buffer succeeded")
	}
}

func TestPageInfoRate(t *testing.T) {
	for _, tc := range []struct {
		pi   PageInfo
		want float64
	}{
		{PageInfo{NCrawls: 0}, 0},
		{PageInfo{NCrawls: 1}, 0},
		{PageInfo{FirstCrawl: 0, LastCrawl: 100, NCrawls: 3, NChanges: 2}, 0.02},
		{PageInfo{FirstCrawl: 0, LastCrawl: 0, NCrawls: 2, NChanges: 1}, 1},
	} {
		if got := tc.pi.Rate(); got != tc.want {
			t.Errorf("Rate(%+v) = %v, want %v", tc.pi, got, tc.want)
		}
	}
}

func TestPageInfoString(t *testing.T) {
	pi := &PageInfo{
		URL:        "http://example.com",
		FirstCrawl: 1000,
		LastCrawl:  2000,
		NCrawls:    2,
		NChanges:   1,
	}
	s := pi.String()
	if len(s) == 0 {
		t.Fatalf("String() returned empty")
	}
	if len(s) > 580 {
		t.Fatalf("String() length %d exceeds 580", len(s))
	}
}

func TestPageInfoStringTruncatesURL(t *testing.T) {
	pi := &PageInfo{URL: string(bytes.Repeat([]byte{'x'}, 1000))}
	s := pi.String()
	// The url field is the final, space-separated component.
	idx := bytes.LastIndexByte([]byte(s), ' ')
	if len(s)-idx-1 != maxURLPrint {
		t.Fatalf("url field length = %d, want %d", len(s)-idx-1, maxURLPrint)
	}
}
