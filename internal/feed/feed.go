// Package feed implements a minimal demo ingestion driver: it fetches a
// URL over HTTP, extracts outbound links from the HTML it gets back, and
// produces a [pagedb.CrawledPage] ready for [pagedb.PageDB.Add]. It is
// deliberately not a crawler: there is no scheduler, no recrawl policy,
// no robots.txt handling, and no politeness controls. Those are the
// external collaborators the storage core is built to be fed by, not
// something this repository commits to an opinion about.
package feed

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"

	"github.com/wilwatikta/aduana-go/internal/pagedb"
)

// maxBodyBytes bounds how much of a response this demo driver reads,
// so a malformed or hostile response cannot exhaust memory.
const maxBodyBytes = 10 << 20

// A Fetcher retrieves one URL at a time and turns it into a CrawledPage.
type Fetcher struct {
	lg     *slog.Logger
	client *http.Client
}

// New returns a Fetcher using a client with a 30-second timeout.
func New(lg *slog.Logger) *Fetcher {
	return &Fetcher{lg: lg, client: &http.Client{Timeout: 30 * time.Second}}
}

// Fetch retrieves rawURL and returns the CrawledPage describing it. It
// does not write to a PageDB itself: callers call [pagedb.PageDB.Add]
// with the result, keeping ingestion a property of the core rather than
// of Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*pagedb.CrawledPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	page := pagedb.NewCrawledPage(rawURL, float64(time.Now().Unix()), score(resp))
	page.SetContentHash64(xxhash.Sum64(body))

	base, err := url.Parse(rawURL)
	if err != nil {
		f.lg.Warn("feed: could not parse fetched URL for link resolution", "url", rawURL, "err", err)
		return page, nil
	}
	for _, link := range extractLinks(body, base) {
		page.AddLink(link, 0)
	}
	return page, nil
}

// score gives a 2xx response a nominal positive self-score and anything
// else zero, as a stand-in for whatever real value heuristic an external
// crawler would supply; the core does not care how this number is
// produced.
func score(resp *http.Response) float32 {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return 1
	}
	return 0
}

// extractLinks returns the absolute, fragment-stripped form of every
// <a href> target in body, resolved against base.
func extractLinks(body []byte, base *url.URL) []string {
	var links []string
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "a" {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key != "href" || attr.Val == "" {
					continue
				}
				u, err := base.Parse(attr.Val)
				if err != nil {
					continue
				}
				u.Fragment = ""
				links = append(links, u.String())
			}
		}
	}
}
