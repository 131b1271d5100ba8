// Package pagedb implements the storage core of a web crawler: a
// transactional, ordered key/value database that ingests crawled pages
// and maintains the derived structures needed to rank pages (the link
// graph, for HITS and PageRank) and to stream edges for graph
// computations.
package pagedb

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/wilwatikta/aduana-go/internal/storage"
)

// writerLock is the name under which [storage.DB.Lock]/[storage.DB.Unlock]
// serialize Add and the ranking writebacks, modeling the single-writer,
// many-reader concurrency of the underlying KV engine at the process
// level: only one PageDB mutation runs at a time, while reads (GetIdx,
// GetInfoFromURL, a LinkStream already in flight) proceed unblocked.
const writerLock = "pagedb.writer"

// A PageDB owns a [storage.DB] and exposes the operations of the ingestion
// protocol over it. There is no state beyond the open database and its
// in-flight operations: PageDB is a pure function of its persisted bytes.
type PageDB struct {
	lg       *slog.Logger
	db       storage.DB
	readOnly bool

	errMu   sync.Mutex
	lastErr *Error
}

// New wraps an already-open [storage.DB] as a PageDB, open for reading and
// writing. Use this to plug in an in-memory database for tests, or a
// database already selected by a dbspec string.
func New(lg *slog.Logger, db storage.DB) *PageDB {
	return &PageDB{lg: lg, db: db}
}

// NewReadOnly wraps an already-open [storage.DB] as a PageDB that rejects
// [PageDB.Add], [PageDB.UpdateHits], and [PageDB.UpdatePageRank]: every
// lookup still works, but the database is never mutated through this
// handle. Opening and creating the underlying database directory is
// [dbspec.Spec]'s concern, not PageDB's; NewReadOnly only changes what
// this handle is allowed to do with it.
func NewReadOnly(lg *slog.Logger, db storage.DB) *PageDB {
	return &PageDB{lg: lg, db: db, readOnly: true}
}

// Close releases the underlying database. Any [LinkStream] opened from
// this PageDB must be closed first.
func (pdb *PageDB) Close() {
	pdb.db.Close()
}

// LastError returns the Kind and message of the most recent failed
// operation on pdb, or (KindOK, "") if every operation so far has
// succeeded. It exists for callers that prefer the handle-attached "last
// error" slot this database's design was originally built around;
// operations also return the same [*Error] directly, which is the
// preferred way to observe a failure.
func (pdb *PageDB) LastError() (Kind, string) {
	pdb.errMu.Lock()
	defer pdb.errMu.Unlock()
	if pdb.lastErr == nil {
		return KindOK, ""
	}
	return pdb.lastErr.Kind, pdb.lastErr.Message
}

func (pdb *PageDB) fail(err *Error) *Error {
	pdb.errMu.Lock()
	pdb.lastErr = err
	pdb.errMu.Unlock()
	return err
}

// Touched is one entry of the list returned by [PageDB.Add]: the
// fingerprint and current [PageInfo] of a URL the call examined, in the
// order examined (the crawled page itself first, then its links in
// declared order), deduplicated by fingerprint.
type Touched struct {
	Hash uint64
	Info *PageInfo
}

// readN returns the current page counter N from the info sub-database,
// or 0 if the database has never had a page added to it.
func (pdb *PageDB) readN() uint64 {
	v, ok := pdb.db.Get(keyNPages)
	if !ok {
		return 0
	}
	return decodeU64(v)
}

// Add ingests page inside a single atomic transaction: it resolves or
// assigns an index for page.URL and for every link target, updates the
// two page records and the links row for page.URL, and returns the list
// of PageInfo records it examined. On any failure the store is left
// exactly as it was before the call.
func (pdb *PageDB) Add(page *CrawledPage) ([]Touched, error) {
	if page.URL == "" {
		return nil, pdb.fail(newError(KindInternal, "CrawledPage has empty URL"))
	}
	if pdb.readOnly {
		return nil, pdb.fail(newError(KindInvalidPath, "page database is read-only"))
	}

	pdb.db.Lock(writerLock)
	defer pdb.db.Unlock(writerLock)

	n := pdb.readN()
	b := pdb.db.Batch()

	var touched []Touched
	seen := make(map[uint64]bool)
	pending := make(map[uint64]*pendingPage)

	hPage := Hash(page.URL)
	idxPage, pi := pdb.resolveCrawledPage(b, &n, hPage, page)
	touched = append(touched, Touched{Hash: hPage, Info: pi})
	seen[hPage] = true

	idxs := make([]uint64, 0, len(page.Links))
	for _, link := range page.Links {
		h := Hash(link.URL)
		if h == hPage {
			// Self-loops are dropped: no link from a page to itself is
			// ever recorded.
			continue
		}
		idx, linkInfo := pdb.resolveLinkTarget(b, &n, pending, h, link)
		idxs = append(idxs, idx)
		if !seen[h] {
			touched = append(touched, Touched{Hash: h, Info: linkInfo})
			seen[h] = true
		}
	}

	b.Set(keyNPages, encodeU64(n))
	b.Set(keyLinks(idxPage), encodeLinks(idxs))
	b.Apply()

	return touched, nil
}

// pendingPage is the index and PageInfo assigned to a link target earlier
// in the same [PageDB.Add] call. A page can list the same target more than
// once (feed extraction does not dedup hrefs), and pdb.db does not see
// those writes until the call's batch is applied, so resolveLinkTarget
// must consult this map before falling back to pdb.db.Get to avoid
// allocating two indices for one URL.
type pendingPage struct {
	idx uint64
	pi  *PageInfo
}

// resolveCrawledPage implements step 2 of the ingestion protocol for the
// crawled page itself: assign an index on first observation, or update
// the existing PageInfo on a recrawl. n is the running page counter,
// updated in place when a new index is allocated.
func (pdb *PageDB) resolveCrawledPage(b storage.Batch, n *uint64, h uint64, page *CrawledPage) (idx uint64, pi *PageInfo) {
	if v, ok := pdb.db.Get(keyHash2Idx(h)); ok {
		idx = decodeU64(v)
		existing, err := pdb.loadInfo(h)
		if err != nil {
			pdb.db.Panic("pagedb: %v", err)
		}
		if len(existing.ContentHash) > 0 && !bytesEqual(existing.ContentHash, page.ContentHash) {
			existing.NChanges++
		}
		existing.LastCrawl = page.Time
		existing.Score = page.Score
		existing.ContentHash = page.ContentHash
		existing.NCrawls++
		b.Set(keyHash2Info(h), existing.Dump())
		return idx, existing
	}

	idx = *n
	*n++
	pi = &PageInfo{
		URL:         page.URL,
		FirstCrawl:  page.Time,
		LastCrawl:   page.Time,
		NCrawls:     1,
		ContentHash: page.ContentHash,
		Score:       page.Score,
	}
	b.Set(keyHash2Idx(h), encodeU64(idx))
	b.Set(keyHash2Info(h), pi.Dump())
	return idx, pi
}

// resolveLinkTarget implements step 3 of the ingestion protocol for one
// outbound link: assign an index and a placeholder PageInfo on first
// observation of the target, or leave an existing target's PageInfo
// untouched (the per-link score never overwrites a target's own score).
func (pdb *PageDB) resolveLinkTarget(b storage.Batch, n *uint64, pending map[uint64]*pendingPage, h uint64, link Link) (idx uint64, pi *PageInfo) {
	if pp, ok := pending[h]; ok {
		return pp.idx, pp.pi
	}

	if v, ok := pdb.db.Get(keyHash2Idx(h)); ok {
		idx = decodeU64(v)
		existing, err := pdb.loadInfo(h)
		if err != nil {
			pdb.db.Panic("pagedb: %v", err)
		}
		return idx, existing
	}

	idx = *n
	*n++
	pi = &PageInfo{
		URL:     link.URL,
		NCrawls: 0,
		Score:   link.Score,
	}
	b.Set(keyHash2Idx(h), encodeU64(idx))
	b.Set(keyHash2Info(h), pi.Dump())
	pending[h] = &pendingPage{idx: idx, pi: pi}
	return idx, pi
}

func (pdb *PageDB) loadInfo(h uint64) (*PageInfo, error) {
	v, ok := pdb.db.Get(keyHash2Info(h))
	if !ok {
		return nil, fmt.Errorf("hash2idx has %x but hash2info does not (invariant 1 violated)", h)
	}
	return LoadPageInfo(v)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// GetInfoFromHash looks up the PageInfo for fingerprint h. A missing
// entry is not an error: it returns (nil, false, nil), matching the
// spec's distinction between "looked and it's not there" and "this call
// required it to be there" (see [PageDB.GetIdx]).
func (pdb *PageDB) GetInfoFromHash(h uint64) (info *PageInfo, ok bool, err error) {
	v, ok := pdb.db.Get(keyHash2Info(h))
	if !ok {
		return nil, false, nil
	}
	pi, lerr := LoadPageInfo(v)
	if lerr != nil {
		return nil, false, pdb.fail(newError(KindInternal, "corrupt PageInfo for hash %016x: %v", h, lerr))
	}
	return pi, true, nil
}

// GetInfoFromURL looks up the PageInfo for url. See [PageDB.GetInfoFromHash].
func (pdb *PageDB) GetInfoFromURL(url string) (info *PageInfo, ok bool, err error) {
	return pdb.GetInfoFromHash(Hash(url))
}

// GetIdx returns the page index assigned to url. Unlike the GetInfoFrom*
// accessors, a missing URL is an error here: the caller asked for
// something that is required to exist.
func (pdb *PageDB) GetIdx(url string) (uint64, error) {
	h := Hash(url)
	v, ok := pdb.db.Get(keyHash2Idx(h))
	if !ok {
		return 0, pdb.fail(newError(KindNoPage, "no such page: %s", url))
	}
	return decodeU64(v), nil
}

// N returns the current page counter: the number of distinct URLs ever
// observed, and one more than the largest index in use.
func (pdb *PageDB) N() uint64 {
	return pdb.readN()
}
