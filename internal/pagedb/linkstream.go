package pagedb

import (
	"iter"

	"github.com/wilwatikta/aduana-go/internal/storage"
)

// LinkState is one of the states of a [LinkStream]'s stepping state
// machine: init, next, end, with error reachable from any state.
type LinkState int

const (
	StateInit LinkState = iota
	StateNext
	StateEnd
	StateError
)

func (s LinkState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateNext:
		return "next"
	case StateEnd:
		return "end"
	case StateError:
		return "error"
	default:
		return "invalid"
	}
}

// A LinkEdge is one (from, to) edge yielded by a [LinkStream].
type LinkEdge struct {
	From uint64
	To   uint64
}

// A LinkStream is a forward-only iterator over the edges stored in the
// links sub-database. It pins a consistent read view over the database
// (via a [storage.Snapshot], when the underlying [storage.DB] supports
// one) for as long as it is open: callers are responsible for closing a
// LinkStream before a write they need it to be isolated from, and for
// bracketing its lifetime so it does not outlive the database that
// produced it.
type LinkStream struct {
	pdb   *PageDB
	snap  storage.Snapshot // nil if the underlying DB is not a Snapshotter
	pull  func() ([]byte, func() []byte, bool)
	stop  func()
	state LinkState

	from uint64
	to   []uint64
	i    int
}

// NewLinkStream opens a LinkStream over pdb's links sub-database,
// positioned before the first key. While it is open, no write through
// pdb should be assumed invisible to any other reader that started
// before it: the isolation it provides is for this stream's own view,
// not a lock against writers.
func (pdb *PageDB) NewLinkStream() *LinkStream {
	ls := &LinkStream{pdb: pdb}
	ls.open()
	return ls
}

func (ls *LinkStream) open() {
	start, end := subRange(subLinks)
	if snapper, ok := ls.pdb.db.(storage.Snapshotter); ok {
		ls.snap = snapper.NewSnapshot()
		ls.pull, ls.stop = iter.Pull2(ls.snap.Scan(start, end))
	} else {
		ls.pull, ls.stop = iter.Pull2(ls.pdb.db.Scan(start, end))
	}
	ls.state = StateInit
	ls.from, ls.to, ls.i = 0, nil, 0
}

// Next advances the stream by one edge, writes it into *link, and
// returns the state reached. Once Next returns StateEnd or StateError,
// further calls return the same state without modifying *link.
func (ls *LinkStream) Next(link *LinkEdge) LinkState {
	if ls.state == StateEnd || ls.state == StateError {
		return ls.state
	}

	if ls.i < len(ls.to) {
		link.From = ls.from
		link.To = ls.to[ls.i]
		ls.i++
		ls.state = StateNext
		return StateNext
	}

	key, valf, ok := ls.pull()
	if !ok {
		ls.state = StateEnd
		return StateEnd
	}

	ls.from = decodeLinksKey(key)
	ls.to = decodeLinks(valf())
	ls.i = 0
	return ls.Next(link)
}

// Reset repositions the stream before the first key and returns it to
// StateInit, allowing a second drain of the same edges.
func (ls *LinkStream) Reset() LinkState {
	ls.stop()
	if ls.snap != nil {
		start, end := subRange(subLinks)
		ls.pull, ls.stop = iter.Pull2(ls.snap.Scan(start, end))
	} else {
		ls.open()
		return ls.state
	}
	ls.state = StateInit
	ls.from, ls.to, ls.i = 0, nil, 0
	return ls.state
}

// Close releases the cursor and, if one was taken, the snapshot backing
// it. A LinkStream must be closed before the PageDB it came from.
func (ls *LinkStream) Close() {
	ls.stop()
	if ls.snap != nil {
		ls.snap.Close()
	}
}

// All returns an iterator over every edge in the stream, for callers
// that prefer range-over-func to the explicit Next/state-machine form.
// It is equivalent to calling Next in a loop until StateEnd.
func (ls *LinkStream) All() iter.Seq[LinkEdge] {
	return func(yield func(LinkEdge) bool) {
		var e LinkEdge
		for ls.Next(&e) == StateNext {
			if !yield(e) {
				return
			}
		}
	}
}
