// Package dbspec implements a string notation for referring to the
// database backing a [pagedb.PageDB]. A DB specification can take one of
// these forms:
//
// pebble:DIR
//
//	A Pebble database in the directory DIR. DIR can be relative or
//	absolute. The database must already exist; use the "new:" prefix to
//	create it instead: new:pebble:DIR.
//
// mem
//
//	An in-memory database, useful for tests. Its contents are lost when
//	the process exits.
package dbspec

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/wilwatikta/aduana-go/internal/pebble"
	"github.com/wilwatikta/aduana-go/internal/storage"
)

// A Spec is the parsed representation of a DB specification string.
type Spec struct {
	Kind     string // "pebble" or "mem"
	Location string // directory, for "pebble"
	Create   bool   // create the database instead of opening it
}

func (s *Spec) String() string {
	var prefix string
	if s.Create {
		prefix = "new:"
	}
	switch s.Kind {
	case "mem":
		return prefix + "mem"
	case "pebble":
		return prefix + "pebble:" + s.Location
	default:
		return fmt.Sprintf("%#v", s)
	}
}

// Open opens the database described by the spec.
func (s *Spec) Open(lg *slog.Logger) (storage.DB, error) {
	switch s.Kind {
	case "mem":
		return storage.MemDB(), nil
	case "pebble":
		if s.Create {
			return pebble.Create(lg, s.Location)
		}
		return pebble.Open(lg, s.Location)
	default:
		return nil, fmt.Errorf("unknown DB kind %q", s.Kind)
	}
}

// Parse parses a DB specification string into a [Spec].
func Parse(s string) (_ *Spec, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("dbspec.Parse(%q): %w", s, err)
		}
	}()

	create := strings.HasPrefix(s, "new:")
	if create {
		s = strings.TrimPrefix(s, "new:")
	}

	kind, rest, hasColon := strings.Cut(s, ":")
	spec := &Spec{Kind: kind, Create: create}

	switch kind {
	case "mem":
		if hasColon {
			return nil, errors.New("invalid 'mem' spec: should be exactly mem")
		}

	case "pebble":
		if rest == "" {
			return nil, errors.New("pebble spec missing directory; want pebble:DIR")
		}
		spec.Location = filepath.Clean(rest)

	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return spec, nil
}
