package pagedb

import "fmt"

// A Kind is one of the core's stable error kinds. Kind values are not
// Go error types in their own right; they are carried inside an [Error].
type Kind int

const (
	// KindOK indicates success. It is never attached to a returned error
	// (a nil error serves that purpose); it exists only so [PageDB.LastError]
	// has a zero value to report when nothing has gone wrong yet.
	KindOK Kind = iota

	// KindMemory indicates an allocation failure anywhere in the core.
	KindMemory

	// KindInvalidPath indicates a filesystem problem creating or
	// accessing the database directory.
	KindInvalidPath

	// KindInternal indicates an unexpected error from the underlying KV
	// engine: I/O, map-full, or corruption.
	KindInternal

	// KindNoPage indicates a requested URL or hash is absent where
	// presence is mandatory, as in [PageDB.GetIdx].
	KindNoPage
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindMemory:
		return "memory"
	case KindInvalidPath:
		return "invalid_path"
	case KindInternal:
		return "internal"
	case KindNoPage:
		return "no_page"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// maxErrorMessage bounds the message carried by an [Error], matching the
// 10,000-byte PAGE_DB_MAX_ERROR_LENGTH of the database this core replaces.
const maxErrorMessage = 10000

// An Error is the core's uniform error type: a stable [Kind] plus a
// human-readable message. It implements the standard error interface, so
// callers that only want a Go error can use it directly with errors.Is
// and errors.As against a Kind-carrying sentinel; callers that want the
// handle-attached "last error" this database's design was originally
// built around can use [PageDB.LastError] instead.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, &Error{Kind: KindNoPage}) works without matching the
// message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return &Error{Kind: kind, Message: msg}
}
