package gzran

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Kind classifies a gzran failure the way a caller needs to react to it,
// rather than by which internal step produced it.
type Kind int

const (
	// Success is the zero Kind; Error never carries it.
	Success Kind = iota
	// UnknownError is a catch-all for a failure that doesn't fit any other Kind.
	UnknownError
	// OpenError means the data file or the index file could not be opened.
	OpenError
	// ReadError means an I/O read failed while building or extracting.
	ReadError
	// WriteError means the index file could not be written.
	WriteError
	// DataError means the compressed stream is corrupt or truncated.
	DataError
	// OutOfMemory means an allocation or a size computation overflowed.
	OutOfMemory
	// Incompatible means the index file's magic, version, or field widths
	// don't match what this package writes.
	Incompatible
	// ZlibError is an unclassified failure from the underlying inflate engine.
	ZlibError
	// ExpiredIndex means the index file's recorded mtime no longer matches
	// the data file's mtime. Internal: Session.Open turns this into a
	// rebuild rather than surfacing it.
	ExpiredIndex
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case OpenError:
		return "open error"
	case ReadError:
		return "read error"
	case WriteError:
		return "write error"
	case DataError:
		return "data error"
	case OutOfMemory:
		return "out of memory"
	case Incompatible:
		return "incompatible index"
	case ZlibError:
		return "inflate error"
	case ExpiredIndex:
		return "expired index"
	default:
		return "unknown error"
	}
}

// Error is the error type every exported gzran operation returns on
// failure. It carries a Kind so callers can branch on what went wrong
// without string matching, and wraps the underlying cause for %+v/Unwrap.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.cause.Error()
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// wrap classifies cause as Kind, attaching msg as call-site context. A nil
// cause still produces a non-nil *Error carrying just the Kind and msg,
// which is useful for conditions gzran detects itself (a failed checked
// multiplication, a magic mismatch) rather than receiving from a library.
func wrap(kind Kind, cause error, msg string) *Error {
	if cause == nil {
		return &Error{Kind: kind, cause: errors.New(msg)}
	}
	return &Error{Kind: kind, cause: errors.Wrap(cause, msg)}
}

// KindOf reports the Kind of err if it is (or wraps) a gzran *Error, and
// UnknownError otherwise.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return UnknownError
}
