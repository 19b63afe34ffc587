package ember

import (
	"errors"
	"fmt"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ERROR KINDS
// ═══════════════════════════════════════════════════════════════════════════════
// The query/indexing engine surfaces a fixed, small set of error kinds to its
// caller. These are not Go error *types* in the usual one-struct-per-error
// sense: they are a closed enumeration (a Kind), carried on a single QueryError
// so that callers can switch on `errors.As(err, &qerr); qerr.Kind`.
// ═══════════════════════════════════════════════════════════════════════════════

// Kind identifies the category of a query/indexing failure.
type Kind int

const (
	Generic Kind = iota
	Syntax
	ParseArgs
	AddArgs
	Expression
	NoSuchKey
	NoSuchIndex
	DocExists
	DocNotFound
	NoOption
	Timeout
	Limit
	TooManyResults
	BadVal
	Concurrent
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case ParseArgs:
		return "bad arguments"
	case AddArgs:
		return "bad add arguments"
	case Expression:
		return "bad expression"
	case NoSuchKey:
		return "no such key"
	case NoSuchIndex:
		return "no such index"
	case DocExists:
		return "document already exists"
	case DocNotFound:
		return "document not found"
	case NoOption:
		return "unknown option"
	case Timeout:
		return "timeout"
	case Limit:
		return "limit exceeded"
	case TooManyResults:
		return "too many results"
	case BadVal:
		return "bad value"
	case Concurrent:
		return "index dropped during concurrent access"
	default:
		return "generic error"
	}
}

// QueryError wraps a Kind with a human-readable detail, following the
// SetError(code, message)/QueryError pattern used throughout
// original_source/src/query.c.
type QueryError struct {
	Kind   Kind
	Detail string
}

func (e *QueryError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// NewError builds a *QueryError carrying a Kind and a formatted detail.
func NewError(kind Kind, format string, args ...any) *QueryError {
	return &QueryError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a *QueryError of the given Kind.
func IsKind(err error, kind Kind) bool {
	var qerr *QueryError
	if errors.As(err, &qerr) {
		return qerr.Kind == kind
	}
	return false
}

// Sentinel leaf errors, following the teacher's package-level `var (...)` style.
var (
	ErrNoPostingList    = errors.New("no posting list exists for token")
	ErrNoNextElement    = errors.New("no next element found")
	ErrNoPrevElement    = errors.New("no previous element found")
	ErrIndexDropped     = errors.New("index was dropped")
	ErrCursorNotFound   = errors.New("cursor not found")
	ErrFieldNotNumeric  = errors.New("field is not numeric")
	ErrFieldNotGeo      = errors.New("field is not geo")
	ErrFieldNotTag      = errors.New("field is not a tag field")
	ErrUnknownField     = errors.New("unknown field")
	ErrTooShortPrefix   = errors.New("prefix shorter than minimum term prefix")
	ErrTooManyExpansions = errors.New("prefix/fuzzy expansion exceeds limit")
)
