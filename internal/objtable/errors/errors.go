// Package errors provides the error taxonomy for the object table. This is a
// leaf package with no internal dependencies so it can be imported by the
// table, the wire codec, and the dispatcher without creating cycles.
package errors

import "fmt"

// ErrorCode represents the kind of failure a table operation reports.
type ErrorCode int

const (
	// ErrNoSpace indicates an id index would exceed MAX_OBJECTS, or a
	// growth allocation failed.
	ErrNoSpace ErrorCode = iota + 1

	// ErrInvalid indicates an ill-formed request: a non-contiguous
	// insert_at, a wrong-side reserve_new, or reserve_new on an occupied
	// slot.
	ErrInvalid

	// ErrOutOfRange indicates an operation addressed an id beyond the
	// grown vector for its half.
	ErrOutOfRange

	// ErrNoOp names the case where a call succeeds trivially without
	// effect (mark_deleted on an id in the half opposite the table's own).
	// MarkDeleted reports that case as a nil error, not with this code.
	ErrNoOp
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNoSpace:
		return "NoSpace"
	case ErrInvalid:
		return "Invalid"
	case ErrOutOfRange:
		return "OutOfRange"
	case ErrNoOp:
		return "NoOp"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// TableError reports a failed table operation together with the offending id.
type TableError struct {
	Code    ErrorCode
	Message string
	ID      uint32
}

// Error implements the error interface.
func (e *TableError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s: %s (id: %#x)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNoSpaceError reports that growing a table's half would exceed MAX_OBJECTS.
func NewNoSpaceError(id uint32) *TableError {
	return &TableError{Code: ErrNoSpace, Message: "object index exceeds MAX_OBJECTS", ID: id}
}

// NewInvalidError reports an ill-formed request against a specific id.
func NewInvalidError(id uint32, reason string) *TableError {
	return &TableError{Code: ErrInvalid, Message: reason, ID: id}
}

// NewOutOfRangeError reports an id beyond the grown vector for its half.
func NewOutOfRangeError(id uint32) *TableError {
	return &TableError{Code: ErrOutOfRange, Message: "id not allocated in this table", ID: id}
}

// IsNoSpace reports whether err is a TableError with code ErrNoSpace.
func IsNoSpace(err error) bool { return hasCode(err, ErrNoSpace) }

// IsInvalid reports whether err is a TableError with code ErrInvalid.
func IsInvalid(err error) bool { return hasCode(err, ErrInvalid) }

// IsOutOfRange reports whether err is a TableError with code ErrOutOfRange.
func IsOutOfRange(err error) bool { return hasCode(err, ErrOutOfRange) }

func hasCode(err error, code ErrorCode) bool {
	te, ok := err.(*TableError)
	return ok && te.Code == code
}
