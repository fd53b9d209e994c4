package membership

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected operation
type Kind string

const (
	KindPermissionDenied       Kind = "PermissionDenied"
	KindNotFound               Kind = "NotFound"
	KindNameConflict           Kind = "NameConflict"
	KindInvariantViolation     Kind = "InvariantViolation"
	KindNotEmpty               Kind = "NotEmpty"
	KindHasMembers             Kind = "HasMembers"
	KindBanned                 Kind = "Banned"
	KindChannelFull            Kind = "ChannelFull"
	KindGroupFull              Kind = "GroupFull"
	KindNotGroupMember         Kind = "NotGroupMember"
	KindDuplicateRequest       Kind = "DuplicateRequest"
	KindAlreadyMember          Kind = "AlreadyMember"
	KindInvalidStateTransition Kind = "InvalidStateTransition"
	KindInvalidInput           Kind = "InvalidInput"
)

// Error is returned for every rejected operation. Store failures are not
// Errors; they are wrapped with %w and carry no kind.
type Error struct {
	Kind    Kind
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of Op and Message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrPermissionDenied       = &Error{Kind: KindPermissionDenied}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrNameConflict           = &Error{Kind: KindNameConflict}
	ErrInvariantViolation     = &Error{Kind: KindInvariantViolation}
	ErrNotEmpty               = &Error{Kind: KindNotEmpty}
	ErrHasMembers             = &Error{Kind: KindHasMembers}
	ErrBanned                 = &Error{Kind: KindBanned}
	ErrChannelFull            = &Error{Kind: KindChannelFull}
	ErrGroupFull              = &Error{Kind: KindGroupFull}
	ErrNotGroupMember         = &Error{Kind: KindNotGroupMember}
	ErrDuplicateRequest       = &Error{Kind: KindDuplicateRequest}
	ErrAlreadyMember          = &Error{Kind: KindAlreadyMember}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrInvalidInput           = &Error{Kind: KindInvalidInput}
)

// NewError builds an *Error
func NewError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
