package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure for the transport layer.
type ErrorKind int

const (
	KindUnauthorized ErrorKind = iota + 1
	KindForbidden
	KindNotFound
	KindExpired
	KindInvalidInput
	KindTooManyRequests
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindInvalidInput:
		return "invalid_input"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a tagged domain error with a stable code and a human-readable message.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on code so that wrapped copies created by Errorf still compare
// equal to the sentinel they were derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Errorf returns a copy of base with a more specific message.
func Errorf(base *Error, format string, args ...interface{}) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required"}
	ErrForbidden    = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: "Insufficient permissions for this action"}

	ErrTableNotFound     = &Error{Kind: KindNotFound, Code: "TABLE_NOT_FOUND", Message: "Table not found"}
	ErrOrderNotFound     = &Error{Kind: KindNotFound, Code: "ORDER_NOT_FOUND", Message: "Order not found"}
	ErrMenuItemNotFound  = &Error{Kind: KindNotFound, Code: "MENU_ITEM_NOT_FOUND", Message: "Menu item not found"}
	ErrProfileNotFound   = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "User profile not found"}
	ErrTokenNotFound     = &Error{Kind: KindNotFound, Code: "TOKEN_NOT_FOUND", Message: "Bill link invalid or expired"}
	ErrTokenExpired      = &Error{Kind: KindExpired, Code: "TOKEN_EXPIRED", Message: "Bill link invalid or expired"}
	ErrInvalidTable      = &Error{Kind: KindNotFound, Code: "INVALID_TABLE", Message: "Invalid table ID"}
	ErrInvalidTableState = &Error{Kind: KindConflict, Code: "INVALID_TABLE_STATE", Message: "Table is not in a valid state for consent submission"}

	ErrInvalidInput      = &Error{Kind: KindInvalidInput, Code: "VALIDATION_ERROR", Message: "Invalid request data"}
	ErrPhoneRequired     = &Error{Kind: KindInvalidInput, Code: "PHONE_REQUIRED", Message: "Phone number is required when consent is given"}
	ErrInvalidPhone      = &Error{Kind: KindInvalidInput, Code: "INVALID_PHONE", Message: "Invalid phone number format"}
	ErrMenuItemInactive  = &Error{Kind: KindInvalidInput, Code: "MENU_ITEM_UNAVAILABLE", Message: "Menu item is not available"}
	ErrInvalidCredential = &Error{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "Invalid email or password"}

	ErrTooManyConsents = &Error{Kind: KindTooManyRequests, Code: "TOO_MANY_REQUESTS", Message: "Too many consent submissions. Please try again later."}

	ErrInvalidTransition = &Error{Kind: KindConflict, Code: "INVALID_TRANSITION", Message: "Invalid state transition"}
	ErrTableInUse        = &Error{Kind: KindConflict, Code: "TABLE_IN_USE", Message: "Table number already has an open session"}
	ErrDuplicateUser     = &Error{Kind: KindConflict, Code: "USER_EXISTS", Message: "A user with this email or identifier already exists"}
	ErrCannotDeleteSelf  = &Error{Kind: KindConflict, Code: "CANNOT_DELETE_SELF", Message: "You cannot delete your own account"}
	ErrCannotDeleteAdmin = &Error{Kind: KindConflict, Code: "CANNOT_DELETE_ADMIN", Message: "Administrator accounts cannot be deleted"}
)
