// SPDX-License-Identifier: MIT
// Grounded on server/handler/response.go's APIResponse/ErrorCodeToHTTP.
package apierrors

import "fmt"

// Kind is the wire-stable error taxonomy of spec.md §7.
type Kind string

const (
	KindError                   Kind = "ERROR"
	KindInvalidArgument         Kind = "INVALID_ARGUMENT"
	KindInsufficientPermissions Kind = "INSUFFICIENT_PERMISSIONS"
	KindInvalidToken            Kind = "INVALID_TOKEN"
	KindInvalidPassword         Kind = "INVALID_PASSWORD"
)

// Error is the discriminated result error every externally visible
// operation returns: a Kind plus a human message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// As extracts an *Error from err, returning (nil, false) if err is not one.
func As(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	e, ok := err.(*Error)
	return e, ok
}

// HTTPStatus maps a Kind to an HTTP status code per spec.md §6/§7,
// mirroring the teacher's ErrorCodeToHTTP switch.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidArgument:
		return 400
	case KindInvalidToken:
		return 401
	case KindInvalidPassword:
		return 401
	case KindInsufficientPermissions:
		return 403
	default:
		return 500
	}
}
