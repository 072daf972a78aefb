package domain

import "errors"

// Error classes. Every error returned by the identity use cases unwraps to
// exactly one of them, which decides the status class at the transport edge.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrCapability     = errors.New("capability error")
	ErrAuthentication = errors.New("authentication error")
	ErrDelivery       = errors.New("delivery error")
	ErrPersistence    = errors.New("persistence error")
)

// Error is a classified error with a human readable message.
type Error struct {
	class error
	msg   string
}

// NewError builds an error of the given class.
func NewError(class error, msg string) *Error {
	return &Error{class: class, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap exposes the error class to errors.Is.
func (e *Error) Unwrap() error {
	return e.class
}

// Class returns the error class of err, or nil when err is unclassified.
func Class(err error) error {
	for _, class := range []error{
		ErrValidation,
		ErrNotFound,
		ErrConflict,
		ErrCapability,
		ErrAuthentication,
		ErrDelivery,
		ErrPersistence,
	} {
		if errors.Is(err, class) {
			return class
		}
	}
	return nil
}
