package store

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// statusError carries a user-facing message while still matching one of the
// sentinel errors above with errors.Is.
type statusError struct {
	kind error
	msg  string
}

func (e *statusError) Error() string { return e.msg }
func (e *statusError) Unwrap() error { return e.kind }

func notFound(msg string) error  { return &statusError{kind: ErrNotFound, msg: msg} }
func forbidden(msg string) error { return &statusError{kind: ErrForbidden, msg: msg} }

// FieldError rejects a single request field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }
