package scheduling

import "errors"

var (
	ErrNotFound  = errors.New("appointment not found")
	ErrForbidden = errors.New("not allowed")
)

// ValidationError marks a client mistake the handler maps to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErr(msg string) error { return &ValidationError{Msg: msg} }
