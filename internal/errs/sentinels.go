// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist (or must be
	// presented as non-existent to the caller).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation is the target for all invalid-input errors; the concrete
	// error carries the wire message.
	ErrValidation = errors.New("validation")
)

type validationError struct{ msg string }

func (e *validationError) Error() string        { return e.msg }
func (e *validationError) Is(target error) bool { return target == ErrValidation }

// Validation returns an invalid-input error whose message is sent to the
// client verbatim. errors.Is(err, ErrValidation) holds for the result.
func Validation(msg string) error { return &validationError{msg: msg} }
