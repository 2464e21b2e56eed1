package common

import "errors"

var (
	// input and policy errors
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("already exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyVerified = errors.New("already verified")

	// token specific errors
	ErrInvalidToken = errors.New("invalid token")

	ErrInternal = errors.New("internal error")
)

// ValidationError carries a user-facing message for malformed input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return ErrValidation.Error()
	}
	return e.Err.Error()
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err as a ValidationError. A nil err stays nil.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}
