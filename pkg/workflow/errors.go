package workflow

import "errors"

// ErrForbidden is the rejection produced by the access-control predicates.
// It is reported to the caller and logged; no store mutation is attempted.
var ErrForbidden = errors.New("forbidden")

// UsageError is a validation failure on caller input. It is reported to the
// caller verbatim and never retried; the transaction is rolled back with no
// side effects.
type UsageError struct {
	msg string
}

// NewUsageError creates a new UsageError.
func NewUsageError(msg string) *UsageError {
	return &UsageError{msg: msg}
}

func (e *UsageError) Error() string {
	return e.msg
}

// IsUsageError reports whether err is a caller-input validation failure.
func IsUsageError(err error) bool {
	ue := new(UsageError)
	return errors.As(err, &ue)
}
