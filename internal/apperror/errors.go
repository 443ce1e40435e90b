package apperror

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the data-access gateway and handlers. Handlers map
// these to HTTP status codes; everything else is treated as internal.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("concurrent modification conflict")
	ErrInternal   = errors.New("internal error")
)

// Validationf wraps ErrValidation with a caller-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with the entity name. The message is the same
// whether the record never existed, is soft-deleted, or belongs to another
// tenant.
func NotFoundf(entity string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, entity)
}

// IsRetryable reports whether the caller can retry the operation after
// re-reading current state. Only concurrency conflicts qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
