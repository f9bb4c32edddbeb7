package types

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Handlers translate these to HTTP statuses with
// errors.Is/errors.As; none of them should ever crash the process.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("not enough permissions to perform this action")
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateBooking = errors.New("ticket already booked for this event")
	ErrSoldOut          = errors.New("no tickets left for this event")
	ErrPaymentRequired  = errors.New("event is not free and payments are not configured")
	ErrQRRenderTimeout  = errors.New("timed out rendering ticket code")
)

// ValidationError carries a field-level message surfaced to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
