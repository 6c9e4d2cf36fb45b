package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chachabrian/hall-booking/internal/models"
)

var (
	// ErrValidation marks malformed input. No transaction was opened.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned for unknown bookings.
	ErrNotFound = errors.New("booking not found")
	// ErrAlreadyPaid is returned when a payment step targets a paid booking.
	ErrAlreadyPaid = errors.New("booking already paid")
	// ErrSignatureMismatch is returned when a gateway callback fails HMAC verification.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ConflictError reports hours that are already held by an active booking.
type ConflictError struct {
	Date  string
	Hours []int
}

func (e *ConflictError) Error() string {
	labels := make([]string, len(e.Hours))
	for i, h := range e.Hours {
		labels[i] = models.HourLabel(h)
	}
	return fmt.Sprintf("slots already booked on %s: %s", e.Date, strings.Join(labels, ", "))
}

// IsConflict reports whether err carries a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
