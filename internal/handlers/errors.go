package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/hall-booking/internal/booking"
	"github.com/chachabrian/hall-booking/internal/models"
)

// respondError maps booking errors to status codes. Anything unrecognised is
// an infrastructure failure and gets fallback instead of the raw error.
func respondError(c *gin.Context, err error, fallback string) {
	var conflict *booking.ConflictError
	switch {
	case errors.As(err, &conflict):
		slots := make([]string, len(conflict.Hours))
		for i, h := range conflict.Hours {
			slots[i] = models.HourLabel(h)
		}
		c.JSON(409, gin.H{
			"error":            "Selected time slots are no longer available",
			"conflictingSlots": slots,
			"conflictingHours": conflict.Hours,
		})
	case errors.Is(err, booking.ErrValidation):
		c.JSON(400, gin.H{"error": validationMessage(err)})
	case errors.Is(err, booking.ErrAlreadyPaid):
		c.JSON(409, gin.H{"error": "Booking is already paid"})
	case errors.Is(err, booking.ErrSignatureMismatch):
		c.JSON(400, gin.H{"success": false, "error": "Payment signature verification failed"})
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(404, gin.H{"error": "Booking not found"})
	default:
		_ = c.Error(err)
		c.JSON(500, gin.H{"error": fallback})
	}
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), booking.ErrValidation.Error()+": ")
	if msg == "" {
		return booking.ErrValidation.Error()
	}
	return msg
}
