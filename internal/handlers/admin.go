package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/hall-booking/internal/booking"
	"github.com/chachabrian/hall-booking/internal/metrics"
	"github.com/chachabrian/hall-booking/internal/models"
	"github.com/chachabrian/hall-booking/internal/services"
)

func bookingID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(400, gin.H{"error": "Invalid booking id"})
		return 0, false
	}
	return uint(id), true
}

// ListHallBookings returns every booking, newest first.
func ListHallBookings(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListBookings(c.Request.Context(), c.Query("status"))
		if err != nil {
			respondError(c, err, "Failed to fetch bookings")
			return
		}
		c.JSON(200, gin.H{"bookings": rows, "count": len(rows)})
	}
}

// UpdateHallBookingStatus is the admin status override.
func UpdateHallBookingStatus(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookingID(c)
		if !ok {
			return
		}
		var input struct {
			BookingStatus string `json:"bookingStatus" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		status := models.BookingStatus(strings.ToUpper(input.BookingStatus))
		b, err := svc.SetBookingStatus(c.Request.Context(), id, status)
		if err != nil {
			respondError(c, err, "Failed to update booking status")
			return
		}
		c.JSON(200, gin.H{
			"success":       true,
			"message":       "Booking status updated",
			"bookingId":     b.ID,
			"bookingStatus": b.BookingStatus,
		})
	}
}

// SettleRemainingPayment marks the balance of a booking as collected.
func SettleRemainingPayment(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookingID(c)
		if !ok {
			return
		}

		b, err := svc.SettleRemaining(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "Failed to update payment")
			return
		}
		c.JSON(200, gin.H{
			"success":         true,
			"message":         "Remaining payment recorded",
			"bookingId":       b.ID,
			"paymentStatus":   b.PaymentStatus,
			"remainingAmount": b.RemainingAmount,
		})
	}
}

// ExportHallBookings renders the listing to xlsx and stores it.
func ExportHallBookings(svc *booking.Service, store services.ReportStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := strings.ToUpper(c.Query("status"))
		rows, err := svc.ListBookings(c.Request.Context(), status)
		if err != nil {
			respondError(c, err, "Failed to fetch bookings")
			return
		}

		data, err := services.BuildBookingsReport(rows)
		if err != nil {
			_ = c.Error(err)
			c.JSON(500, gin.H{"error": "Failed to build report"})
			return
		}

		url, err := store.Save(c.Request.Context(), services.ReportName(status, time.Now()), data, services.XLSXContentType)
		if err != nil {
			_ = c.Error(err)
			c.JSON(500, gin.H{"error": "Failed to store report"})
			return
		}

		metrics.IncAdminAction("export")
		c.JSON(200, gin.H{"url": url, "count": len(rows)})
	}
}

// RefreshSettings reloads pricing and opening hours after they change in the
// settings store.
func RefreshSettings(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.RefreshSettings(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to refresh settings")
			return
		}
		c.JSON(200, gin.H{"success": true, "settings": st})
	}
}
