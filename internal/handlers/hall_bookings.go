package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/hall-booking/internal/booking"
	"github.com/chachabrian/hall-booking/internal/models"
)

type customerInput struct {
	CustomerName   string `json:"customerName" binding:"required"`
	Mobile         string `json:"mobile" binding:"required"`
	BookingDate    string `json:"bookingDate" binding:"required"`
	Occasion       string `json:"occasion"`
	SpecialRequest string `json:"specialRequest"`
	PaymentMethod  string `json:"paymentMethod"`
}

func (in customerInput) customer() booking.Customer {
	return booking.Customer{
		CustomerName:   in.CustomerName,
		Mobile:         in.Mobile,
		Occasion:       in.Occasion,
		SpecialRequest: in.SpecialRequest,
		PaymentMethod:  models.PaymentMethod(in.PaymentMethod),
	}
}

func bookingCreated(c *gin.Context, b *models.Booking) {
	c.JSON(201, gin.H{
		"success":         true,
		"bookingId":       b.ID,
		"totalAmount":     b.TotalAmount,
		"advanceAmount":   b.AdvanceAmount,
		"remainingAmount": b.RemainingAmount,
		"bookingStatus":   b.BookingStatus,
		"paymentStatus":   b.PaymentStatus,
		"paymentMethod":   b.PaymentMethod,
	})
}

// CheckHourlyAvailability returns the hourly grid for a date.
func CheckHourlyAvailability(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			BookingDate string `json:"bookingDate" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		av, err := svc.Availability(c.Request.Context(), input.BookingDate)
		if err != nil {
			respondError(c, err, "Failed to check availability")
			return
		}
		c.JSON(200, av)
	}
}

// BookHourly reserves a contiguous run of hours.
func BookHourly(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			customerInput
			SelectedSlots []int `json:"selectedSlots" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		b, err := svc.BookHourly(c.Request.Context(), booking.HourlyRequest{
			Customer:    input.customer(),
			BookingDate: input.BookingDate,
			Hours:       input.SelectedSlots,
		})
		if err != nil {
			respondError(c, err, "Failed to create booking, please try again")
			return
		}
		bookingCreated(c, b)
	}
}

// BookFixedSlot is the legacy morning/evening/full-day booking.
func BookFixedSlot(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			customerInput
			TimeSlot string `json:"timeSlot" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		b, err := svc.BookFixedSlot(c.Request.Context(), booking.FixedSlotRequest{
			Customer:    input.customer(),
			BookingDate: input.BookingDate,
			TimeSlot:    models.FixedSlot(input.TimeSlot),
		})
		if err != nil {
			respondError(c, err, "Failed to create booking, please try again")
			return
		}
		bookingCreated(c, b)
	}
}
