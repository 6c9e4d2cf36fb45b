package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/hall-booking/internal/booking"
)

// CreatePaymentOrder opens a gateway order for the booking's advance.
func CreatePaymentOrder(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			BookingID uint `json:"bookingId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		po, err := svc.CreatePaymentOrder(c.Request.Context(), input.BookingID)
		if err != nil {
			respondError(c, err, "Failed to create payment order")
			return
		}
		c.JSON(200, po)
	}
}

// VerifyPayment confirms a booking from the gateway checkout callback.
func VerifyPayment(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			GatewayOrderID   string `json:"gatewayOrderId" binding:"required"`
			GatewayPaymentID string `json:"gatewayPaymentId" binding:"required"`
			Signature        string `json:"signature" binding:"required"`
			BookingID        uint   `json:"bookingId"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"success": false, "error": err.Error()})
			return
		}

		b, err := svc.VerifyPayment(c.Request.Context(), booking.VerifyRequest{
			BookingID:        input.BookingID,
			GatewayOrderID:   input.GatewayOrderID,
			GatewayPaymentID: input.GatewayPaymentID,
			Signature:        input.Signature,
		})
		if err != nil {
			respondError(c, err, "Payment could not be confirmed, please retry verification")
			return
		}
		c.JSON(200, gin.H{
			"success":       true,
			"bookingId":     b.ID,
			"bookingStatus": b.BookingStatus,
			"paymentStatus": b.PaymentStatus,
		})
	}
}
