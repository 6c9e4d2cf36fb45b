package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chachabrian/hall-booking/internal/gateway"
	"github.com/chachabrian/hall-booking/internal/metrics"
	"github.com/chachabrian/hall-booking/internal/models"
)

// PaymentOrder is returned to the client to open the gateway checkout.
type PaymentOrder struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId"`
}

// VerifyRequest is the checkout callback forwarded by the client.
type VerifyRequest struct {
	BookingID        uint
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

var paidStatuses = []models.PaymentStatus{models.PaymentStatusAdvancePaid, models.PaymentStatusPaid}

// minorUnits converts an amount to the gateway's smallest currency unit.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreatePaymentOrder opens a gateway order for the advance of a booking and
// records the order id on it.
func (s *Service) CreatePaymentOrder(ctx context.Context, bookingID uint) (*PaymentOrder, error) {
	po, err := s.createPaymentOrder(ctx, bookingID)
	metrics.IncPayment("create", paymentResult(err))
	return po, err
}

func (s *Service) createPaymentOrder(ctx context.Context, bookingID uint) (*PaymentOrder, error) {
	if s.gateway == nil {
		return nil, errors.New("payment gateway is not configured")
	}
	db := s.db.WithContext(ctx)
	b, err := findBooking(db, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus.Paid() {
		return nil, ErrAlreadyPaid
	}
	if b.BookingStatus == models.BookingStatusCancelled {
		return nil, invalid("booking %d is cancelled", b.ID)
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   minorUnits(b.AdvanceAmount),
		Currency: s.currency,
		Receipt:  uuid.NewString(),
		Notes: map[string]string{
			"booking_id":   strconv.FormatUint(uint64(b.ID), 10),
			"booking_date": b.BookingDate,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order for booking %d: %w", b.ID, err)
	}

	res := db.Model(&models.Booking{}).
		Where("id = ? AND payment_status NOT IN ?", b.ID, paidStatuses).
		Updates(map[string]interface{}{"gateway_order_id": order.ID, "updated_at": s.now()})
	if res.Error != nil {
		return nil, fmt.Errorf("store gateway order for booking %d: %w", b.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyPaid
	}

	s.log.Info().Uint("booking_id", b.ID).Str("gateway_order_id", order.ID).Int64("amount", order.Amount).
		Msg("payment order created")
	return &PaymentOrder{
		GatewayOrderID: order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

// VerifyPayment checks the gateway signature and confirms the booking. A
// booking that is already paid yields ErrAlreadyPaid and is left unchanged.
// A cancelled booking is refused, and an hourly booking whose hours were
// taken while it waited for payment yields a ConflictError.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyRequest) (*models.Booking, error) {
	b, err := s.verifyPayment(ctx, req)
	metrics.IncPayment("verify", paymentResult(err))
	return b, err
}

func (s *Service) verifyPayment(ctx context.Context, req VerifyRequest) (*models.Booking, error) {
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, invalid("gatewayOrderId, gatewayPaymentId and signature are required")
	}
	if s.gateway == nil {
		return nil, errors.New("payment gateway is not configured")
	}
	if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		s.log.Warn().Uint("booking_id", req.BookingID).Str("gateway_order_id", req.GatewayOrderID).
			Msg("payment signature mismatch")
		return nil, ErrSignatureMismatch
	}

	st, err := s.resolveSettings(ctx)
	if err != nil {
		return nil, err
	}

	var b models.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Clauses(clause.Locking{Strength: "UPDATE"})
		if req.BookingID != 0 {
			q = q.Where("id = ?", req.BookingID)
		}
		if err := q.Where("gateway_order_id = ?", req.GatewayOrderID).First(&b).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load booking for order %s: %w", req.GatewayOrderID, err)
		}
		if b.PaymentStatus.Paid() {
			return ErrAlreadyPaid
		}
		if b.BookingStatus == models.BookingStatusCancelled {
			return invalid("booking %d is cancelled", b.ID)
		}
		if !b.IsLegacy() {
			if err := claimHours(tx, &b, st); err != nil {
				return err
			}
		}

		now := s.now()
		b.MarkAdvancePaid(req.GatewayPaymentID, now)
		b.UpdatedAt = now
		if err := tx.Model(&b).Select("payment_status", "booking_status", "gateway_payment_id", "paid_at", "updated_at").
			Updates(&b).Error; err != nil {
			return fmt.Errorf("confirm booking %d: %w", b.ID, err)
		}

		if b.IsLegacy() {
			block := models.BlockedSlot{BookingDate: b.BookingDate, SlotName: b.TimeSlot, BookingID: b.ID, CreatedAt: now}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&block).Error; err != nil {
				return fmt.Errorf("block slot %s/%s: %w", b.BookingDate, b.TimeSlot, err)
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyPaid):
			s.log.Info().Uint("booking_id", b.ID).Str("gateway_order_id", req.GatewayOrderID).Msg("payment already verified")
		case IsConflict(err), errors.Is(err, ErrValidation):
			s.log.Warn().Uint("booking_id", b.ID).Str("gateway_payment_id", req.GatewayPaymentID).Err(err).
				Msg("payment captured for a booking that cannot be confirmed")
		}
		return nil, err
	}

	s.log.Info().Uint("booking_id", b.ID).Str("gateway_payment_id", req.GatewayPaymentID).Msg("advance payment verified")
	s.publish(ctx, &b, EventConfirmed)
	return &b, nil
}

// claimHours re-checks an unpaid hourly booking's hours under the hour locks.
// An ONLINE hold does not own its hours, so a cash booking or another paid
// hold may have taken them since allocation.
func claimHours(tx *gorm.DB, b *models.Booking, st Settings) error {
	hours := []int(b.HourSlots)
	if len(hours) == 0 {
		return nil
	}
	if err := lockHours(tx, b.BookingDate, hours); err != nil {
		return err
	}
	owned, err := occupiedHours(tx, b.BookingDate, st, hours)
	if err != nil {
		return err
	}
	for h, owner := range owned {
		if owner == b.ID {
			delete(owned, h)
		}
	}
	if len(owned) > 0 {
		return &ConflictError{Date: b.BookingDate, Hours: sortedHours(owned)}
	}
	return nil
}

func paymentResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature_mismatch"
	case IsConflict(err):
		return "conflict"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return "rejected"
	default:
		return "error"
	}
}
