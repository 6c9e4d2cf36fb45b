package booking

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/chachabrian/hall-booking/internal/metrics"
	"github.com/chachabrian/hall-booking/internal/models"
)

// BookingView is one row of the admin listing.
type BookingView struct {
	models.Booking
	SlotDisplay string           `json:"slotDisplay"`
	Lifecycle   models.Lifecycle `json:"lifecycle"`
}

// SlotDisplay renders the booked time as "10:00 - 12:00" for hourly bookings
// or the slot name for legacy ones.
func SlotDisplay(b *models.Booking) string {
	if len(b.HourSlots) > 0 {
		first, last := b.HourSlots[0], b.HourSlots[0]
		for _, h := range b.HourSlots {
			if h < first {
				first = h
			}
			if h > last {
				last = h
			}
		}
		return models.HourLabel(first) + " - " + models.HourLabel(last+1)
	}
	return strings.ReplaceAll(string(b.TimeSlot), "_", " ")
}

// ListBookings returns bookings newest first, optionally filtered by status.
func (s *Service) ListBookings(ctx context.Context, status string) ([]BookingView, error) {
	q := s.db.WithContext(ctx).Preload("Slots", func(db *gorm.DB) *gorm.DB {
		return db.Order("hour")
	}).Order("created_at DESC").Order("id DESC")
	if status != "" {
		st := models.BookingStatus(strings.ToUpper(status))
		if !st.Valid() {
			return nil, invalid("unknown booking status %q", status)
		}
		q = q.Where("booking_status = ?", st)
	}

	var rows []models.Booking
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	out := make([]BookingView, len(rows))
	for i := range rows {
		out[i] = BookingView{
			Booking:     rows[i],
			SlotDisplay: SlotDisplay(&rows[i]),
			Lifecycle:   rows[i].Lifecycle(),
		}
	}
	return out, nil
}

// SetBookingStatus is the admin override. Only CONFIRMED, COMPLETED and
// CANCELLED may be set; any of them may follow any other.
func (s *Service) SetBookingStatus(ctx context.Context, id uint, status models.BookingStatus) (*models.Booking, error) {
	switch status {
	case models.BookingStatusConfirmed, models.BookingStatusCompleted, models.BookingStatusCancelled:
	default:
		return nil, invalid("bookingStatus must be CONFIRMED, COMPLETED or CANCELLED")
	}

	var b *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if b, err = findBooking(tx, id); err != nil {
			return err
		}
		if status == models.BookingStatusCancelled {
			b.Cancel()
		} else {
			b.SetStatus(status)
		}
		b.UpdatedAt = s.now()
		return tx.Model(b).Select("booking_status", "updated_at").Updates(b).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.IncAdminAction("set_status")
	s.log.Info().Uint("booking_id", b.ID).Str("booking_status", string(status)).Msg("booking status changed by admin")
	if status == models.BookingStatusCancelled {
		s.publish(ctx, b, EventCancelled)
	} else {
		s.publish(ctx, b, EventStatusChanged)
	}
	return b, nil
}

// SettleRemaining records that the balance was collected. Repeating it is
// harmless apart from moving paidAt.
func (s *Service) SettleRemaining(ctx context.Context, id uint) (*models.Booking, error) {
	var b *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if b, err = findBooking(tx, id); err != nil {
			return err
		}
		now := s.now()
		b.SettleRemaining(now)
		b.UpdatedAt = now
		return tx.Model(b).Select("payment_status", "remaining_amount", "paid_at", "updated_at").Updates(b).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.IncAdminAction("settle_remaining")
	s.log.Info().Uint("booking_id", b.ID).Msg("remaining payment settled")
	s.publish(ctx, b, EventSettled)
	return b, nil
}

// RefreshSettings drops any cached settings snapshot and returns the one now
// in effect.
func (s *Service) RefreshSettings(ctx context.Context) (Settings, error) {
	if inv, ok := s.settings.(SettingsInvalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			return Settings{}, fmt.Errorf("invalidate settings: %w", err)
		}
	}
	st, err := s.resolveSettings(ctx)
	if err != nil {
		return Settings{}, err
	}

	s.log.Info().Float64("hourly_rate", st.HourlyRate).Int("start_hour", st.StartHour).Int("end_hour", st.EndHour).
		Msg("settings refreshed")
	metrics.IncAdminAction("refresh_settings")
	return st, nil
}
