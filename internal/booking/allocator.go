package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chachabrian/hall-booking/internal/metrics"
	"github.com/chachabrian/hall-booking/internal/models"
)

// Customer carries the contact details shared by both booking flows.
type Customer struct {
	CustomerName   string
	Mobile         string
	Occasion       string
	SpecialRequest string
	PaymentMethod  models.PaymentMethod
}

// HourlyRequest asks for a contiguous run of hours on one date.
type HourlyRequest struct {
	Customer
	BookingDate string
	Hours       []int
}

// FixedSlotRequest asks for a legacy morning/evening/full-day slot.
type FixedSlotRequest struct {
	Customer
	BookingDate string
	TimeSlot    models.FixedSlot
}

// Amounts splits a total into the advance collected now and the balance.
func Amounts(hours int, rate float64) (total, advance, remaining float64) {
	total = round2(float64(hours) * rate)
	advance = round2(total / 2)
	remaining = round2(total - advance)
	return total, advance, remaining
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (c *Customer) normalize() error {
	c.CustomerName = strings.TrimSpace(c.CustomerName)
	c.Mobile = strings.TrimSpace(c.Mobile)
	if c.CustomerName == "" {
		return invalid("customerName is required")
	}
	if c.Mobile == "" {
		return invalid("mobile is required")
	}
	switch c.PaymentMethod {
	case "":
		c.PaymentMethod = models.PaymentMethodOnline
	case models.PaymentMethodCash, models.PaymentMethodOnline:
	default:
		return invalid("paymentMethod must be CASH or ONLINE")
	}
	return nil
}

// validateHours sorts hours and checks they form a contiguous run inside the
// operating window.
func validateHours(hours []int, st Settings) ([]int, error) {
	if len(hours) == 0 {
		return nil, invalid("selectedSlots must not be empty")
	}
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)
	for i, h := range sorted {
		if h < st.StartHour || h >= st.EndHour {
			return nil, invalid("hour %d is outside operating hours %s-%s", h, models.HourLabel(st.StartHour), models.HourLabel(st.EndHour))
		}
		if i > 0 && h != sorted[i-1]+1 {
			if h == sorted[i-1] {
				return nil, invalid("hour %d selected twice", h)
			}
			return nil, invalid("selected slots must be contiguous")
		}
	}
	return sorted, nil
}

func (s *Service) validateDate(raw string) (string, error) {
	date, err := s.parseDate(raw)
	if err != nil {
		return "", err
	}
	if date < s.today() {
		return "", invalid("bookingDate %s is in the past", date)
	}
	return date, nil
}

func initialStatus(pm models.PaymentMethod) models.BookingStatus {
	if pm == models.PaymentMethodCash {
		return models.BookingStatusConfirmed
	}
	return models.BookingStatusPending
}

// BookHourly validates and atomically reserves a contiguous run of hours.
// Overlapping allocations serialize on the hour lock rows; the loser sees the
// winner's commit and gets a ConflictError.
func (s *Service) BookHourly(ctx context.Context, req HourlyRequest) (*models.Booking, error) {
	b, err := s.bookHourly(ctx, req)
	switch {
	case err == nil:
		metrics.IncAllocation("success")
	case IsConflict(err):
		metrics.IncAllocation("conflict")
	case errors.Is(err, ErrValidation):
		metrics.IncAllocation("invalid")
	default:
		metrics.IncAllocation("error")
	}
	return b, err
}

func (s *Service) bookHourly(ctx context.Context, req HourlyRequest) (*models.Booking, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	st, err := s.resolveSettings(ctx)
	if err != nil {
		return nil, err
	}
	hours, err := validateHours(req.Hours, st)
	if err != nil {
		return nil, err
	}
	date, err := s.validateDate(req.BookingDate)
	if err != nil {
		return nil, err
	}

	total, advance, remaining := Amounts(len(hours), st.HourlyRate)
	now := s.now()
	b := &models.Booking{
		CustomerName:    req.CustomerName,
		Mobile:          req.Mobile,
		Occasion:        req.Occasion,
		SpecialRequest:  req.SpecialRequest,
		BookingDate:     date,
		HourSlots:       datatypes.NewJSONSlice(hours),
		TotalAmount:     total,
		AdvanceAmount:   advance,
		RemainingAmount: remaining,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		BookingStatus:   initialStatus(req.PaymentMethod),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockHours(tx, date, hours); err != nil {
			return err
		}
		owned, err := occupiedHours(tx, date, st, hours)
		if err != nil {
			return err
		}
		if len(owned) > 0 {
			return &ConflictError{Date: date, Hours: sortedHours(owned)}
		}

		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		slots := make([]models.Slot, len(hours))
		for i, h := range hours {
			slots[i] = models.NewSlot(b.ID, date, h)
			slots[i].CreatedAt = now
		}
		if err := tx.Create(&slots).Error; err != nil {
			return fmt.Errorf("insert slots: %w", err)
		}
		b.Slots = slots
		return nil
	})
	// The hour locks already serialize allocators, so this only fires where the
	// store adds its own unique index over (booking_date, hour) slot rows.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = &ConflictError{Date: date, Hours: hours}
	}
	if err != nil {
		if IsConflict(err) {
			s.log.Info().Str("booking_date", date).Ints("hours", hours).Err(err).Msg("allocation conflict")
		}
		return nil, err
	}

	s.log.Info().Uint("booking_id", b.ID).Str("booking_date", date).Ints("hours", hours).
		Str("payment_method", string(b.PaymentMethod)).Msg("hall booking allocated")
	s.publish(ctx, b, EventAllocated)
	return b, nil
}

// lockHours makes sure a lock row exists for every requested hour and then
// locks them in ascending order so concurrent allocators cannot deadlock.
func lockHours(tx *gorm.DB, date string, hours []int) error {
	locks := make([]models.HourLock, len(hours))
	for i, h := range hours {
		locks[i] = models.HourLock{BookingDate: date, Hour: h}
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&locks).Error; err != nil {
		return fmt.Errorf("ensure hour locks: %w", err)
	}
	var locked []models.HourLock
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_date = ? AND hour IN ?", date, hours).
		Order("hour").
		Find(&locked).Error; err != nil {
		return fmt.Errorf("lock hours: %w", err)
	}
	return nil
}

// BookFixedSlot creates a legacy fixed-slot booking. Unlike the hourly flow
// it takes no lock: the slot is excluded only once a payment verifies, so two
// unpaid legacy bookings may race for the same slot and the first payment
// wins.
func (s *Service) BookFixedSlot(ctx context.Context, req FixedSlotRequest) (*models.Booking, error) {
	b, err := s.bookFixedSlot(ctx, req)
	switch {
	case err == nil:
		metrics.IncAllocation("success")
	case IsConflict(err):
		metrics.IncAllocation("conflict")
	case errors.Is(err, ErrValidation):
		metrics.IncAllocation("invalid")
	default:
		metrics.IncAllocation("error")
	}
	return b, err
}

func (s *Service) bookFixedSlot(ctx context.Context, req FixedSlotRequest) (*models.Booking, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if !req.TimeSlot.Valid() {
		return nil, invalid("timeSlot must be morning, evening or full_day")
	}
	st, err := s.resolveSettings(ctx)
	if err != nil {
		return nil, err
	}
	date, err := s.validateDate(req.BookingDate)
	if err != nil {
		return nil, err
	}
	hours := st.FixedSlotHours(req.TimeSlot)

	db := s.db.WithContext(ctx)
	owned, err := occupiedHours(db, date, st, hours)
	if err != nil {
		return nil, err
	}
	if len(owned) > 0 {
		return nil, &ConflictError{Date: date, Hours: sortedHours(owned)}
	}

	total, advance, remaining := Amounts(len(hours), st.HourlyRate)
	now := s.now()
	b := &models.Booking{
		CustomerName:    req.CustomerName,
		Mobile:          req.Mobile,
		Occasion:        req.Occasion,
		SpecialRequest:  req.SpecialRequest,
		BookingDate:     date,
		TimeSlot:        req.TimeSlot,
		TotalAmount:     total,
		AdvanceAmount:   advance,
		RemainingAmount: remaining,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		BookingStatus:   initialStatus(req.PaymentMethod),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(b).Error; err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	s.log.Info().Uint("booking_id", b.ID).Str("booking_date", date).Str("time_slot", string(b.TimeSlot)).
		Msg("legacy hall booking created")
	s.publish(ctx, b, EventAllocated)
	return b, nil
}
