package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/chachabrian/hall-booking/internal/gateway"
	"github.com/chachabrian/hall-booking/internal/models"
)

const dateLayout = "2006-01-02"

// Event types published after a booking transition commits.
const (
	EventAllocated     = "booking.allocated"
	EventConfirmed     = "booking.confirmed"
	EventCancelled     = "booking.cancelled"
	EventStatusChanged = "booking.status_changed"
	EventSettled       = "booking.settled"
	EventReclaimed     = "booking.reclaimed"
)

// Event describes a committed booking transition.
type Event struct {
	Type        string    `json:"type"`
	BookingID   uint      `json:"bookingId"`
	BookingDate string    `json:"bookingDate"`
	Hours       []int     `json:"hours,omitempty"`
	Status      string    `json:"bookingStatus,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher delivers booking events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Publishers fans an event out to every publisher, joining their errors.
type Publishers []Publisher

func (ps Publishers) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range ps {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options configures a Service.
type Options struct {
	Settings SettingsProvider
	Gateway  gateway.Gateway
	Events   Publisher
	Currency string
	Location *time.Location
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Service implements availability, allocation, payment and admin settlement
// for the hall. All coordination between concurrent requests happens in the
// database.
type Service struct {
	db       *gorm.DB
	settings SettingsProvider
	gateway  gateway.Gateway
	events   Publisher
	currency string
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

func NewService(db *gorm.DB, opts Options) *Service {
	s := &Service{
		db:       db,
		settings: opts.Settings,
		gateway:  opts.Gateway,
		events:   opts.Events,
		currency: opts.Currency,
		loc:      opts.Location,
		now:      opts.Now,
		log:      opts.Logger,
	}
	if s.settings == nil {
		s.settings = NewStoreSettings(db)
	}
	if s.currency == "" {
		s.currency = "INR"
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// today returns the current date in the service location.
func (s *Service) today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

// parseDate normalizes a YYYY-MM-DD date.
func (s *Service) parseDate(raw string) (string, error) {
	d, err := time.ParseInLocation(dateLayout, raw, s.loc)
	if err != nil {
		return "", invalid("bookingDate must be YYYY-MM-DD")
	}
	return d.Format(dateLayout), nil
}

func (s *Service) publish(ctx context.Context, b *models.Booking, typ string) {
	if s.events == nil {
		return
	}
	ev := Event{
		Type:        typ,
		BookingID:   b.ID,
		BookingDate: b.BookingDate,
		Hours:       []int(b.HourSlots),
		Status:      string(b.BookingStatus),
		OccurredAt:  s.now(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", typ).Uint("booking_id", b.ID).Msg("publish booking event")
	}
}

func (s *Service) resolveSettings(ctx context.Context) (Settings, error) {
	st, err := s.settings.Settings(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("resolve settings: %w", err)
	}
	return st, nil
}

// findBooking loads a booking by id, mapping a missing row to ErrNotFound.
func findBooking(tx *gorm.DB, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := tx.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking %d: %w", id, err)
	}
	return &b, nil
}
