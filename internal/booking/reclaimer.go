package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chachabrian/hall-booking/internal/metrics"
	"github.com/chachabrian/hall-booking/internal/models"
)

const (
	DefaultReclaimInterval = 10 * time.Minute
	DefaultReclaimTimeout  = 60 * time.Minute
)

// Reclaimer cancels online bookings whose advance was never paid so that
// their hours can be booked again.
type Reclaimer struct {
	db       *gorm.DB
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	events   Publisher
	log      zerolog.Logger
}

// ReclaimerOptions configures a Reclaimer. Zero values take the defaults.
type ReclaimerOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	Now      func() time.Time
	Events   Publisher
	Logger   zerolog.Logger
}

func NewReclaimer(db *gorm.DB, opts ReclaimerOptions) *Reclaimer {
	r := &Reclaimer{
		db:       db,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		now:      opts.Now,
		events:   opts.Events,
		log:      opts.Logger,
	}
	if r.interval <= 0 {
		r.interval = DefaultReclaimInterval
	}
	if r.timeout <= 0 {
		r.timeout = DefaultReclaimTimeout
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

func staleHolds(db *gorm.DB, cutoff time.Time) *gorm.DB {
	return db.Where("booking_status = ? AND payment_status = ? AND created_at < ?",
		models.BookingStatusPending, models.PaymentStatusPending, cutoff)
}

// RunOnce performs a single sweep and returns how many bookings were
// cancelled. The stale rows are locked before the guarded update so a
// concurrent payment either lands first or waits for the sweep.
func (r *Reclaimer) RunOnce(ctx context.Context) (int64, error) {
	now := r.now()
	cutoff := now.Add(-r.timeout)
	db := r.db.WithContext(ctx)

	var stale []models.Booking
	var cancelled int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := staleHolds(tx.Model(&models.Booking{}), cutoff).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id, booking_date, hour_slots").
			Find(&stale).Error; err != nil {
			return fmt.Errorf("find stale bookings: %w", err)
		}
		if len(stale) == 0 {
			return nil
		}
		ids := make([]uint, len(stale))
		for i, b := range stale {
			ids[i] = b.ID
		}
		res := staleHolds(tx.Model(&models.Booking{}), cutoff).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{"booking_status": models.BookingStatusCancelled, "updated_at": now})
		if res.Error != nil {
			return fmt.Errorf("cancel stale bookings: %w", res.Error)
		}
		cancelled = res.RowsAffected
		return nil
	})
	if err != nil {
		metrics.IncReclaimRun("error")
		return 0, err
	}
	if cancelled == 0 {
		metrics.IncReclaimRun("noop")
		return 0, nil
	}

	metrics.IncReclaimRun("ok")
	metrics.AddReclaimed(int(cancelled))
	r.log.Info().Int64("cancelled", cancelled).Time("cutoff", cutoff).Msg("reclaimed abandoned bookings")

	if r.events != nil {
		for _, b := range stale {
			ev := Event{
				Type:        EventReclaimed,
				BookingID:   b.ID,
				BookingDate: b.BookingDate,
				Hours:       []int(b.HourSlots),
				Status:      string(models.BookingStatusCancelled),
				OccurredAt:  now,
			}
			if err := r.events.Publish(ctx, ev); err != nil {
				r.log.Warn().Err(err).Uint("booking_id", b.ID).Msg("publish reclaim event")
			}
		}
	}
	return cancelled, nil
}

// Start sweeps on every tick until ctx is done. A failed sweep is logged and
// the loop carries on.
func (r *Reclaimer) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Dur("timeout", r.timeout).Msg("reclaimer started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reclaimer stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.log.Error().Err(err).Msg("reclaim sweep failed")
			}
		}
	}
}
