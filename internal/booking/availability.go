package booking

import (
	"context"

	"github.com/chachabrian/hall-booking/internal/models"
)

// HourSlot describes one bookable hour of a date.
type HourSlot struct {
	Hour      int    `json:"hour"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
	Booked    bool   `json:"booked"`
	Past      bool   `json:"past"`
}

// Availability is the hourly grid for a date.
type Availability struct {
	BookingDate  string     `json:"bookingDate"`
	PricePerHour float64    `json:"pricePerHour"`
	Slots        []HourSlot `json:"slots"`
}

// Availability computes the hourly grid for date. It takes no locks; the
// result is advisory.
func (s *Service) Availability(ctx context.Context, rawDate string) (*Availability, error) {
	date, err := s.parseDate(rawDate)
	if err != nil {
		return nil, err
	}
	st, err := s.resolveSettings(ctx)
	if err != nil {
		return nil, err
	}

	owned, err := occupiedHours(s.db.WithContext(ctx), date, st, nil)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	today := now.Format(dateLayout)

	out := &Availability{
		BookingDate:  date,
		PricePerHour: st.HourlyRate,
		Slots:        make([]HourSlot, 0, st.EndHour-st.StartHour),
	}
	for _, h := range st.Hours() {
		_, booked := owned[h]
		// Every hour of an earlier date is past; booking it fails validation.
		past := date < today || (date == today && h <= now.Hour())
		out.Slots = append(out.Slots, HourSlot{
			Hour:      h,
			StartTime: models.HourLabel(h),
			EndTime:   models.HourLabel(h + 1),
			Available: !booked && !past,
			Booked:    booked,
			Past:      past,
		})
	}
	return out, nil
}
