package booking

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/chachabrian/hall-booking/internal/models"
)

// activeBookings restricts a query over hall_bookings to bookings that occupy
// their hours. It must agree with models.Lifecycle.Active.
func activeBookings(db *gorm.DB) *gorm.DB {
	return db.Where("hall_bookings.booking_status = ?", models.BookingStatusConfirmed).
		Where(db.Session(&gorm.Session{NewDB: true}).
			Where("hall_bookings.payment_status IN ?", []models.PaymentStatus{models.PaymentStatusAdvancePaid, models.PaymentStatusPaid}).
			Or("hall_bookings.payment_method = ? AND hall_bookings.payment_status = ?", models.PaymentMethodCash, models.PaymentStatusPending))
}

// occupiedHours returns hour -> owning booking id for every hour of date held
// by an active booking. Both slot models are folded into hours: hourly slot
// rows, active legacy bookings, and legacy blocked slots. When only is
// non-empty the result is limited to those hours.
func occupiedHours(tx *gorm.DB, date string, st Settings, only []int) (map[int]uint, error) {
	owned := make(map[int]uint)
	want := func(h int) bool {
		if len(only) == 0 {
			return true
		}
		for _, o := range only {
			if o == h {
				return true
			}
		}
		return false
	}

	var slots []models.Slot
	q := tx.Model(&models.Slot{}).
		Select("hall_booking_slots.hour, hall_booking_slots.booking_id").
		Joins("JOIN hall_bookings ON hall_bookings.id = hall_booking_slots.booking_id").
		Where("hall_booking_slots.booking_date = ?", date).
		Scopes(activeBookings)
	if len(only) > 0 {
		q = q.Where("hall_booking_slots.hour IN ?", only)
	}
	if err := q.Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("load slots for %s: %w", date, err)
	}
	for _, sl := range slots {
		owned[sl.Hour] = sl.BookingID
	}

	var legacy []models.Booking
	if err := tx.Model(&models.Booking{}).
		Select("id, time_slot").
		Where("booking_date = ? AND time_slot <> ''", date).
		Scopes(activeBookings).
		Find(&legacy).Error; err != nil {
		return nil, fmt.Errorf("load legacy bookings for %s: %w", date, err)
	}
	for _, b := range legacy {
		for _, h := range st.FixedSlotHours(b.TimeSlot) {
			if want(h) {
				owned[h] = b.ID
			}
		}
	}

	var blocked []models.BlockedSlot
	if err := tx.Where("booking_date = ?", date).Find(&blocked).Error; err != nil {
		return nil, fmt.Errorf("load blocked slots for %s: %w", date, err)
	}
	for _, bl := range blocked {
		for _, h := range st.FixedSlotHours(bl.SlotName) {
			if _, taken := owned[h]; !taken && want(h) {
				owned[h] = bl.BookingID
			}
		}
	}
	return owned, nil
}

func sortedHours(owned map[int]uint) []int {
	hours := make([]int, 0, len(owned))
	for h := range owned {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}
