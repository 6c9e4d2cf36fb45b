package models

import (
	"fmt"
	"time"
)

// Slot is one occupied hour of an hourly booking.
type Slot struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	BookingID   uint      `json:"bookingId" gorm:"not null;uniqueIndex:idx_slot_booking_hour"`
	BookingDate string    `json:"bookingDate" gorm:"type:varchar(10);not null;index:idx_slot_date_hour"`
	Hour        int       `json:"hour" gorm:"not null;uniqueIndex:idx_slot_booking_hour;index:idx_slot_date_hour"`
	StartTime   string    `json:"startTime" gorm:"type:varchar(5);not null"`
	EndTime     string    `json:"endTime" gorm:"type:varchar(5);not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName specifies the table name
func (Slot) TableName() string {
	return "hall_booking_slots"
}

// NewSlot builds the slot row for hour h of a booking.
func NewSlot(bookingID uint, date string, h int) Slot {
	return Slot{
		BookingID:   bookingID,
		BookingDate: date,
		Hour:        h,
		StartTime:   HourLabel(h),
		EndTime:     HourLabel(h + 1),
	}
}

// HourLabel formats an hour of day as "HH:00".
func HourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

// FixedSlot is the legacy three-value time-of-day slot.
type FixedSlot string

const (
	FixedSlotMorning FixedSlot = "morning"
	FixedSlotEvening FixedSlot = "evening"
	FixedSlotFullDay FixedSlot = "full_day"
)

// Valid reports whether s is a known fixed slot.
func (s FixedSlot) Valid() bool {
	switch s {
	case FixedSlotMorning, FixedSlotEvening, FixedSlotFullDay:
		return true
	}
	return false
}

// BlockedSlot excludes a fixed slot on a date once a legacy booking has paid.
type BlockedSlot struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	BookingDate string    `json:"bookingDate" gorm:"type:varchar(10);not null;uniqueIndex:idx_blocked_date_slot"`
	SlotName    FixedSlot `json:"slotName" gorm:"type:varchar(16);not null;uniqueIndex:idx_blocked_date_slot"`
	BookingID   uint      `json:"bookingId" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName specifies the table name
func (BlockedSlot) TableName() string {
	return "blocked_slots"
}

// HourLock is the row allocators lock for a (date, hour) pair. It exists so
// that overlapping allocations serialize even before any slot row exists.
type HourLock struct {
	BookingDate string `gorm:"type:varchar(10);primaryKey"`
	Hour        int    `gorm:"primaryKey;autoIncrement:false"`
}

// TableName specifies the table name
func (HourLock) TableName() string {
	return "hall_hour_locks"
}

// Setting is a key/value row of the hall settings store.
type Setting struct {
	Key       string    `json:"key" gorm:"primaryKey;type:varchar(64)"`
	Value     string    `json:"value" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (Setting) TableName() string {
	return "settings"
}
