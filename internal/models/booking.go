package models

import (
	"time"

	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "PENDING"
	PaymentStatusAdvancePaid PaymentStatus = "ADVANCE_PAID"
	PaymentStatusPaid        PaymentStatus = "PAID"
	PaymentStatusFailed      PaymentStatus = "FAILED"
	PaymentStatusRefunded    PaymentStatus = "REFUNDED"
)

// Paid reports whether the gateway has already collected money for the booking.
func (s PaymentStatus) Paid() bool {
	return s == PaymentStatusAdvancePaid || s == PaymentStatusPaid
}

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

// Booking is one reservation attempt for the hall. Rows are never deleted;
// cancellation is a status transition.
type Booking struct {
	ID             uint                     `json:"id" gorm:"primaryKey"`
	CustomerName   string                   `json:"customerName" gorm:"not null"`
	Mobile         string                   `json:"mobile" gorm:"not null"`
	Occasion       string                   `json:"occasion,omitempty"`
	SpecialRequest string                   `json:"specialRequest,omitempty"`
	BookingDate    string                   `json:"bookingDate" gorm:"type:varchar(10);not null;index"` // YYYY-MM-DD
	HourSlots      datatypes.JSONSlice[int] `json:"hourSlots,omitempty"`
	TimeSlot       FixedSlot                `json:"timeSlot,omitempty" gorm:"type:varchar(16)"`

	TotalAmount     float64 `json:"totalAmount" gorm:"not null"`
	AdvanceAmount   float64 `json:"advanceAmount" gorm:"not null"`
	RemainingAmount float64 `json:"remainingAmount" gorm:"not null"`

	PaymentMethod PaymentMethod `json:"paymentMethod" gorm:"type:varchar(16);not null;default:'ONLINE'"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"type:varchar(16);not null;default:'PENDING';index"`
	BookingStatus BookingStatus `json:"bookingStatus" gorm:"type:varchar(16);not null;default:'PENDING';index"`

	GatewayOrderID   *string `json:"gatewayOrderId,omitempty" gorm:"index"`
	GatewayPaymentID *string `json:"gatewayPaymentId,omitempty"`

	CreatedAt time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time  `json:"updatedAt"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`

	Slots []Slot `json:"slots,omitempty" gorm:"foreignKey:BookingID"`
}

// TableName specifies the table name
func (Booking) TableName() string {
	return "hall_bookings"
}

// IsLegacy reports whether the booking uses the fixed-slot model.
func (b *Booking) IsLegacy() bool {
	return b.TimeSlot != "" && len(b.HourSlots) == 0
}

// Lifecycle derives the booking's lifecycle from its status columns.
func (b *Booking) Lifecycle() Lifecycle {
	return LifecycleOf(b.BookingStatus, b.PaymentStatus, b.PaymentMethod, b.TotalAmount-b.RemainingAmount)
}

// MarkAdvancePaid records a verified gateway payment for the advance.
func (b *Booking) MarkAdvancePaid(paymentID string, at time.Time) {
	b.PaymentStatus = PaymentStatusAdvancePaid
	b.BookingStatus = BookingStatusConfirmed
	b.GatewayPaymentID = &paymentID
	b.PaidAt = &at
}

// SettleRemaining marks the balance as collected. Settling twice leaves the
// booking in the same state apart from the paidAt stamp.
func (b *Booking) SettleRemaining(at time.Time) {
	b.PaymentStatus = PaymentStatusPaid
	b.RemainingAmount = 0
	b.PaidAt = &at
}

// SetStatus is the admin override. Any allowed status may follow any other.
func (b *Booking) SetStatus(status BookingStatus) {
	b.BookingStatus = status
}

// Cancel releases the booking's hours.
func (b *Booking) Cancel() {
	b.BookingStatus = BookingStatusCancelled
}
