package models

// Phase is the single lifecycle state of a booking. The schema stores two
// status columns; every combination collapses into exactly one phase here.
type Phase string

const (
	PhaseAwaitingPayment Phase = "AWAITING_PAYMENT"
	PhaseCashHeld        Phase = "CASH_HELD"
	PhaseConfirmed       Phase = "CONFIRMED"
	PhaseCompleted       Phase = "COMPLETED"
	PhaseCancelled       Phase = "CANCELLED"
	// PhaseLapsed covers column combinations the booking flow never produces
	// on its own, e.g. a FAILED or REFUNDED payment.
	PhaseLapsed Phase = "LAPSED"
)

// Lifecycle is the tagged lifecycle variant of a booking. PaidAmount is only
// meaningful for PhaseConfirmed.
type Lifecycle struct {
	Phase      Phase   `json:"phase"`
	PaidAmount float64 `json:"paidAmount,omitempty"`
}

// LifecycleOf collapses the status columns into a Lifecycle.
func LifecycleOf(bs BookingStatus, ps PaymentStatus, pm PaymentMethod, paid float64) Lifecycle {
	switch bs {
	case BookingStatusCancelled:
		return Lifecycle{Phase: PhaseCancelled}
	case BookingStatusCompleted:
		return Lifecycle{Phase: PhaseCompleted}
	case BookingStatusConfirmed:
		switch {
		case ps.Paid():
			return Lifecycle{Phase: PhaseConfirmed, PaidAmount: paid}
		case ps == PaymentStatusPending && pm == PaymentMethodCash:
			return Lifecycle{Phase: PhaseCashHeld}
		}
	case BookingStatusPending:
		if ps == PaymentStatusPending {
			return Lifecycle{Phase: PhaseAwaitingPayment}
		}
	}
	return Lifecycle{Phase: PhaseLapsed}
}

// Active reports whether the booking currently occupies its hours.
func (l Lifecycle) Active() bool {
	return l.Phase == PhaseConfirmed || l.Phase == PhaseCashHeld
}
