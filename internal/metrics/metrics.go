package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	allocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hall_booking",
			Name:      "allocations_total",
			Help:      "Count of allocation attempts by result.",
		},
		[]string{"result"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hall_booking",
			Name:      "payments_total",
			Help:      "Count of payment order and verification attempts by step and result.",
		},
		[]string{"step", "result"},
	)

	reclaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hall_booking",
			Name:      "reclaimed_total",
			Help:      "Count of abandoned bookings cancelled by the reclaimer.",
		},
	)

	reclaimRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hall_booking",
			Name:      "reclaim_runs_total",
			Help:      "Count of reclaimer sweeps by result.",
		},
		[]string{"result"},
	)

	adminActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hall_booking",
			Name:      "admin_actions_total",
			Help:      "Count of admin actions over bookings.",
		},
		[]string{"action"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(allocations, payments, reclaimed, reclaimRuns, adminActions)
	})
}

func IncAllocation(result string) {
	allocations.WithLabelValues(result).Inc()
}

func IncPayment(step, result string) {
	payments.WithLabelValues(step, result).Inc()
}

func AddReclaimed(n int) {
	reclaimed.Add(float64(n))
}

func IncReclaimRun(result string) {
	reclaimRuns.WithLabelValues(result).Inc()
}

func IncAdminAction(action string) {
	adminActions.WithLabelValues(action).Inc()
}
