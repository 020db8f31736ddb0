package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationOutcome = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "table_reservation",
			Name:      "reservation_outcome_total",
			Help:      "Count of reservation attempts by outcome code.",
		},
		[]string{"outcome"},
	)

	magicLinkIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "table_reservation",
			Name:      "magic_link_issued_total",
			Help:      "Count of magic login links issued.",
		},
	)

	notificationFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "table_reservation",
			Name:      "notification_failed_total",
			Help:      "Count of failed webhook email handoffs by kind.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationOutcome, magicLinkIssued, notificationFailed)
	})
}

func IncReservationOutcome(outcome string) {
	reservationOutcome.WithLabelValues(outcome).Inc()
}

func IncMagicLinkIssued() {
	magicLinkIssued.Inc()
}

func IncNotificationFailed(kind string) {
	notificationFailed.WithLabelValues(kind).Inc()
}
