package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roamly_reservation_commits_total",
			Help: "Reservation commit attempts by outcome",
		},
		[]string{"outcome"},
	)

	PaymentInitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roamly_payment_inits_total",
			Help: "Payment handoff attempts by outcome",
		},
		[]string{"outcome"},
	)

	CommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roamly_reservation_commit_seconds",
			Help:    "Duration of reservation commit handling",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roamly_outbox_lag_seconds",
			Help: "Age of the oldest unsent outbox record",
		},
	)
)
