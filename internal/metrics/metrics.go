package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the three state transitions worth watching. Served by the
// /metrics endpoint in cmd/api.
var (
	Signups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventpass_signups_total",
		Help: "Completed student registrations.",
	})
	Verifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventpass_verifications_total",
		Help: "Students verified by an admin.",
	})
	Checkins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventpass_checkins_total",
		Help: "Recorded event check-ins.",
	})
)
