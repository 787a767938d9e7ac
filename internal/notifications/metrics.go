package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drivemate_push_sent_total",
		Help: "Pushes accepted by the transport, by payload type.",
	}, []string{"type"})

	pushFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drivemate_push_failed_total",
		Help: "Pushes rejected by the transport, by payload type.",
	}, []string{"type"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drivemate_events_total",
		Help: "Document change events routed to a handler.",
	}, []string{"collection", "op"})

	remindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivemate_reminders_sent_total",
		Help: "Lesson reminders delivered by the sweep.",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "drivemate_sweep_duration_seconds",
		Help:    "Wall time of one reminder sweep.",
		Buckets: prometheus.DefBuckets,
	})
)
