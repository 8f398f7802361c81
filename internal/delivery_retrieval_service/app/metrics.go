package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dlrEventsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delivery_retrieval",
			Name:      "dlr_events_processed_total",
			Help:      "Total number of provider delivery reports processed.",
		},
		[]string{"provider_name", "status"}, // status: normalized delivery status or "error"
	)

	dlrEventProcessingDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "delivery_retrieval",
			Name:      "dlr_event_processing_duration_seconds",
			Help:      "Duration of provider delivery report processing.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name"},
	)

	dlrPushesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delivery_retrieval",
			Name:      "dlr_pushes_total",
			Help:      "Total number of delivery reports pushed to merchant URLs.",
		},
		[]string{"status"}, // status: "ok", "rejected", "error", "skipped"
	)
)
