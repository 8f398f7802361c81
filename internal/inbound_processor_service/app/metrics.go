package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inboundPartsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inbound_processor",
			Name:      "sms_parts_total",
			Help:      "Total number of multi-part fragments received.",
		},
		[]string{"provider_name", "result"}, // result: "saved", "duplicate"
	)

	inboundSMSProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inbound_processor",
			Name:      "sms_processed_total",
			Help:      "Total number of inbound SMS requests processed.",
		},
		[]string{"provider_name", "status"}, // status: "stored", "joined", "pending", "error"
	)

	inboundSMSProcessingDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inbound_processor",
			Name:      "sms_processing_duration_seconds",
			Help:      "Duration of inbound SMS request processing.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name"},
	)

	pushEnqueuedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inbound_processor",
			Name:      "push_enqueued_total",
			Help:      "Total number of webhook push tasks enqueued.",
		},
		[]string{"trigger"}, // trigger: "realtime", "sweep", "repush"
	)

	pushDeliveredCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inbound_processor",
			Name:      "push_delivered_total",
			Help:      "Total number of webhook deliveries by outcome.",
		},
		[]string{"status"}, // status: "ok", "rejected", "error"
	)

	sweptGroupsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inbound_processor",
			Name:      "swept_groups_total",
			Help:      "Total number of stale part groups handled by the sweeper.",
		},
		[]string{"result"}, // result: "completed", "skipped", "error"
	)
)
