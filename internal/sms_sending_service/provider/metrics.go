package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sms_sending",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of HTTP requests to SMS providers.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name"},
	)

	providerTransportErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_sending",
			Name:      "provider_transport_errors_total",
			Help:      "Provider calls that failed before a response was read.",
		},
		[]string{"provider_name", "kind"},
	)

	segmentsSentCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_sending",
			Name:      "segments_sent_total",
			Help:      "Total number of SMS segments accepted by providers.",
		},
		[]string{"provider_name"},
	)
)
