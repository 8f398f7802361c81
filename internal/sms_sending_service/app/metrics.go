package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	natsSMSJobsReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_sending",
			Name:      "nats_jobs_received_total",
			Help:      "Total NATS SMS jobs received.",
		},
		[]string{"subject"},
	)

	smsSendingProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_sending",
			Name:      "jobs_processed_total",
			Help:      "Total SMS jobs processed.",
		},
		[]string{"provider_name", "status"}, // status: "success" or the failure stage, e.g. "failed_resolving"
	)

	smsSendingProcessingDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sms_sending",
			Name:      "job_processing_duration_seconds",
			Help:      "Duration of SMS job processing.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name"},
	)

	ledgerDebitDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sms_sending",
			Name:      "ledger_debit_duration_seconds",
			Help:      "Duration of balance debits after a send.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	dlrQueuedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_sending",
			Name:      "failed_dlr_queued_total",
			Help:      "Failed delivery reports queued for the merchant.",
		},
		[]string{"reason"},
	)

	smsSubmittedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_sending",
			Name:      "submitted_total",
			Help:      "Send requests accepted into the job queue.",
		},
		[]string{"status"},
	)

	queueReplayCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_sending",
			Name:      "queue_replays_total",
			Help:      "Stale sms_queue backups handled by the replayer.",
		},
		[]string{"result"},
	)
)
