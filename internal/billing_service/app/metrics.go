package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_ledger_operations_total",
			Help: "Total number of ledger operations.",
		},
		[]string{"operation", "result"}, // operation: check, debit, upsert
	)

	ledgerRowCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_ledger_credit_rows_created_total",
			Help: "Credit rows created lazily by an upsert.",
		},
	)
)
