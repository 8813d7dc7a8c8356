// Package metrics holds the prometheus instrumentation for the backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsSettled counts transactions that reached a terminal state,
	// by type and status.
	TransactionsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_transactions_settled_total",
		Help: "Transactions that reached a terminal state",
	}, []string{"type", "status"})

	// AlertsPublished counts budget alert messages published to the queue.
	AlertsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_budget_alerts_published_total",
		Help: "Budget alert messages published to the queue",
	})

	// AlertsConsumed counts budget alert messages processed by the
	// notification consumer, by delivery outcome.
	AlertsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_budget_alerts_consumed_total",
		Help: "Budget alert messages processed by the notification consumer",
	}, []string{"delivered"})
)
