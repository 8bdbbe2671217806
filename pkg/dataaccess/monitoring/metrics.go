package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreLatency is the duration of store queries.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_store_latency",
			Help: "Duration of store queries",
		},
		[]string{"op", "entity"},
	)

	// StoreTotalRequests is the total number of store requests.
	StoreTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_total_requests",
			Help: "Total number of store requests",
		},
		[]string{"op", "entity"},
	)

	// StoreSessions is the total number of store sessions opened, by outcome.
	StoreSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_sessions",
			Help: "Total number of store sessions opened, by outcome",
		},
		[]string{"outcome"},
	)
)
