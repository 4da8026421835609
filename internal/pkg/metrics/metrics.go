package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the view refresh pipeline. Registered on the default
// registry and exposed via promhttp in main.
var (
	PricingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_pricing_requests_total",
		Help: "Requests issued to the pricing service, by endpoint.",
	}, []string{"endpoint"})

	PricingRequestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_pricing_request_failures_total",
		Help: "Failed pricing service requests, by endpoint.",
	}, []string{"endpoint"})

	StaleCommitsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_stale_commits_discarded_total",
		Help: "View commits dropped because the refresh was superseded or aborted.",
	})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portfolio_refresh_duration_seconds",
		Help:    "End-to-end duration of a full view refresh.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
