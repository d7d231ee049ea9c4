package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Quote metrics
	// ============================================
	QuotesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_quotes_created_total",
		Help: "Total number of quotes created",
	})

	QuotesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_quotes_expired_total",
		Help: "Total number of quote reads that found an expired quote",
	})

	QuoteRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_quote_rebuilds_total",
		Help: "Total number of silent pre-signature quote rebuilds",
	})

	// ============================================
	// UserOperation metrics
	// ============================================
	UserOpsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_userops_built_total",
		Help: "Total number of user operations packed",
	})

	GasEstimations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_gas_estimations_total",
			Help: "Total number of bundler gas estimation calls",
		},
		[]string{"outcome"},
	)

	// ============================================
	// Pipeline metrics
	// ============================================
	AttemptsByState = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_swap_attempt_transitions_total",
			Help: "Total number of swap attempt state transitions",
		},
		[]string{"state"},
	)

	AttemptsTerminal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_swap_attempts_terminal_total",
			Help: "Total number of swap attempts by terminal outcome",
		},
		[]string{"outcome", "reason"},
	)

	BundlerSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_bundler_submissions_total",
			Help: "Total number of bundler submission calls",
		},
		[]string{"outcome"},
	)

	// ============================================
	// Infrastructure metrics
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_nats_connection_status",
		Help: "NATS connection status (1 = connected, 0 = disconnected)",
	})

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_events_published_total",
			Help: "Total number of attempt lifecycle events published",
		},
		[]string{"outcome"},
	)
)
