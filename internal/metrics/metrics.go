package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmtracker_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dmtracker_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	SyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmtracker_syncs_total",
			Help: "Total DM sync runs",
		},
		[]string{"status"}, // "success" or "error"
	)

	SyncRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dmtracker_sync_records",
			Help:    "Records produced per sync run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	ConversationsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dmtracker_sync_conversations_skipped_total",
			Help: "Conversations dropped from a sync after a fetch error",
		},
	)

	DigestsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmtracker_digests_sent_total",
			Help: "Total daily digests delivered",
		},
		[]string{"status"}, // "success", "error" or "skipped"
	)

	InstallsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dmtracker_installs_total",
			Help: "Total completed OAuth installations",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmtracker_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"path"},
	)

	// Provider metrics
	SlackAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dmtracker_slack_api_latency_seconds",
			Help:    "Slack Web API call latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method"},
	)

	SlackAPIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmtracker_slack_api_errors_total",
			Help: "Slack Web API call failures",
		},
		[]string{"method"},
	)
)
