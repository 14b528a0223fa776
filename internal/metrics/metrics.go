package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photorelay_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photorelay_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	SessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photorelay_sessions_created_total",
		Help: "Session creation attempts by result.",
	}, []string{"result"})

	SessionValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photorelay_session_validations_total",
		Help: "Upload code validations by result.",
	}, []string{"result"})

	UploadOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photorelay_upload_outcomes_total",
		Help: "Per-file upload outcomes.",
	}, []string{"outcome"})

	FeedSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "photorelay_feed_subscriptions",
		Help: "Currently open change feed subscriptions.",
	})

	FeedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photorelay_feed_dropped_total",
		Help: "Photo events dropped because a subscriber buffer was full.",
	})
)
