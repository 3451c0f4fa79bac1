// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts completed HTTP requests by route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmeta_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fmeta_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ContentCreated counts successfully created content items by kind.
	ContentCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmeta_content_created_total",
			Help: "Total number of posts, reels and stories created",
		},
		[]string{"kind"},
	)

	// MailDeliveries counts verification mail attempts by outcome.
	MailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmeta_mail_deliveries_total",
			Help: "Verification mail delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	// MailQueueDepth reports verification mails waiting for a worker.
	MailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fmeta_mail_queue_depth",
			Help: "Number of verification mails waiting to be sent",
		},
	)
)
