// Package metrics holds the Prometheus collectors of the API. They are
// registered on the default registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts handled requests by route template.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techpulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by route template.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "techpulse_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ListingsModerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techpulse_listings_moderated_total",
			Help: "Moderation decisions taken on listings",
		},
		[]string{"decision"},
	)

	MediaCleanupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "techpulse_media_cleanup_failures_total",
			Help: "Media objects that could not be released on listing deletion",
		},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techpulse_events_published_total",
			Help: "Broker publish attempts by queue and result",
		},
		[]string{"queue", "result"},
	)

	// Listings is refreshed periodically from the store.
	Listings = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "techpulse_listings",
			Help: "Listings per status",
		},
		[]string{"status"},
	)

	CatalogueProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "techpulse_catalogue_products",
			Help: "Products in the catalogue",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ListingsModerated,
		MediaCleanupFailures,
		EventsPublished,
		Listings,
		CatalogueProducts,
	)
}
