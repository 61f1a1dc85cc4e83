package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts served requests by route and status class.
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cartelera_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})

	// canonicalRedirects counts queries answered with a redirect to their
	// canonical form.
	canonicalRedirects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cartelera_canonical_redirects_total",
		Help: "Requests redirected to the canonical query",
	})

	// refreshTotal counts page refreshes by result.
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cartelera_refresh_total",
		Help: "Page refreshes by result",
	}, []string{"result"})

	// prunedEvents is the number of stale events removed by the last refresh.
	prunedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cartelera_pruned_events",
		Help: "Stale events removed by the last refresh",
	})

	// listedEvents is the number of events left after the last refresh.
	listedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cartelera_listed_events",
		Help: "Events listed after the last refresh",
	})

	// filterDuration tracks a full boot + filter pass per request.
	filterDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cartelera_filter_duration_seconds",
		Help:    "Page boot and filter pass duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)
