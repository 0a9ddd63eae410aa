package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chefscore_http_requests_total",
		Help: "HTTP requests served, by route pattern and status code",
	}, []string{"route", "code"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chefscore_fetch_duration_seconds",
		Help:    "Duration of raw export fetches from the configured source",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chefscore_cache_hits_total",
		Help: "Week collections served from cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chefscore_cache_misses_total",
		Help: "Week collections that required a fetch and ingest",
	})

	ingestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chefscore_ingest_failures_total",
		Help: "Failed week loads, by kind (transport or parse)",
	}, []string{"kind"})

	rowsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chefscore_rows_rejected_total",
		Help: "Rows dropped during ingestion for an empty player name",
	})

	cachedWeeks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chefscore_cached_weeks",
		Help: "Number of week collections currently cached",
	})
)
