package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_swipes_total",
			Help: "Total number of like/pass decisions recorded",
		},
		[]string{"kind"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_matches_total",
			Help: "Total number of matches created",
		},
	)

	unmatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_unmatches_total",
			Help: "Total number of matches dissolved",
		},
	)

	rewindsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_rewinds_total",
			Help: "Total number of rewound interactions",
		},
		[]string{"kind"},
	)

	feedCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_feed_candidates",
			Help:    "Number of candidates returned per feed page",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request latency by route",
		},
		[]string{"method", "route", "status"},
	)
)

func RecordSwipe(kind string) { swipesTotal.WithLabelValues(kind).Inc() }

func RecordMatch() { matchesTotal.Inc() }

func RecordUnmatch() { unmatchesTotal.Inc() }

func RecordRewind(kind string) { rewindsTotal.WithLabelValues(kind).Inc() }

func RecordFeedPage(candidates int) { feedCandidates.Observe(float64(candidates)) }

func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	httpDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
