package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Statement kinds used as the "kind" label.
const (
	KindPage      = "page"
	KindCount     = "count"
	KindExport    = "export"
	KindFullText  = "fulltext"
	KindSubstring = "substring"
)

// Query Prometheus metrics.
var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "techsearch",
			Name:      "query_duration_seconds",
			Help:      "Row store statement duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	QueryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "techsearch",
			Name:      "query_errors_total",
			Help:      "Total failed row store statements",
		},
		[]string{"kind"},
	)

	TypeaheadTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "techsearch",
			Name:      "typeahead_tier_total",
			Help:      "Typeahead lookups by the tier that served them",
		},
		[]string{"field", "tier"}, // tier: "fulltext" / "substring"
	)

	SuggestCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "techsearch",
			Name:      "suggest_cache_total",
			Help:      "Suggestion cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "techsearch",
			Name:      "exports_total",
			Help:      "Completed exports, by whether the record cap truncated them",
		},
		[]string{"truncated"},
	)
)

var registerOnce sync.Once

// Register registers every techsearch collector on the default registerer.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(HTTPResponseBytes)
		prometheus.MustRegister(HTTPInFlight)
		prometheus.MustRegister(QueryDuration)
		prometheus.MustRegister(QueryErrorsTotal)
		prometheus.MustRegister(TypeaheadTierTotal)
		prometheus.MustRegister(SuggestCacheTotal)
		prometheus.MustRegister(ExportsTotal)
	})
}

// ObserveQuery records the duration of one statement and counts it as an
// error when err is non-nil.
func ObserveQuery(kind string, start time.Time, err error) {
	QueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		QueryErrorsTotal.WithLabelValues(kind).Inc()
	}
}
