package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restocatalog", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restocatalog", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restocatalog", Name: "store_operations_total", Help: "Document store round-trips by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	StoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "restocatalog", Name: "store_operation_seconds", Help: "Document store round-trip latency.", Buckets: prometheus.DefBuckets},
		[]string{"operation"},
	)
	DecodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restocatalog", Name: "decode_failures_total", Help: "Stored documents that could not be mapped to the domain model."},
		[]string{"collection"},
	)
	RankingCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restocatalog", Name: "ranking_cache_total", Help: "Ranking cache lookups by result."},
		[]string{"variant", "result"},
	)
	CascadeDeletes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "restocatalog", Name: "cascade_deleted_documents_total", Help: "Documents removed by restaurant cascade deletes."},
		[]string{"collection"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(StoreOperations)
	reg.MustRegister(StoreDuration)
	reg.MustRegister(DecodeFailures)
	reg.MustRegister(RankingCache)
	reg.MustRegister(CascadeDeletes)
}

// ObserveStore records one store round-trip. Use it with defer:
//
//	defer metrics.ObserveStore("find_all", time.Now(), &err)
func ObserveStore(operation string, start time.Time, errp *error) {
	StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if errp != nil && *errp != nil {
		outcome = "error"
	}
	StoreOperations.WithLabelValues(operation, outcome).Inc()
}
