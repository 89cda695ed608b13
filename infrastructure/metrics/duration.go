package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coomunity"

var (
	DurationResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duration_resolutions_total",
		Help:      "Resolved video durations by confidence tier",
	}, []string{"source", "cached"})

	DurationCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duration_cache_lookups_total",
		Help:      "Duration cache lookups by result",
	}, []string{"result"})

	DurationStrategyMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duration_strategy_misses_total",
		Help:      "Strategy attempts that produced no duration",
	}, []string{"strategy"})

	BatchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duration_batch_items_total",
		Help:      "Batch recalculation items by outcome",
	}, []string{"mode", "outcome"})

	BatchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duration_batch_runs_total",
		Help:      "Batch recalculation runs",
	}, []string{"mode", "cancelled"})
)

func RecordResolution(source string, fromCache bool) {
	DurationResolutionsTotal.WithLabelValues(source, strconv.FormatBool(fromCache)).Inc()
}

func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DurationCacheLookupsTotal.WithLabelValues(result).Inc()
}

func RecordStrategyMiss(strategy string) {
	DurationStrategyMissesTotal.WithLabelValues(strategy).Inc()
}

func RecordBatchItem(mode, outcome string) {
	BatchItemsTotal.WithLabelValues(mode, outcome).Inc()
}

func RecordBatchRun(mode string, cancelled bool) {
	BatchRunsTotal.WithLabelValues(mode, strconv.FormatBool(cancelled)).Inc()
}
