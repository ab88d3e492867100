package syncer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aureus_indexer_events_processed_total",
			Help: "Total number of events decoded, stored and applied",
		},
		[]string{"source", "event_type"},
	)

	syncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aureus_indexer_errors_total",
			Help: "Total number of synchronization errors by type",
		},
		[]string{"type"},
	)

	lastProcessedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aureus_indexer_last_processed_block",
			Help: "The last block successfully processed per source",
		},
		[]string{"source"},
	)

	batchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aureus_indexer_batch_duration_seconds",
			Help:    "Duration of one source's batch cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)

func EventProcessedInc(source, eventType string) {
	eventsProcessed.WithLabelValues(source, eventType).Inc()
}

func SyncErrorInc(errorType string) {
	syncErrors.WithLabelValues(errorType).Inc()
}

func LastProcessedBlockSet(source string, block uint64) {
	lastProcessedBlock.WithLabelValues(source).Set(float64(block))
}

func BatchDurationLog(source string, duration time.Duration) {
	batchDuration.WithLabelValues(source).Observe(duration.Seconds())
}
