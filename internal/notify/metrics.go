package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aureus_indexer_dispatch_queue_depth",
			Help: "Number of events waiting in the notification dispatch queue",
		},
	)

	queueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aureus_indexer_dispatch_dropped_total",
			Help: "Total number of events dropped because the dispatch queue was full",
		},
	)

	deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aureus_indexer_deliveries_total",
			Help: "Total number of notification deliveries by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)

func QueueDepthSet(depth int) {
	queueDepth.Set(float64(depth))
}

func QueueDroppedInc() {
	queueDropped.Inc()
}

func DeliveryInc(channel, outcome string) {
	deliveries.WithLabelValues(channel, outcome).Inc()
}
