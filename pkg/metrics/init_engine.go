package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.OperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "enod_operations_total",
			Help: "Total number of engine operations",
		},
		[]string{"operation", "status"},
	)

	r.OperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enod_operation_duration_seconds",
			Help:    "Engine operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.Records = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "enod_records",
			Help: "Number of visible records",
		},
	)

	r.FileSizeBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "enod_file_size_bytes",
			Help: "Physical size of the data file in bytes",
		},
	)

	r.TornTailTruncations = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "enod_torn_tail_truncations_total",
			Help: "Partially written trailing records dropped on open",
		},
	)

	r.OutOfOrderRejects = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "enod_out_of_order_rejections_total",
			Help: "Inserts rejected for having a timestamp below the current maximum",
		},
	)

	r.SearchSteps = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enod_search_steps",
			Help:    "Record slots read per timestamp search",
			Buckets: prometheus.LinearBuckets(0, 4, 17),
		},
	)
}
