// Package metrics exposes engine instrumentation as Prometheus metrics.
package metrics

import (
	"time"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RecordOperation records one engine operation with its outcome.
func (r *Registry) RecordOperation(operation string, err error, duration time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.OperationsTotal.WithLabelValues(operation, status).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateSize publishes the visible record count and physical file size.
func (r *Registry) UpdateSize(records uint64, fileBytes int64) {
	r.Records.Set(float64(records))
	r.FileSizeBytes.Set(float64(fileBytes))
}

// RecordSearch records how many slots one search had to read.
func (r *Registry) RecordSearch(steps int) {
	r.SearchSteps.Observe(float64(steps))
}
