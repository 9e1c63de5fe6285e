package tsdb

import (
	"time"

	"github.com/dd0wney/enod/pkg/header"
	"github.com/dd0wney/enod/pkg/logging"
	"github.com/dd0wney/enod/pkg/record"
)

// Insert appends one sample. ts must not be below the current maximum; a
// timestamp equal to it is stored after the existing ones.
//
// On success the record and the updated header are on disk. On any error,
// OutOfOrderError included, the store is left as it was.
func (e *Engine) Insert(ts uint64, value byte) error {
	return e.appendSamples("insert", []record.Sample{{Timestamp: ts, Value: value}})
}

// InsertBatch appends samples with a single data write and a single header
// update. The whole batch is checked for ordering first, so either every
// sample is stored or none is.
func (e *Engine) InsertBatch(samples []record.Sample) error {
	return e.appendSamples("insert_batch", samples)
}

func (e *Engine) appendSamples(op string, samples []record.Sample) (err error) {
	if err := e.ensureWritable(op); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { e.observe(op, start, err) }()

	if err := e.checkOrder(op, samples); err != nil {
		return err
	}

	count := e.hdr.RecordCount()
	if count+uint64(len(samples)) > maxRecords {
		return newError(op, e.path).Format("record count would exceed format limit").Err()
	}

	buf := make([]byte, 0, len(samples)*record.Size)
	for _, s := range samples {
		buf = record.Append(buf, s)
	}

	// Data goes down before the header: a crash in between leaves bytes past
	// the counted records, which the next open truncates.
	offset := header.SlotOffset(count)
	if _, err := e.file.WriteAt(buf, offset); err != nil {
		e.rollbackTail(offset)
		return newError(op, e.path).IO(err).Err()
	}
	if err := e.sync(); err != nil {
		e.rollbackTail(offset)
		return newError(op, e.path).IO(err).Err()
	}

	next := e.hdr.Clone()
	if next.IsEmpty() {
		next.SetMin(samples[0].Timestamp)
	}
	next.SetCount(count + uint64(len(samples)))
	next.BumpMax(samples[len(samples)-1].Timestamp)

	if err := e.writeHeader(next); err != nil {
		e.restoreHeader()
		e.rollbackTail(offset)
		return newError(op, e.path).IO(err).Context("update header").Err()
	}

	e.hdr = next
	e.updateSize()
	return nil
}

// checkOrder rejects a batch that is not non-decreasing or starts below the
// current maximum.
func (e *Engine) checkOrder(op string, samples []record.Sample) error {
	prev, hasPrev := e.hdr.Max()
	for _, s := range samples {
		if hasPrev && s.Timestamp < prev {
			if e.opts.Metrics != nil {
				e.opts.Metrics.OutOfOrderRejects.Inc()
			}
			e.logger.Debug("rejected out of order sample",
				logging.Timestamp(s.Timestamp), logging.Uint64("max", prev))
			return newError(op, e.path).
				Kind(ErrOutOfOrder).
				Cause(&OutOfOrderError{Timestamp: s.Timestamp, Max: prev}).
				Err()
		}
		prev, hasPrev = s.Timestamp, true
	}
	return nil
}

// rollbackTail drops anything written at or past offset by a failed append.
// Failing that, the next open truncates it.
func (e *Engine) rollbackTail(offset int64) {
	if err := e.file.Truncate(offset); err != nil {
		e.logger.Warn("failed to roll back partial append",
			logging.Int64("offset", offset), logging.Error(err))
	}
}
