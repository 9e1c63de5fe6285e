package tsdb

import (
	"iter"
	"math"
	"time"

	"github.com/dd0wney/enod/pkg/header"
	"github.com/dd0wney/enod/pkg/record"
)

// firstChunkSlots is the size of the first read of a scan. Later reads double
// up to the scan buffer, so short ranges stay cheap and long ones stream.
const firstChunkSlots = 16

// Count returns the number of visible records.
func (e *Engine) Count() uint64 {
	return e.hdr.Len()
}

// Min returns the oldest visible timestamp; ok is false when the store is
// empty, distinguishing "no data" from a zero timestamp.
func (e *Engine) Min() (ts uint64, ok bool) {
	return e.hdr.Min()
}

// Max returns the newest visible timestamp; ok is false when the store is
// empty.
func (e *Engine) Max() (ts uint64, ok bool) {
	return e.hdr.Max()
}

// Get returns the first sample stored at exactly ts. Among several samples
// sharing ts it returns the earliest inserted.
func (e *Engine) Get(ts uint64) (s record.Sample, err error) {
	if err := e.ensureOpen("get"); err != nil {
		return record.Sample{}, err
	}
	start := time.Now()
	defer func() {
		if IsNotFound(err) {
			e.observe("get", start, nil)
			return
		}
		e.observe("get", start, err)
	}()

	idx, err := e.lowerBound(ts)
	if err != nil {
		return record.Sample{}, newError("get", e.path).IO(err).Err()
	}
	if idx == e.hdr.RecordCount() {
		return record.Sample{}, newError("get", e.path).Kind(ErrNotFound).Context("timestamp %d", ts).Err()
	}

	s, err = e.readSlot(idx)
	if err != nil {
		return record.Sample{}, newError("get", e.path).IO(err).Err()
	}
	if s.Timestamp != ts {
		return record.Sample{}, newError("get", e.path).Kind(ErrNotFound).Context("timestamp %d", ts).Err()
	}
	return s, nil
}

// Range returns the samples with start <= timestamp <= end in stored order.
//
// The sequence is lazy and restartable: each iteration runs its own search
// and then reads forward through the file, so nothing is loaded up front. An
// I/O failure is yielded once as the error and ends the sequence. Samples
// inserted while a range loop runs are not visited; trimming or compacting
// from inside the loop is not supported.
func (e *Engine) Range(start, end uint64) iter.Seq2[record.Sample, error] {
	return func(yield func(record.Sample, error) bool) {
		if err := e.ensureOpen("range"); err != nil {
			yield(record.Sample{}, err)
			return
		}
		if start > end || e.hdr.IsEmpty() {
			return
		}

		began := time.Now()
		idx, err := e.lowerBound(start)
		if err != nil {
			err = newError("range", e.path).IO(err).Err()
			e.observe("range", began, err)
			yield(record.Sample{}, err)
			return
		}

		err = e.scan(idx, e.hdr.RecordCount(), func(_ uint64, s record.Sample) bool {
			return s.Timestamp <= end && yield(s, nil)
		})
		if err != nil {
			err = newError("range", e.path).IO(err).Err()
			yield(record.Sample{}, err)
		}
		e.observe("range", began, err)
	}
}

// All returns every visible sample.
func (e *Engine) All() iter.Seq2[record.Sample, error] {
	return e.Range(0, math.MaxUint64)
}

// Samples collects Range(start, end) into a slice.
func (e *Engine) Samples(start, end uint64) ([]record.Sample, error) {
	var out []record.Sample
	for s, err := range e.Range(start, end) {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// scan decodes slots [from, to) in order, calling fn for each until it
// returns false. Reads go through a pooled buffer in growing chunks.
func (e *Engine) scan(from, to uint64, fn func(i uint64, s record.Sample) bool) error {
	bp := e.pool.Get()
	defer e.pool.Put(bp)
	buf := *bp

	maxSlots := uint64(len(buf) / record.Size)
	chunkSlots := min(uint64(firstChunkSlots), maxSlots)

	for i := from; i < to; {
		n := min(chunkSlots, to-i)
		chunk := buf[:n*record.Size]
		if _, err := e.file.ReadAt(chunk, header.SlotOffset(i)); err != nil {
			return err
		}

		for off := 0; off < len(chunk); off += record.Size {
			if !fn(i, record.Decode(chunk[off:])) {
				return nil
			}
			i++
		}
		chunkSlots = min(chunkSlots*2, maxSlots)
	}
	return nil
}
