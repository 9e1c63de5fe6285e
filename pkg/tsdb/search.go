package tsdb

import (
	"fmt"

	"github.com/dd0wney/enod/pkg/header"
	"github.com/dd0wney/enod/pkg/record"
)

// lowerBound returns the smallest visible index whose timestamp is >= ts, or
// the physical record count when there is none. Among equal timestamps it
// returns the first, so point and range lookups agree on ties.
//
// Each step reads only the timestamp of one slot, so a search costs O(log n)
// small reads regardless of file size.
func (e *Engine) lowerBound(ts uint64) (uint64, error) {
	lo, hi := e.hdr.FirstValid(), e.hdr.RecordCount()
	if lo == hi {
		return hi, nil
	}

	// Cached bounds answer the edges without touching the file
	if minTS, _ := e.hdr.Min(); ts <= minTS {
		return lo, nil
	}
	if maxTS, _ := e.hdr.Max(); ts > maxTS {
		return hi, nil
	}

	steps := 0
	for lo < hi {
		mid := lo + (hi-lo)/2
		midTS, err := e.readTimestamp(mid)
		if err != nil {
			return 0, err
		}
		steps++

		if midTS < ts {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordSearch(steps)
	}
	return lo, nil
}

// readTimestamp reads just the timestamp of slot i.
func (e *Engine) readTimestamp(i uint64) (uint64, error) {
	var buf [record.TimestampSize]byte
	if _, err := e.file.ReadAt(buf[:], header.SlotOffset(i)); err != nil {
		return 0, fmt.Errorf("read slot %d: %w", i, err)
	}
	return record.DecodeTimestamp(buf[:]), nil
}
