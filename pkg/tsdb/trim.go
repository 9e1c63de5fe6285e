package tsdb

import (
	"fmt"
	"time"

	"github.com/dd0wney/enod/pkg/datafile"
	"github.com/dd0wney/enod/pkg/header"
	"github.com/dd0wney/enod/pkg/logging"
)

// TrimOldest hides the n oldest visible records from every later query. The
// bytes stay in the file until Compact. Trimming more than is visible empties
// the store. It never compacts.
func (e *Engine) TrimOldest(n uint64) (err error) {
	if err := e.ensureWritable("trim"); err != nil {
		return err
	}
	if n == 0 || e.hdr.IsEmpty() {
		return nil
	}

	start := time.Now()
	defer func() { e.observe("trim", start, err) }()

	_, err = e.trim("trim", n)
	return err
}

// TrimBefore trims every record with a timestamp strictly below ts and returns
// how many were removed.
func (e *Engine) TrimBefore(ts uint64) (trimmed uint64, err error) {
	if err := e.ensureWritable("trim_before"); err != nil {
		return 0, err
	}
	if e.hdr.IsEmpty() {
		return 0, nil
	}

	start := time.Now()
	defer func() { e.observe("trim_before", start, err) }()

	idx, err := e.lowerBound(ts)
	if err != nil {
		return 0, newError("trim_before", e.path).IO(err).Err()
	}
	n := idx - e.hdr.FirstValid()
	if n == 0 {
		return 0, nil
	}
	return e.trim("trim_before", n)
}

func (e *Engine) trim(op string, n uint64) (uint64, error) {
	next := e.hdr.Clone()
	trimmed := next.AdvanceFirstValid(n)

	if !next.IsEmpty() {
		first, err := e.readSlot(next.FirstValid())
		if err != nil {
			return 0, newError(op, e.path).IO(err).Err()
		}
		next.SetMin(first.Timestamp)
	}

	if err := e.writeHeader(next); err != nil {
		e.restoreHeader()
		return 0, newError(op, e.path).IO(err).Context("update header").Err()
	}
	e.hdr = next

	e.logger.Debug("trimmed oldest records",
		logging.Count(trimmed), logging.Index(next.FirstValid()))
	e.updateSize()
	return trimmed, nil
}

// Compact rewrites the file without the trimmed records, reclaiming their
// space. It is O(n) in the visible records and only ever runs when called.
// The rewrite goes to a temporary file that atomically replaces the original
// and the directory is synced after the rename, so a crash during Compact
// leaves either the old file or the compacted one. A failed Compact before
// the rename leaves the store untouched.
func (e *Engine) Compact() (err error) {
	if err := e.ensureWritable("compact"); err != nil {
		return err
	}
	if e.hdr.FirstValid() == 0 {
		return nil
	}

	start := time.Now()
	timer := logging.StartTimer(e.logger, "compact", logging.Index(e.hdr.FirstValid()))
	defer func() {
		e.observe("compact", start, err)
		if err != nil {
			timer.EndError(err)
			return
		}
		timer.End()
	}()

	next := e.hdr.Clone()
	next.Reset()
	from := header.SlotOffset(e.hdr.FirstValid())
	length := header.SlotOffset(e.hdr.RecordCount()) - from

	before := e.file.Len()
	nf, err := datafile.Replace(e.file, func(tmp *datafile.File) error {
		data, err := next.MarshalBinary()
		if err != nil {
			return err
		}
		if err := tmp.Append(data); err != nil {
			return err
		}
		return e.copyRange(tmp, from, length)
	})
	if nf != nil {
		// The rename happened; the engine must follow it even if the
		// directory sync afterwards failed.
		e.file = nf
		e.hdr = next
		e.updateSize()
	}
	if err != nil {
		return newError("compact", e.path).IO(err).Err()
	}

	e.logger.Info("compacted data file",
		logging.Count(next.Len()), logging.Bytes(before-nf.Len()))
	return nil
}

// copyRange appends length bytes of the current file starting at from onto dst.
func (e *Engine) copyRange(dst *datafile.File, from, length int64) error {
	bp := e.pool.Get()
	defer e.pool.Put(bp)
	buf := *bp

	for length > 0 {
		n := min(int64(len(buf)), length)
		chunk := buf[:n]
		if _, err := e.file.ReadAt(chunk, from); err != nil {
			return fmt.Errorf("read at %d: %w", from, err)
		}
		if err := dst.Append(chunk); err != nil {
			return err
		}
		from += n
		length -= n
	}
	return nil
}
