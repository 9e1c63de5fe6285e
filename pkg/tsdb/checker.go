package tsdb

import (
	"github.com/dd0wney/enod/pkg/header"
	"github.com/dd0wney/enod/pkg/logging"
)

// check validates the header of a freshly opened file and reconciles the
// physical tail with it. It runs once per open.
//
// The header is the source of truth: bytes beyond the last counted record are
// a torn append and get truncated, while a file shorter than the header claims
// has lost records that cannot be identified and is rejected.
func (e *Engine) check() error {
	size := e.file.Len()
	if size < header.Size {
		return newError("open", e.path).
			Format("file is %d bytes, header needs %d", size, header.Size).Err()
	}

	data, err := e.file.Read(0, header.Size)
	if err != nil {
		return newError("open", e.path).IO(err).Err()
	}

	h := &header.Header{}
	if err := h.UnmarshalBinary(data); err != nil {
		return newError("open", e.path).Format("bad header").Cause(err).Err()
	}
	if h.RecordCount() > maxRecords {
		return newError("open", e.path).
			Format("record count %d exceeds format limit", h.RecordCount()).Err()
	}

	expected := h.ExpectedFileSize()
	switch {
	case size < expected:
		return newError("open", e.path).
			Format("file is %d bytes, %d records need %d", size, h.RecordCount(), expected).Err()

	case size > expected:
		torn := size - expected
		if e.file.ReadOnly() {
			e.logger.Warn("ignoring torn tail on read-only open",
				logging.Bytes(torn), logging.Count(h.RecordCount()))
			break
		}

		if err := e.file.Truncate(expected); err != nil {
			return newError("open", e.path).IO(err).Context("truncate torn tail").Err()
		}
		if err := e.sync(); err != nil {
			return newError("open", e.path).IO(err).Context("truncate torn tail").Err()
		}

		e.logger.Warn("truncated torn tail",
			logging.Bytes(torn), logging.Count(h.RecordCount()))
		if e.opts.Metrics != nil {
			e.opts.Metrics.TornTailTruncations.Inc()
		}
	}

	e.hdr = h
	return nil
}
