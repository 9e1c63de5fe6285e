// Package tsdb is an embeddable time-series store persisting (timestamp,
// byte) samples into a single data file.
//
// The file holds a fixed-width header followed by fixed-width record slots in
// non-decreasing timestamp order, so every lookup is a binary search over
// slot offsets and never loads the file into memory. Samples can only be
// appended at the newest end and trimmed from the oldest end.
//
// An Engine is not safe for concurrent use. It assumes it is the only writer
// of its file, in this process and any other; embedders that share an Engine
// between goroutines must serialize access themselves.
package tsdb

import (
	"fmt"
	"math"
	"time"

	"github.com/dd0wney/enod/pkg/datafile"
	"github.com/dd0wney/enod/pkg/header"
	"github.com/dd0wney/enod/pkg/logging"
	"github.com/dd0wney/enod/pkg/pools"
	"github.com/dd0wney/enod/pkg/record"
)

// maxRecords bounds record_count so slot offsets fit in an int64.
const maxRecords = (math.MaxInt64 - header.Size) / record.Size

// Engine owns one open data file.
type Engine struct {
	path   string
	file   datafile.Handle
	hdr    *header.Header
	opts   Options
	logger logging.Logger
	pool   *pools.BufferPool
	closed bool
}

// Stats is a point-in-time summary of an engine.
type Stats struct {
	Path            string
	Records         uint64 // visible records
	PhysicalRecords uint64 // slots in the file, including trimmed ones
	FirstValid      uint64
	FileSize        int64
	Min, Max        uint64
	Empty           bool
	ReadOnly        bool
}

// Create creates a fresh, empty data file at path. An existing file at path is
// overwritten.
func Create(path string, opts ...Option) (*Engine, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	f, err := datafile.Create(path)
	if err != nil {
		return nil, newError("create", path).IO(err).Err()
	}

	e := newEngine(path, f, header.New(), o)
	if err := e.writeHeader(e.hdr); err != nil {
		_ = f.Close()
		return nil, newError("create", path).IO(err).Err()
	}

	e.logger.Info("created data file")
	e.updateSize()
	return e, nil
}

// Open opens an existing data file for reading and appending. A torn trailing
// record left by an interrupted append is truncated away.
func Open(path string, opts ...Option) (*Engine, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	f, err := datafile.Open(path)
	if err != nil {
		return nil, newError("open", path).IO(err).Err()
	}
	return openHandle(path, f, o)
}

// OpenReadOnly memory-maps an existing data file for queries only. Mutating
// operations fail with ErrReadOnly. A torn tail is ignored rather than
// truncated.
func OpenReadOnly(path string, opts ...Option) (*Engine, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	f, err := datafile.OpenMapped(path)
	if err != nil {
		return nil, newError("open", path).IO(err).Err()
	}
	return openHandle(path, f, o)
}

func openHandle(path string, f datafile.Handle, o Options) (*Engine, error) {
	e := newEngine(path, f, nil, o)

	if err := e.check(); err != nil {
		_ = f.Close()
		return nil, err
	}

	if o.VerifyOnOpen {
		if _, err := e.Verify(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	e.logger.Info("opened data file",
		logging.Count(e.hdr.Len()),
		logging.Bool("read_only", f.ReadOnly()))
	e.updateSize()
	return e, nil
}

func newEngine(path string, f datafile.Handle, h *header.Header, o Options) *Engine {
	return &Engine{
		path:   path,
		file:   f,
		hdr:    h,
		opts:   o,
		logger: o.Logger.With(logging.Path(path)),
		pool:   pools.ForSize(o.ScanBufferSize),
	}
}

// Path returns the data file path.
func (e *Engine) Path() string {
	return e.path
}

// Stats returns a summary of the engine state.
func (e *Engine) Stats() Stats {
	minTS, _ := e.hdr.Min()
	maxTS, _ := e.hdr.Max()
	return Stats{
		Path:            e.path,
		Records:         e.hdr.Len(),
		PhysicalRecords: e.hdr.RecordCount(),
		FirstValid:      e.hdr.FirstValid(),
		FileSize:        e.file.Len(),
		Min:             minTS,
		Max:             maxTS,
		Empty:           e.hdr.IsEmpty(),
		ReadOnly:        e.file.ReadOnly(),
	}
}

// Close releases the file. Every mutation has already been flushed when it
// returned, so Close never loses acknowledged data. Close is idempotent.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if err := e.file.Close(); err != nil {
		return newError("close", e.path).IO(err).Err()
	}
	return nil
}

func (e *Engine) ensureOpen(op string) error {
	if e.closed {
		return newError(op, e.path).Kind(ErrClosed).Err()
	}
	return nil
}

func (e *Engine) ensureWritable(op string) error {
	if err := e.ensureOpen(op); err != nil {
		return err
	}
	if e.file.ReadOnly() {
		return newError(op, e.path).Kind(ErrReadOnly).Err()
	}
	return nil
}

// sync commits pending writes when the sync mode asks for it.
func (e *Engine) sync() error {
	if e.opts.Sync == SyncNone {
		return nil
	}
	if err := e.file.Sync(); err != nil {
		e.logger.Error("sync failed", logging.Error(err))
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// writeHeader writes h at offset 0 and syncs. Callers swap it into e.hdr only
// after this succeeds.
func (e *Engine) writeHeader(h *header.Header) error {
	data, err := h.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := e.file.WriteAt(data, 0); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return e.sync()
}

// restoreHeader rewrites the in-memory header at offset 0 after a failed
// header update. The rejected header may already sit in the page cache, and a
// later sync or Close would otherwise persist it.
func (e *Engine) restoreHeader() {
	if err := e.writeHeader(e.hdr); err != nil {
		e.logger.Warn("failed to restore header after failed update", logging.Error(err))
	}
}

// readSlot reads the record at index i.
func (e *Engine) readSlot(i uint64) (record.Sample, error) {
	var buf [record.Size]byte
	if _, err := e.file.ReadAt(buf[:], header.SlotOffset(i)); err != nil {
		return record.Sample{}, fmt.Errorf("read slot %d: %w", i, err)
	}
	return record.Decode(buf[:]), nil
}

func (e *Engine) observe(op string, start time.Time, err error) {
	if e.opts.Metrics == nil {
		return
	}
	e.opts.Metrics.RecordOperation(op, err, time.Since(start))
}

func (e *Engine) updateSize() {
	if e.opts.Metrics == nil {
		return
	}
	e.opts.Metrics.UpdateSize(e.hdr.Len(), e.file.Len())
}
