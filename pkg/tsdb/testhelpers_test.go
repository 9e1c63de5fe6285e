package tsdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dd0wney/enod/pkg/datafile"
	"github.com/dd0wney/enod/pkg/header"
	"github.com/dd0wney/enod/pkg/logging"
	"github.com/dd0wney/enod/pkg/record"
)

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "series.enod")
}

func quiet() Option {
	return WithLogger(logging.NewNopLogger())
}

// newTestEngine creates an empty engine in a temp dir.
func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := Create(testPath(t), append([]Option{quiet()}, opts...)...)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func reopen(t *testing.T, e *Engine, opts ...Option) *Engine {
	t.Helper()
	if err := e.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	ne, err := Open(e.Path(), append([]Option{quiet()}, opts...)...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { ne.Close() })
	return ne
}

func mustInsert(t *testing.T, e *Engine, samples ...record.Sample) {
	t.Helper()
	for _, s := range samples {
		if err := e.Insert(s.Timestamp, s.Value); err != nil {
			t.Fatalf("Insert(%d, %d) failed: %v", s.Timestamp, s.Value, err)
		}
	}
}

func mustSamples(t *testing.T, e *Engine, start, end uint64) []record.Sample {
	t.Helper()
	got, err := e.Samples(start, end)
	if err != nil {
		t.Fatalf("Samples(%d, %d) failed: %v", start, end, err)
	}
	return got
}

func equalSamples(a, b []record.Sample) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sequence returns n samples with timestamps base, base+step, ...
func sequence(n int, base, step uint64) []record.Sample {
	out := make([]record.Sample, n)
	for i := range out {
		out[i] = record.Sample{Timestamp: base + uint64(i)*step, Value: byte(i)}
	}
	return out
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return info.Size()
}

// overwriteSlot rewrites record i directly on disk, bypassing the engine.
func overwriteSlot(t *testing.T, path string, i uint64, s record.Sample) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf := make([]byte, record.Size)
	record.Encode(buf, s)
	if _, err := f.WriteAt(buf, header.SlotOffset(i)); err != nil {
		t.Fatal(err)
	}
}

var errInjected = errors.New("injected failure")

// faultyHandle wraps a data file and fails the Nth call of WriteAt, Sync or
// ReadAt (1-based; 0 never fails). Calls before and after go through.
type faultyHandle struct {
	datafile.Handle
	writes, syncs, reads          int
	failWrite, failSync, failRead int
}

func (h *faultyHandle) WriteAt(p []byte, off int64) (int, error) {
	h.writes++
	if h.writes == h.failWrite {
		return 0, errInjected
	}
	return h.Handle.WriteAt(p, off)
}

func (h *faultyHandle) Sync() error {
	h.syncs++
	if h.syncs == h.failSync {
		return errInjected
	}
	return h.Handle.Sync()
}

func (h *faultyHandle) ReadAt(p []byte, off int64) (int, error) {
	h.reads++
	if h.reads == h.failRead {
		return 0, errInjected
	}
	return h.Handle.ReadAt(p, off)
}

// injectFaults swaps the engine's file for a faultyHandle around it.
func injectFaults(e *Engine, h *faultyHandle) *faultyHandle {
	h.Handle = e.file
	e.file = h
	return h
}
