package tsdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dd0wney/enod/pkg/header"
	"github.com/dd0wney/enod/pkg/record"
)

func TestTrimOldest(t *testing.T) {
	e := newTestEngine(t)
	samples := sequence(10, 100, 1)
	mustInsert(t, e, samples...)
	sizeBefore := fileSize(t, e.Path())

	if err := e.TrimOldest(3); err != nil {
		t.Fatalf("TrimOldest(3) failed: %v", err)
	}

	if e.Count() != 7 {
		t.Errorf("Count() = %d, want 7", e.Count())
	}
	if minTS, _ := e.Min(); minTS != 103 {
		t.Errorf("Min() = %d, want 103", minTS)
	}
	if got := mustSamples(t, e, 0, ^uint64(0)); !equalSamples(got, samples[3:]) {
		t.Errorf("Range after trim = %v", got)
	}
	if got := fileSize(t, e.Path()); got != sizeBefore {
		t.Errorf("trim changed file size from %d to %d", sizeBefore, got)
	}

	e = reopen(t, e)
	if e.Count() != 7 {
		t.Errorf("Count() = %d after reopen, want 7", e.Count())
	}
}

func TestTrimOldest_Zero(t *testing.T) {
	e := newTestEngine(t)
	mustInsert(t, e, sequence(3, 1, 1)...)
	if err := e.TrimOldest(0); err != nil {
		t.Fatal(err)
	}
	if e.Count() != 3 {
		t.Errorf("Count() = %d, want 3", e.Count())
	}
}

func TestTrimOldest_MoreThanVisible(t *testing.T) {
	e := newTestEngine(t)
	mustInsert(t, e, sequence(4, 1, 1)...)

	if err := e.TrimOldest(100); err != nil {
		t.Fatalf("TrimOldest(100) failed: %v", err)
	}
	if e.Count() != 0 {
		t.Errorf("Count() = %d, want 0", e.Count())
	}
	if _, ok := e.Min(); ok {
		t.Error("Min() should report ok=false after trimming everything")
	}
	if _, ok := e.Max(); ok {
		t.Error("Max() should report ok=false after trimming everything")
	}

	// Trimming an empty store is a no-op
	if err := e.TrimOldest(1); err != nil {
		t.Errorf("TrimOldest on empty store failed: %v", err)
	}
}

func TestTrimBefore(t *testing.T) {
	e := newTestEngine(t)
	mustInsert(t, e, sequence(10, 100, 10)...) // 100..190

	tests := []struct {
		ts      uint64
		trimmed uint64
		count   uint64
	}{
		{ts: 50, trimmed: 0, count: 10},
		{ts: 100, trimmed: 0, count: 10},
		{ts: 125, trimmed: 3, count: 7},
		{ts: 130, trimmed: 0, count: 7},
		{ts: 131, trimmed: 1, count: 6},
		{ts: 1000, trimmed: 6, count: 0},
	}

	for _, tt := range tests {
		n, err := e.TrimBefore(tt.ts)
		if err != nil {
			t.Fatalf("TrimBefore(%d) failed: %v", tt.ts, err)
		}
		if n != tt.trimmed || e.Count() != tt.count {
			t.Errorf("TrimBefore(%d) = %d with count %d, want %d with count %d",
				tt.ts, n, e.Count(), tt.trimmed, tt.count)
		}
	}
}

func TestCompact(t *testing.T) {
	e := newTestEngine(t, WithScanBufferSize(8*record.Size))
	samples := sequence(100, 1, 1)
	mustInsert(t, e, samples...)
	if err := e.TrimOldest(60); err != nil {
		t.Fatal(err)
	}
	before := mustSamples(t, e, 0, ^uint64(0))
	sizeBefore := fileSize(t, e.Path())

	if err := e.Compact(); err != nil {
		t.Fatalf("Compact() failed: %v", err)
	}

	sizeAfter := fileSize(t, e.Path())
	if sizeAfter >= sizeBefore {
		t.Errorf("file size %d not smaller than %d", sizeAfter, sizeBefore)
	}
	if want := int64(header.Size + 40*record.Size); sizeAfter != want {
		t.Errorf("file size = %d, want %d", sizeAfter, want)
	}

	st := e.Stats()
	if st.FirstValid != 0 || st.PhysicalRecords != 40 || st.Records != 40 {
		t.Errorf("Stats() after compact = %+v", st)
	}
	if after := mustSamples(t, e, 0, ^uint64(0)); !equalSamples(before, after) {
		t.Error("logical content changed by compaction")
	}

	// Appends land after the compacted records and survive a reopen
	mustInsert(t, e, record.Sample{Timestamp: 500, Value: 1})
	e = reopen(t, e)
	if e.Count() != 41 {
		t.Errorf("Count() = %d after reopen, want 41", e.Count())
	}
	if s, err := e.Get(500); err != nil || s.Value != 1 {
		t.Errorf("Get(500) = %v, %v", s, err)
	}
	if minTS, _ := e.Min(); minTS != 61 {
		t.Errorf("Min() = %d, want 61", minTS)
	}
}

func TestCompact_LeavesNoTempFiles(t *testing.T) {
	e := newTestEngine(t)
	mustInsert(t, e, sequence(10, 1, 1)...)
	if err := e.TrimOldest(10); err != nil {
		t.Fatal(err)
	}
	if err := e.Compact(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Dir(e.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries after compact, want 1", len(entries))
	}
	if got := fileSize(t, e.Path()); got != header.Size {
		t.Errorf("file size = %d, want %d", got, header.Size)
	}
}

func TestCompact_NothingTrimmed(t *testing.T) {
	e := newTestEngine(t)
	mustInsert(t, e, sequence(5, 1, 1)...)
	sizeBefore := fileSize(t, e.Path())

	if err := e.Compact(); err != nil {
		t.Fatal(err)
	}
	if got := fileSize(t, e.Path()); got != sizeBefore {
		t.Errorf("no-op compact changed size from %d to %d", sizeBefore, got)
	}
}
