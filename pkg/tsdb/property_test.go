package tsdb

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dd0wney/enod/pkg/record"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// buildSamples turns generated gaps into a non-decreasing series; zero gaps
// produce runs of equal timestamps.
func buildSamples(gaps []uint8) []record.Sample {
	out := make([]record.Sample, len(gaps))
	var ts uint64
	for i, g := range gaps {
		ts += uint64(g)
		out[i] = record.Sample{Timestamp: ts, Value: byte(i)}
	}
	return out
}

// modelRange is the reference answer for Range(start, end).
func modelRange(samples []record.Sample, start, end uint64) []record.Sample {
	var out []record.Sample
	for _, s := range samples {
		if s.Timestamp >= start && s.Timestamp <= end {
			out = append(out, s)
		}
	}
	return out
}

type propertyStore struct {
	dir string
	n   int
}

func (p *propertyStore) create(samples []record.Sample) (*Engine, error) {
	p.n++
	path := filepath.Join(p.dir, fmt.Sprintf("prop-%d.enod", p.n))
	e, err := Create(path, quiet(), WithSync(SyncNone))
	if err != nil {
		return nil, err
	}
	if err := e.InsertBatch(samples); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func TestStoreProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	store := &propertyStore{dir: t.TempDir()}

	gaps := gen.SliceOf(gen.UInt8Range(0, 3))

	properties.Property("full range returns every sample in insertion order", prop.ForAll(
		func(gaps []uint8) bool {
			samples := buildSamples(gaps)
			e, err := store.create(samples)
			if err != nil {
				return false
			}
			defer e.Close()

			got, err := e.Samples(0, ^uint64(0))
			return err == nil && equalSamples(got, samples) && e.Count() == uint64(len(samples))
		},
		gaps,
	))

	properties.Property("range matches a linear filter", prop.ForAll(
		func(gaps []uint8, start, width uint64) bool {
			samples := buildSamples(gaps)
			e, err := store.create(samples)
			if err != nil {
				return false
			}
			defer e.Close()

			end := start + width
			got, err := e.Samples(start, end)
			return err == nil && equalSamples(got, modelRange(samples, start, end))
		},
		gaps,
		gen.UInt64Range(0, 200),
		gen.UInt64Range(0, 50),
	))

	properties.Property("get returns the first sample at a timestamp", prop.ForAll(
		func(gaps []uint8, ts uint64) bool {
			samples := buildSamples(gaps)
			e, err := store.create(samples)
			if err != nil {
				return false
			}
			defer e.Close()

			got, err := e.Get(ts)
			matches := modelRange(samples, ts, ts)
			if len(matches) == 0 {
				return IsNotFound(err)
			}
			return err == nil && got == matches[0]
		},
		gaps,
		gen.UInt64Range(0, 200),
	))

	properties.Property("max only grows and out of order inserts change nothing", prop.ForAll(
		func(gaps []uint8, back uint64) bool {
			samples := buildSamples(gaps)
			e, err := store.create(samples)
			if err != nil {
				return false
			}
			defer e.Close()

			maxTS, ok := e.Max()
			if !ok || back == 0 || back > maxTS {
				return true
			}
			err = e.Insert(maxTS-back, 0)
			after, _ := e.Max()
			return IsOutOfOrder(err) && after == maxTS && e.Count() == uint64(len(samples))
		},
		gen.SliceOf(gen.UInt8Range(1, 3)).SuchThat(func(g []uint8) bool { return len(g) > 0 }),
		gen.UInt64Range(1, 10),
	))

	properties.Property("trim then compact preserves the visible suffix", prop.ForAll(
		func(gaps []uint8, k uint64) bool {
			samples := buildSamples(gaps)
			e, err := store.create(samples)
			if err != nil {
				return false
			}
			defer e.Close()

			if err := e.TrimOldest(k); err != nil {
				return false
			}
			want := samples[min(k, uint64(len(samples))):]
			trimmed, err := e.Samples(0, ^uint64(0))
			if err != nil || !equalSamples(trimmed, want) {
				return false
			}

			if err := e.Compact(); err != nil {
				return false
			}
			compacted, err := e.Samples(0, ^uint64(0))
			return err == nil && equalSamples(compacted, want) && e.Count() == uint64(len(want))
		},
		gaps,
		gen.UInt64Range(0, 40),
	))

	properties.Property("reopen reproduces the same answers", prop.ForAll(
		func(gaps []uint8, k uint64) bool {
			samples := buildSamples(gaps)
			e, err := store.create(samples)
			if err != nil {
				return false
			}
			if err := e.TrimOldest(k); err != nil {
				e.Close()
				return false
			}
			before, _ := e.Samples(0, ^uint64(0))
			minBefore, okBefore := e.Min()
			path := e.Path()
			if err := e.Close(); err != nil {
				return false
			}

			e2, err := Open(path, quiet())
			if err != nil {
				return false
			}
			defer e2.Close()

			after, err := e2.Samples(0, ^uint64(0))
			minAfter, okAfter := e2.Min()
			return err == nil && equalSamples(before, after) &&
				minBefore == minAfter && okBefore == okAfter
		},
		gaps,
		gen.UInt64Range(0, 40),
	))

	properties.TestingRun(t)

	// Every engine was closed; nothing but data files may remain
	entries, err := os.ReadDir(store.dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".enod" {
			t.Errorf("unexpected file %s left behind", entry.Name())
		}
	}
}
