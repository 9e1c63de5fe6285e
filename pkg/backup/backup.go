// Package backup streams a data file's visible samples into a compact,
// snappy-compressed snapshot and rebuilds data files from one. Snapshots can
// be kept locally or in any ObjectStore, such as S3.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dd0wney/enod/pkg/record"
	"github.com/dd0wney/enod/pkg/tsdb"
	"github.com/golang/snappy"
)

// batchSamples is how many samples are encoded or replayed per write.
const batchSamples = 4096

// Write streams the visible samples of e to w. Trimmed records are not
// included, so restoring a snapshot also compacts it.
//
// Output is buffered and framed as it goes, so on error w may already hold an
// incomplete stream. Callers must discard it; Restore fails on it.
func Write(w io.Writer, e *tsdb.Engine) (Manifest, error) {
	m := Manifest{Version: Version, Count: e.Count()}
	m.Min, _ = e.Min()
	m.Max, _ = e.Max()

	sw := snappy.NewBufferedWriter(w)

	hdr, err := m.MarshalBinary()
	if err != nil {
		return m, err
	}
	if _, err := sw.Write(hdr); err != nil {
		return m, fmt.Errorf("write manifest: %w", err)
	}

	buf := make([]byte, 0, batchSamples*record.Size)
	var written uint64
	for s, err := range e.All() {
		if err != nil {
			return m, fmt.Errorf("read samples: %w", err)
		}
		buf = record.Append(buf, s)
		written++

		if len(buf) == cap(buf) {
			if _, err := sw.Write(buf); err != nil {
				return m, fmt.Errorf("write samples: %w", err)
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		if _, err := sw.Write(buf); err != nil {
			return m, fmt.Errorf("write samples: %w", err)
		}
	}

	if written != m.Count {
		return m, fmt.Errorf("wrote %d samples, manifest promised %d", written, m.Count)
	}
	if err := sw.Close(); err != nil {
		return m, fmt.Errorf("flush backup: %w", err)
	}
	return m, nil
}

// Restore creates a new data file at path from the snapshot in r. An existing
// file at path is overwritten. On failure the partial file is removed.
func Restore(r io.Reader, path string, opts ...tsdb.Option) (*tsdb.Engine, Manifest, error) {
	sr := snappy.NewReader(r)

	var m Manifest
	hdr := make([]byte, ManifestSize)
	if _, err := io.ReadFull(sr, hdr); err != nil {
		return nil, m, fmt.Errorf("%w: read manifest: %v", ErrBadManifest, err)
	}
	if err := m.UnmarshalBinary(hdr); err != nil {
		return nil, m, err
	}

	e, err := tsdb.Create(path, opts...)
	if err != nil {
		return nil, m, err
	}

	if err := replay(sr, e, m); err != nil {
		_ = e.Close()
		_ = os.Remove(path)
		return nil, m, err
	}
	return e, m, nil
}

func replay(r io.Reader, e *tsdb.Engine, m Manifest) error {
	buf := make([]byte, batchSamples*record.Size)
	samples := make([]record.Sample, 0, batchSamples)

	for remaining := m.Count; remaining > 0; {
		n := min(remaining, batchSamples)
		chunk := buf[:n*record.Size]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return fmt.Errorf("%w: %d samples missing: %v", ErrTruncated, remaining, err)
		}

		samples = samples[:0]
		for off := 0; off < len(chunk); off += record.Size {
			samples = append(samples, record.Decode(chunk[off:]))
		}
		if err := e.InsertBatch(samples); err != nil {
			return fmt.Errorf("replay samples: %w", err)
		}
		remaining -= n
	}

	var extra [1]byte
	if _, err := r.Read(extra[:]); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: data after %d samples", ErrBadManifest, m.Count)
	}

	minTS, _ := e.Min()
	maxTS, _ := e.Max()
	if m.Count > 0 && (minTS != m.Min || maxTS != m.Max) {
		return fmt.Errorf("%w: samples span [%d, %d], manifest says [%d, %d]",
			ErrBadManifest, minTS, maxTS, m.Min, m.Max)
	}
	return nil
}
