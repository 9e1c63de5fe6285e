package tsdb

import (
	"github.com/dd0wney/enod/pkg/record"
)

// VerifyReport summarizes a Verify pass.
type VerifyReport struct {
	Records uint64
	First   uint64
	Last    uint64
}

// Verify reads every visible record and checks the ordering invariant and the
// cached bounds. It is O(n) and only runs when called or when the engine is
// opened with WithVerifyOnOpen.
func (e *Engine) Verify() (VerifyReport, error) {
	var report VerifyReport
	if err := e.ensureOpen("verify"); err != nil {
		return report, err
	}

	var (
		prev      record.Sample
		violation error
	)
	err := e.scan(e.hdr.FirstValid(), e.hdr.RecordCount(), func(i uint64, s record.Sample) bool {
		if report.Records > 0 && s.Timestamp < prev.Timestamp {
			violation = newError("verify", e.path).
				Format("record %d timestamp %d is before previous %d", i, s.Timestamp, prev.Timestamp).Err()
			return false
		}
		if report.Records == 0 {
			report.First = s.Timestamp
		}
		report.Last = s.Timestamp
		report.Records++
		prev = s
		return true
	})
	if err != nil {
		return report, newError("verify", e.path).IO(err).Err()
	}
	if violation != nil {
		return report, violation
	}

	if report.Records > 0 {
		minTS, _ := e.hdr.Min()
		maxTS, _ := e.hdr.Max()
		if report.First != minTS || report.Last != maxTS {
			return report, newError("verify", e.path).
				Format("header bounds [%d, %d] disagree with records [%d, %d]", minTS, maxTS, report.First, report.Last).Err()
		}
	}
	return report, nil
}
