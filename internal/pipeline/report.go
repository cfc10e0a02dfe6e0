package pipeline

import (
	"time"
)

// UnitResult is the record of one work unit.
type UnitResult struct {
	VideoID string
	Outcome Outcome
	// Fetched is true when the fetch tool ran and succeeded in this run.
	Fetched bool
	// Segments is the number of segments in the unit.
	Segments int
	// Clips holds one entry per attempted segment, in manifest order.
	Clips []ClipResult
	// Trace is the sequence of states the unit went through.
	Trace   []State
	Err     error
	ReapErr error
	Elapsed time.Duration
}

// ClipsOK returns the number of clips produced.
func (u UnitResult) ClipsOK() int {
	n := 0
	for _, c := range u.Clips {
		if c.OK() {
			n++
		}
	}
	return n
}

// Report aggregates the results of a run.
type Report struct {
	Units    []UnitResult
	Started  time.Time
	Finished time.Time
}

// Totals are the aggregate counters of a Report.
type Totals struct {
	Units        int
	Segments     int
	Fetched      int
	Reused       int
	FetchFailed  int
	Canceled     int
	Skipped      int
	FSErrors     int
	Clips        int
	ClipFailures int
	ReapFailures int
}

// Elapsed returns the wall time of the run.
func (r *Report) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Totals computes aggregate counters.
func (r *Report) Totals() Totals {
	var t Totals
	for _, u := range r.Units {
		t.Units++
		t.Segments += u.Segments
		if u.Fetched {
			t.Fetched++
		}
		if u.Err == nil && !u.Fetched && u.Outcome != OutcomeSkipped {
			t.Reused++
		}
		switch u.Outcome {
		case OutcomeFetchFailed:
			t.FetchFailed++
		case OutcomeCanceled:
			t.Canceled++
		case OutcomeSkipped:
			t.Skipped++
		case OutcomeFilesystemError:
			t.FSErrors++
		}
		ok := u.ClipsOK()
		t.Clips += ok
		t.ClipFailures += len(u.Clips) - ok
		if u.ReapErr != nil {
			t.ReapFailures++
		}
	}
	return t
}

// HasFailures reports whether any unit or segment did not complete.
func (r *Report) HasFailures() bool {
	for _, u := range r.Units {
		if u.Outcome != OutcomeOK {
			return true
		}
	}
	return false
}

// Problems returns the units that ran and did not complete cleanly, in report order.
// Skipped units are left out.
func (r *Report) Problems() []UnitResult {
	var units []UnitResult
	for _, u := range r.Units {
		if u.Outcome != OutcomeOK && u.Outcome != OutcomeSkipped {
			units = append(units, u)
		}
	}
	return units
}
