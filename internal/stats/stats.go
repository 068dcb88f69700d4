package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Snapshot is the immutable result of draining one reporting window
type Snapshot struct {
	Sent int64
	Done int64
	OK   int64
	Err  int64

	P50Ms float64
	P90Ms float64
	P99Ms float64

	TotalDone int64
	TotalOK   int64
	TotalErr  int64

	Elapsed time.Duration
}

// Line renders the snapshot as a single status line
func (s Snapshot) Line() string {
	return fmt.Sprintf("sent=%d done=%d ok=%d err=%d p50=%.1fms p90=%.1fms p99=%.1fms | total done=%d ok=%d err=%d",
		s.Sent, s.Done, s.OK, s.Err, s.P50Ms, s.P90Ms, s.P99Ms, s.TotalDone, s.TotalOK, s.TotalErr)
}

// Summary holds whole-run statistics computed when the engine finishes
type Summary struct {
	Done  int64
	OK    int64
	Err   int64
	MinMs float64
	AvgMs float64
	MaxMs float64
	P50Ms float64
	P90Ms float64
	P99Ms float64
}

// Aggregator owns all shared counters of a run. Window counters are drained
// and reset by SnapshotAndReset once per reporting interval; cumulative
// totals and the whole-run latency record survive until the run ends.
// All three operations serialize on one mutex; the work under the lock is
// small enough that finer-grained locking buys nothing.
type Aggregator struct {
	mu sync.Mutex

	start time.Time

	// current window
	sent      int64
	done      int64
	ok        int64
	errs      int64
	latencies []float64

	// cumulative, never reset
	totalDone int64
	totalOK   int64
	totalErr  int64

	// whole-run latency record for the final summary
	runLatencies []float64
}

// NewAggregator creates an Aggregator with the run clock started
func NewAggregator() *Aggregator {
	return &Aggregator{
		start:        time.Now(),
		latencies:    make([]float64, 0, 1024),
		runLatencies: make([]float64, 0, 4096),
	}
}

// OnSent records that one request was actually issued
func (a *Aggregator) OnSent() {
	a.mu.Lock()
	a.sent++
	a.mu.Unlock()
}

// OnResult records exactly one request outcome with its latency
func (a *Aggregator) OnResult(ok bool, latencyMs float64) {
	a.mu.Lock()
	a.done++
	a.totalDone++
	if ok {
		a.ok++
		a.totalOK++
	} else {
		a.errs++
		a.totalErr++
	}
	a.latencies = append(a.latencies, latencyMs)
	a.runLatencies = append(a.runLatencies, latencyMs)
	a.mu.Unlock()
}

// SnapshotAndReset atomically copies and clears the window counters. The
// cumulative totals are carried into the snapshot unreset.
func (a *Aggregator) SnapshotAndReset() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	sorted := make([]float64, len(a.latencies))
	copy(sorted, a.latencies)
	sort.Float64s(sorted)

	snap := Snapshot{
		Sent:      a.sent,
		Done:      a.done,
		OK:        a.ok,
		Err:       a.errs,
		P50Ms:     percentile(sorted, 0.50),
		P90Ms:     percentile(sorted, 0.90),
		P99Ms:     percentile(sorted, 0.99),
		TotalDone: a.totalDone,
		TotalOK:   a.totalOK,
		TotalErr:  a.totalErr,
		Elapsed:   time.Since(a.start),
	}

	a.sent = 0
	a.done = 0
	a.ok = 0
	a.errs = 0
	a.latencies = a.latencies[:0]

	return snap
}

// Summarize computes whole-run statistics over every recorded latency
func (a *Aggregator) Summarize() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	sorted := make([]float64, len(a.runLatencies))
	copy(sorted, a.runLatencies)
	sort.Float64s(sorted)

	summary := Summary{
		Done:  a.totalDone,
		OK:    a.totalOK,
		Err:   a.totalErr,
		P50Ms: percentile(sorted, 0.50),
		P90Ms: percentile(sorted, 0.90),
		P99Ms: percentile(sorted, 0.99),
	}
	if len(sorted) > 0 {
		summary.MinMs = sorted[0]
		summary.MaxMs = sorted[len(sorted)-1]
		var sum float64
		for _, v := range sorted {
			sum += v
		}
		summary.AvgMs = sum / float64(len(sorted))
	}
	return summary
}

// percentile returns the element at index floor(p*n), clamped to n-1, over
// an ascending-sorted slice, or 0 for an empty slice. The index-based
// (non-interpolated) policy is intentional: it keeps reported numbers
// identical across runs at the cost of understating the tail for tiny
// windows.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(p * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
