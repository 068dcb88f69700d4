package stats

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Sink receives every drained snapshot. Used by the history recorder and
// the live dashboard.
type Sink func(Snapshot)

// Reporter drains the aggregator on a fixed cadence and emits one status
// line per interval. When the context is cancelled it performs one final
// drain before returning, so the last partial window is never lost.
type Reporter struct {
	agg      *Aggregator
	out      io.Writer
	interval time.Duration
	quiet    bool // suppress line output (live dashboard renders instead)
	sinks    []Sink
}

// NewReporter creates a reporter on a one-second cadence
func NewReporter(agg *Aggregator, out io.Writer, sinks ...Sink) *Reporter {
	return &Reporter{
		agg:      agg,
		out:      out,
		interval: time.Second,
		sinks:    sinks,
	}
}

// SetQuiet disables the plain status line; sinks still receive snapshots
func (r *Reporter) SetQuiet(quiet bool) {
	r.quiet = quiet
}

// Run blocks until ctx is cancelled, then drains once more and returns
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.emit()
		case <-ctx.Done():
			r.emit()
			return
		}
	}
}

// emit drains one window and publishes it. A failed print must not take the
// engine down; the next tick simply tries again.
func (r *Reporter) emit() {
	snap := r.agg.SnapshotAndReset()
	for _, sink := range r.sinks {
		sink(snap)
	}
	if r.quiet {
		return
	}
	// Output may be gone (closed pipe); keep the run alive regardless.
	_, _ = fmt.Fprintln(r.out, snap.Line())
}
