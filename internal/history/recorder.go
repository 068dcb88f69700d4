package history

import (
	"fmt"
	"os"
	"sync"

	"github.com/studiowebux/loadcli/internal/stats"
)

// flushThreshold is how many buffered snapshots trigger a batch insert
const flushThreshold = 60

// Recorder buffers reporter snapshots and batch-writes them to the history
// database. Save failures are logged and skipped; history must never take
// down a running test.
type Recorder struct {
	mu      sync.Mutex
	manager *Manager
	runID   int64
	seq     int
	buf     []stats.Snapshot
}

// NewRecorder creates a recorder for one run
func NewRecorder(manager *Manager, runID int64) *Recorder {
	return &Recorder{
		manager: manager,
		runID:   runID,
		buf:     make([]stats.Snapshot, 0, flushThreshold),
	}
}

// Record is the stats.Sink fed by the reporter
func (r *Recorder) Record(snap stats.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf = append(r.buf, snap)
	if len(r.buf) >= flushThreshold {
		r.flushLocked()
	}
}

// Flush writes any buffered snapshots
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

func (r *Recorder) flushLocked() {
	if len(r.buf) == 0 {
		return
	}
	if err := r.manager.SaveSnapshots(r.runID, r.seq, r.buf); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save snapshots: %v\n", err)
	}
	r.seq += len(r.buf)
	r.buf = r.buf[:0]
}
