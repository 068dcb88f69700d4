package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/studiowebux/loadcli/internal/stats"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestManager_CreateAndGetRun(t *testing.T) {
	m := newTestManager(t)

	run := &Run{
		StartedAt:   time.Now(),
		Status:      "running",
		Rate:        50,
		Concurrency: 10,
		Targets:     3,
	}
	if err := m.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("Expected CreateRun to fill in the ID")
	}

	got, err := m.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != "running" || got.Rate != 50 || got.Concurrency != 10 || got.Targets != 3 {
		t.Errorf("Retrieved run does not match: %+v", got)
	}
	if got.CompletedAt != nil {
		t.Error("Expected a running run to have no completion time")
	}
}

func TestManager_FinalizeRun(t *testing.T) {
	m := newTestManager(t)

	run := &Run{StartedAt: time.Now(), Status: "running", Rate: 10, Concurrency: 0, Targets: 1}
	if err := m.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	run.Status = "completed"
	summary := stats.Summary{
		Done: 100, OK: 95, Err: 5,
		MinMs: 2.5, AvgMs: 14, MaxMs: 180,
		P50Ms: 12, P90Ms: 40, P99Ms: 160,
	}
	if err := m.FinalizeRun(run, summary); err != nil {
		t.Fatalf("FinalizeRun failed: %v", err)
	}

	got, err := m.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != "completed" {
		t.Errorf("Expected completed status, got: %q", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("Expected a completion time")
	}
	if got.TotalDone != 100 || got.TotalOK != 95 || got.TotalErr != 5 {
		t.Errorf("Totals do not match: done=%d ok=%d err=%d", got.TotalDone, got.TotalOK, got.TotalErr)
	}
	if got.P50Ms != 12 || got.P90Ms != 40 || got.P99Ms != 160 {
		t.Errorf("Percentiles do not match: %.1f/%.1f/%.1f", got.P50Ms, got.P90Ms, got.P99Ms)
	}
}

func TestManager_SaveAndGetSnapshots(t *testing.T) {
	m := newTestManager(t)

	run := &Run{StartedAt: time.Now(), Status: "running", Rate: 5, Targets: 1}
	if err := m.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	batch1 := []stats.Snapshot{
		{Sent: 5, Done: 5, OK: 5, P50Ms: 10},
		{Sent: 5, Done: 4, OK: 3, Err: 1, P50Ms: 12},
	}
	if err := m.SaveSnapshots(run.ID, 0, batch1); err != nil {
		t.Fatalf("SaveSnapshots failed: %v", err)
	}
	// A second batch continues the sequence.
	batch2 := []stats.Snapshot{{Sent: 5, Done: 6, OK: 6, P50Ms: 11}}
	if err := m.SaveSnapshots(run.ID, len(batch1), batch2); err != nil {
		t.Fatalf("SaveSnapshots failed: %v", err)
	}

	snaps, err := m.GetSnapshots(run.ID)
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("Expected 3 snapshots, got: %d", len(snaps))
	}
	if snaps[0].OK != 5 || snaps[1].Err != 1 || snaps[2].Done != 6 {
		t.Errorf("Snapshots out of order or corrupted: %+v", snaps)
	}
}

func TestManager_SaveSnapshotsEmptyBatch(t *testing.T) {
	m := newTestManager(t)
	if err := m.SaveSnapshots(1, 0, nil); err != nil {
		t.Errorf("Expected an empty batch to be a no-op, got: %v", err)
	}
}

func TestManager_ListRuns(t *testing.T) {
	m := newTestManager(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		run := &Run{StartedAt: base.Add(time.Duration(i) * time.Minute), Status: "completed", Rate: i + 1, Targets: 1}
		if err := m.CreateRun(run); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}

	runs, err := m.ListRuns(3)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected the limit to apply, got: %d runs", len(runs))
	}
	// Newest first.
	if runs[0].Rate != 5 || runs[1].Rate != 4 || runs[2].Rate != 3 {
		t.Errorf("Expected newest-first ordering, got rates: %d, %d, %d",
			runs[0].Rate, runs[1].Rate, runs[2].Rate)
	}
}

func TestRecorder_BuffersUntilFlush(t *testing.T) {
	m := newTestManager(t)

	run := &Run{StartedAt: time.Now(), Status: "running", Rate: 1, Targets: 1}
	if err := m.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	rec := NewRecorder(m, run.ID)
	rec.Record(stats.Snapshot{Sent: 1, Done: 1, OK: 1})
	rec.Record(stats.Snapshot{Sent: 1, Done: 1, Err: 1})

	// Below the flush threshold nothing is persisted yet.
	snaps, err := m.GetSnapshots(run.ID)
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(snaps) != 0 {
		t.Fatalf("Expected buffered snapshots to stay in memory, found: %d", len(snaps))
	}

	rec.Flush()

	snaps, err = m.GetSnapshots(run.ID)
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("Expected 2 snapshots after flush, got: %d", len(snaps))
	}
	if snaps[0].OK != 1 || snaps[1].Err != 1 {
		t.Errorf("Flushed snapshots do not match: %+v", snaps)
	}
}

func TestRecorder_AutoFlushAtThreshold(t *testing.T) {
	m := newTestManager(t)

	run := &Run{StartedAt: time.Now(), Status: "running", Rate: 1, Targets: 1}
	if err := m.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	rec := NewRecorder(m, run.ID)
	for i := 0; i < flushThreshold; i++ {
		rec.Record(stats.Snapshot{Sent: 1, Done: 1, OK: 1})
	}

	snaps, err := m.GetSnapshots(run.ID)
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(snaps) != flushThreshold {
		t.Errorf("Expected %d snapshots after auto flush, got: %d", flushThreshold, len(snaps))
	}
}
