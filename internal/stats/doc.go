/*
Package stats aggregates per-request outcomes into windowed and
whole-run statistics.

# Aggregation Model

The Aggregator keeps two scopes under one mutex:
  - Window counters (sent, done, ok, err, latencies) that reset every
    time a snapshot is drained
  - Cumulative totals and the whole-run latency record, which never
    reset

Draining and recording interleave safely: an outcome lands either in
the window being drained or in the next one, never in both and never
in neither.

# Percentiles

Percentiles use the floor index into the sorted sample: p50 of n
samples is sorted[int(0.50*n)], clamped to the last element. There is
no interpolation; an empty window reports 0 for every percentile.

# Reporting

The Reporter drains a snapshot once per second, prints a status line
and feeds registered sinks (history recorder, live dashboard). On
cancellation it performs one final drain so a partial last window is
never lost.
*/
package stats
