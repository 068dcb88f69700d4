/*
Package engine drives sustained HTTP load against a target list.

# Overview

The engine package implements a paced load generation system with:
  - Per-second scheduling windows with evenly spaced sends
  - Bounded in-flight concurrency via a weighted semaphore
  - A shared HTTP client with a sized connection pool
  - Per-request latency measurement to full body consumption
  - Graceful drain on shutdown

# Architecture

The package consists of three components:

1. Engine (engine.go): Window scheduling loop and run lifecycle
2. Dispatcher (dispatcher.go): One request/response exchange per send
3. Limiter (limiter.go): Concurrency bound over a weighted semaphore

# Scheduling

Time is divided into one-second windows. A window issues exactly Rate
sends, the i-th scheduled at windowStart + i*(1s/Rate). Each send gets
its own goroutine that sleeps until its slot, so a slow response never
delays later slots. Whatever remains of the second after issuing is
slept out in a single wait; if issuing overran the second, the next
window starts immediately rather than compounding the drift.

The stop condition (context cancellation or the configured duration) is
checked at window boundaries. A started window always issues its full
second of sends.

# Concurrency

The limiter caps requests in flight, not requests issued. A dispatch
that finds no free slot counts as sent immediately and waits; its
latency clock starts only once the request actually goes out.
Unbounded mode uses a large finite semaphore rather than a separate
code path.

# Shutdown

Run drains rather than aborts:
 1. No new windows are scheduled
 2. Every in-flight dispatch runs to completion
 3. The reporter emits a final snapshot of the partial window
 4. Idle connections are closed

Per-request contexts are never cancelled by shutdown; only the
per-request timeout bounds an exchange.

# Outcome Classification

A request is ok when the response status is in [200, 400) and the body
drained without error. Network errors, timeouts and 4xx/5xx statuses
count as err. Every dispatch reports exactly one outcome.

# Example Usage

	list, err := target.NewList(targets)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Options{
		Targets:     list,
		Rate:        100,
		Concurrency: 20,
		Timeout:     15 * time.Second,
		Out:         os.Stdout,
	})
	if err != nil {
		return err
	}

	err = eng.Run(ctx)

	summary := eng.Aggregator().Summarize()
	fmt.Printf("done=%d ok=%d err=%d p99=%.1fms\n",
		summary.Done, summary.OK, summary.Err, summary.P99Ms)
*/
package engine
