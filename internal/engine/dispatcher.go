package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/studiowebux/loadcli/internal/stats"
	"github.com/studiowebux/loadcli/internal/types"
)

// Dispatcher executes one request/response exchange per scheduled send,
// measures latency to full body consumption, classifies the outcome and
// reports it to the aggregator exactly once.
type Dispatcher struct {
	client  *http.Client
	limiter *Limiter
	agg     *stats.Aggregator
	timeout time.Duration
	verbose bool
	logOut  io.Writer
}

// NewDispatcher wires a dispatcher onto the shared client, limiter and
// aggregator
func NewDispatcher(client *http.Client, limiter *Limiter, agg *stats.Aggregator, timeout time.Duration, verbose bool, logOut io.Writer) *Dispatcher {
	if timeout <= 0 {
		timeout = types.DefaultTimeout
	}
	return &Dispatcher{
		client:  client,
		limiter: limiter,
		agg:     agg,
		timeout: timeout,
		verbose: verbose,
		logOut:  logOut,
	}
}

// Dispatch waits until sendAt (if still in the future), issues the request
// and reports the outcome. It never returns an error: per-request failures
// are counted, not propagated.
func (d *Dispatcher) Dispatch(target types.Target, sendAt time.Time) {
	if wait := time.Until(sendAt); wait > 0 {
		time.Sleep(wait)
	}

	// "sent" is recorded at actual issuance, not scheduling time
	d.agg.OnSent()

	// The background context means acquisition cannot fail; shutdown drains
	// in-flight dispatches rather than cancelling them.
	if err := d.limiter.Acquire(context.Background()); err != nil {
		d.agg.OnResult(false, 0)
		return
	}
	defer d.limiter.Release()

	ok, latencyMs, detail := d.exchange(target)
	d.agg.OnResult(ok, latencyMs)

	if d.verbose {
		ts := time.Now().UTC().Format(time.RFC3339)
		fmt.Fprintf(d.logOut, "[%s] %s %s -> %s\n", ts, target.Method, target.URL, detail)
	}
}

// exchange performs the request with a bounded total timeout and drains the
// response body fully. Draining is a correctness requirement: an unread
// body understates latency and breaks connection reuse.
func (d *Dispatcher) exchange(target types.Target) (ok bool, latencyMs float64, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var bodyReader io.Reader
	if len(target.Body) > 0 {
		bodyReader = bytes.NewReader(target.Body)
	}

	req, err := http.NewRequestWithContext(ctx, target.Method, target.URL, bodyReader)
	if err != nil {
		return false, 0, fmt.Sprintf("error: %v", err)
	}
	for name, value := range target.Headers {
		req.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return false, msSince(start), fmt.Sprintf("error: %v", err)
	}

	_, drainErr := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latencyMs = msSince(start)

	if drainErr != nil {
		return false, latencyMs, fmt.Sprintf("error reading body: %v", drainErr)
	}

	ok = resp.StatusCode >= 200 && resp.StatusCode < 400
	return ok, latencyMs, resp.Status
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
