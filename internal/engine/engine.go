package engine

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/studiowebux/loadcli/internal/stats"
	"github.com/studiowebux/loadcli/internal/target"
)

const (
	// HTTP client configuration timeouts
	TCPDialTimeout        = 5 * time.Second
	TCPKeepAliveInterval  = 30 * time.Second
	TLSHandshakeTimeout   = 5 * time.Second
	IdleConnTimeout       = 90 * time.Second
	ExpectContinueTimeout = 1 * time.Second

	// MinConnPoolSize is the floor for the idle connection pool regardless
	// of the configured concurrency
	MinConnPoolSize = 256
)

// Options configures an engine run
type Options struct {
	Targets     *target.List
	Rate        int           // requests per second; 0 or less = idle heartbeat
	Concurrency int           // max in-flight; 0 or less = effectively unbounded
	Timeout     time.Duration // total per-request timeout
	Duration    time.Duration // run length; 0 = until the context is cancelled
	Insecure    bool          // skip TLS certificate verification
	Verbose     bool          // per-request log lines
	Out         io.Writer     // reporter status lines
	LogOut      io.Writer     // verbose request lines
	Quiet       bool          // suppress reporter lines (live dashboard mode)
	Sinks       []stats.Sink  // extra snapshot consumers
}

// Engine paces one-second windows of evenly spaced sends, bounds in-flight
// requests through the limiter, and drains everything on shutdown.
type Engine struct {
	opts       Options
	agg        *stats.Aggregator
	limiter    *Limiter
	client     *http.Client
	dispatcher *Dispatcher
	reporter   *stats.Reporter
	inflight   sync.WaitGroup
}

// New validates the options and builds an engine with its shared connection
// pool, limiter, aggregator and reporter.
func New(opts Options) (*Engine, error) {
	if opts.Targets == nil || opts.Targets.Len() == 0 {
		return nil, fmt.Errorf("target list is empty")
	}
	if opts.Out == nil {
		return nil, fmt.Errorf("no reporter output configured")
	}
	if opts.LogOut == nil {
		opts.LogOut = io.Discard
	}

	agg := stats.NewAggregator()
	limiter := NewLimiter(opts.Concurrency)
	client := buildHTTPClient(opts)
	dispatcher := NewDispatcher(client, limiter, agg, opts.Timeout, opts.Verbose, opts.LogOut)
	reporter := stats.NewReporter(agg, opts.Out, opts.Sinks...)
	reporter.SetQuiet(opts.Quiet)

	return &Engine{
		opts:       opts,
		agg:        agg,
		limiter:    limiter,
		client:     client,
		dispatcher: dispatcher,
		reporter:   reporter,
	}, nil
}

// Aggregator exposes the run's statistics, e.g. for the final summary
func (e *Engine) Aggregator() *stats.Aggregator {
	return e.agg
}

// Run drives the window loop until ctx is cancelled or the configured
// duration elapses, then drains: no new windows are scheduled, in-flight
// dispatches are awaited, the reporter performs its final drain, and the
// connection pool is released. Always returns nil today; the error return
// is kept for the callers' sake.
func (e *Engine) Run(ctx context.Context) error {
	if e.opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Duration)
		defer cancel()
	}

	// The reporter outlives the scheduling loop so the final drain happens
	// after every in-flight dispatch has reported.
	reporterCtx, stopReporter := context.WithCancel(context.Background())
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		e.reporter.Run(reporterCtx)
	}()

	e.runWindows(ctx)

	e.inflight.Wait()
	stopReporter()
	<-reporterDone
	e.client.CloseIdleConnections()
	return nil
}

// runWindows issues one second's worth of evenly spaced sends per
// iteration. The stop condition is checked once per window boundary.
func (e *Engine) runWindows(ctx context.Context) {
	rate := e.opts.Rate
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		windowStart := time.Now()

		if rate > 0 {
			spacing := time.Second / time.Duration(rate)
			for i := 0; i < rate; i++ {
				t := e.opts.Targets.Next()
				sendAt := windowStart.Add(time.Duration(i) * spacing)
				e.inflight.Add(1)
				go func() {
					defer e.inflight.Done()
					e.dispatcher.Dispatch(t, sendAt)
				}()
			}
		}

		// Sleep out the remainder of the window. If issuing overran the
		// second, start the next window immediately instead of compounding
		// the drift.
		remaining := time.Until(windowStart.Add(time.Second))
		if remaining > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(remaining):
			}
		}
	}
}

// buildHTTPClient creates the shared client. The pool is sized at least
// twice the concurrency so connection churn never becomes the bottleneck;
// active connections are capped by the limiter, not the transport.
func buildHTTPClient(opts Options) *http.Client {
	pool := MinConnPoolSize
	if opts.Concurrency > 0 && opts.Concurrency*2 > pool {
		pool = opts.Concurrency * 2
	}

	transport := &http.Transport{
		MaxIdleConns:        pool,
		MaxIdleConnsPerHost: pool,
		IdleConnTimeout:     IdleConnTimeout,
		ForceAttemptHTTP2:   true,

		DialContext: (&net.Dialer{
			Timeout:   TCPDialTimeout,
			KeepAlive: TCPKeepAliveInterval,
		}).DialContext,

		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}

	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	// The per-request timeout lives on the dispatch context, not the
	// client, so a retuned dispatcher can't be undercut here.
	return &http.Client{Transport: transport}
}
