package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studiowebux/loadcli/internal/config"
	"github.com/studiowebux/loadcli/internal/engine"
	"github.com/studiowebux/loadcli/internal/history"
	"github.com/studiowebux/loadcli/internal/stats"
	"github.com/studiowebux/loadcli/internal/target"
	"github.com/studiowebux/loadcli/internal/tui"
)

// RunOptions contains the flag surface for a load run
type RunOptions struct {
	URLs        []string
	URLsFile    string
	PlanFile    string
	Rate        int
	Concurrency int
	Method      string
	TimeoutSec  float64
	Headers     []string
	BodyFile    string
	DurationSec float64
	Insecure    bool
	Verbose     bool
	Live        bool
	NoHistory   bool
}

// Run builds the target list, wires the engine, history and optional live
// dashboard together, and drives the run to a graceful finish.
func Run(opts RunOptions) error {
	targets, err := target.Build(target.BuildOptions{
		URLs:     opts.URLs,
		URLsFile: opts.URLsFile,
		PlanFile: opts.PlanFile,
		Method:   opts.Method,
		Headers:  opts.Headers,
		BodyFile: opts.BodyFile,
	})
	if err != nil {
		return err
	}

	// stop doubles as the dashboard's quit hook: a SIGINT and a 'q' press
	// take the same graceful-drain path.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks []stats.Sink

	var manager *history.Manager
	var run *history.Run
	var recorder *history.Recorder
	if !opts.NoHistory {
		if err := config.Initialize(); err != nil {
			return err
		}
		manager, err = history.NewManager(config.DatabasePath)
		if err != nil {
			return err
		}
		defer manager.Close()

		run = &history.Run{
			StartedAt:   time.Now(),
			Status:      "running",
			Rate:        opts.Rate,
			Concurrency: opts.Concurrency,
			Targets:     targets.Len(),
		}
		if err := manager.CreateRun(run); err != nil {
			return err
		}
		recorder = history.NewRecorder(manager, run.ID)
		sinks = append(sinks, recorder.Record)
	}

	var dashboard *tui.Dashboard
	if opts.Live {
		description := fmt.Sprintf("%d target(s) at %d rps, concurrency %s",
			targets.Len(), opts.Rate, concurrencyLabel(opts.Concurrency))
		dashboard = tui.NewDashboard(description, stop)
		sinks = append(sinks, dashboard.Publish)
	}

	eng, err := engine.New(engine.Options{
		Targets:     targets,
		Rate:        opts.Rate,
		Concurrency: opts.Concurrency,
		Timeout:     time.Duration(opts.TimeoutSec * float64(time.Second)),
		Duration:    time.Duration(opts.DurationSec * float64(time.Second)),
		Insecure:    opts.Insecure,
		Verbose:     opts.Verbose,
		Out:         os.Stdout,
		LogOut:      os.Stderr,
		Quiet:       opts.Live,
		Sinks:       sinks,
	})
	if err != nil {
		return err
	}

	if dashboard != nil {
		engineDone := make(chan error, 1)
		go func() {
			engineDone <- eng.Run(ctx)
			dashboard.Quit()
		}()
		if err := dashboard.Start(); err != nil {
			stop()
		}
		if err := <-engineDone; err != nil {
			return err
		}
	} else {
		if !opts.Verbose {
			fmt.Fprintf(os.Stderr, "loadcli: %d target(s) at %d rps, concurrency %s (ctrl+c to stop)\n",
				targets.Len(), opts.Rate, concurrencyLabel(opts.Concurrency))
		}
		if err := eng.Run(ctx); err != nil {
			return err
		}
	}

	summary := eng.Aggregator().Summarize()

	status := "completed"
	if ctx.Err() != nil {
		status = "interrupted"
	}

	if recorder != nil {
		recorder.Flush()
		run.Status = status
		if err := manager.FinalizeRun(run, summary); err != nil {
			fmt.Fprintf(os.Stderr, "failed to finalize run record: %v\n", err)
		}
	}

	printSummary(status, summary)
	return nil
}

// printSummary renders the end-of-run report
func printSummary(status string, s stats.Summary) {
	fmt.Printf("--- run %s ---\n", status)
	fmt.Printf("requests: done=%d ok=%d err=%d\n", s.Done, s.OK, s.Err)
	fmt.Printf("latency:  min=%.1fms avg=%.1fms max=%.1fms p50=%.1fms p90=%.1fms p99=%.1fms\n",
		s.MinMs, s.AvgMs, s.MaxMs, s.P50Ms, s.P90Ms, s.P99Ms)
}

func concurrencyLabel(c int) string {
	if c <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d", c)
}

// ListRuns prints the most recent recorded runs
func ListRuns(limit int) error {
	if err := config.Initialize(); err != nil {
		return err
	}
	manager, err := history.NewManager(config.DatabasePath)
	if err != nil {
		return err
	}
	defer manager.Close()

	runs, err := manager.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	fmt.Printf("%-5s %-20s %-12s %6s %6s %8s %8s %8s %9s %9s\n",
		"ID", "STARTED", "STATUS", "RPS", "CONC", "DONE", "OK", "ERR", "P50(ms)", "P99(ms)")
	for _, r := range runs {
		fmt.Printf("%-5d %-20s %-12s %6d %6s %8d %8d %8d %9.1f %9.1f\n",
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Status,
			r.Rate,
			concurrencyLabel(r.Concurrency),
			r.TotalDone, r.TotalOK, r.TotalErr,
			r.P50Ms, r.P99Ms)
	}
	return nil
}
