package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/studiowebux/loadcli/internal/cli"
	"github.com/studiowebux/loadcli/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loadcli",
	Short: "Load CLI - sustained HTTP load generator",
	Long: `Load CLI generates sustained HTTP request load against one or more target
URLs at a steady requests-per-second rate, bounds concurrent in-flight
requests, and prints live per-second latency and throughput statistics.

Targets come from repeated --url flags, a --urls-file (one URL per line,
blank and # lines skipped), a YAML --plan, or any combination; requests
cycle through the list round-robin.

Runs are recorded to ~/.loadcli/loadcli.db unless --no-history is set.

Examples:
  loadcli --url https://example.com --rps 50 --concurrency 20
  loadcli --urls-file urls.txt --rps 200 --duration 30
  loadcli --plan plan.yaml --rps 100 --live
  loadcli --url https://api.example.com/ping --method POST \
      --header "Content-Type: application/json" --body-file payload.json
  loadcli runs --limit 10`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Run(runOptions)
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded load test runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListRuns(flagRunsLimit)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and check for updates",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loadcli %s\n", version.Version)
		available, latest, url, err := version.CheckForUpdate(version.Version)
		if err != nil {
			fmt.Fprintf(os.Stderr, "update check failed: %v\n", err)
			return
		}
		if available {
			fmt.Printf("newer version available: %s (%s)\n", latest, url)
		}
	},
}

var (
	runOptions    cli.RunOptions
	flagRunsLimit int
)

func init() {
	flags := rootCmd.Flags()
	flags.StringArrayVar(&runOptions.URLs, "url", nil, "Target URL (can be repeated)")
	flags.StringVar(&runOptions.URLsFile, "urls-file", "", "File with newline-separated URLs (# comments and blanks skipped)")
	flags.StringVar(&runOptions.PlanFile, "plan", "", "YAML target plan file")
	flags.IntVar(&runOptions.Rate, "rps", 10, "Target requests per second (0 = idle)")
	flags.IntVar(&runOptions.Concurrency, "concurrency", 0, "Max simultaneous in-flight requests (0 = effectively unbounded)")
	flags.StringVar(&runOptions.Method, "method", "GET", "HTTP method")
	flags.Float64Var(&runOptions.TimeoutSec, "timeout", 15, "Total per-request timeout in seconds")
	flags.StringArrayVar(&runOptions.Headers, "header", nil, "Request header 'Name: Value' (can be repeated)")
	flags.StringVar(&runOptions.BodyFile, "body-file", "", "File whose raw bytes become the request body")
	flags.Float64Var(&runOptions.DurationSec, "duration", 0, "Run length in seconds (0 = until interrupted)")
	flags.BoolVar(&runOptions.Insecure, "insecure", false, "Disable TLS certificate verification")
	flags.BoolVarP(&runOptions.Verbose, "verbose", "v", false, "Log every request outcome to stderr")
	flags.BoolVar(&runOptions.Live, "live", false, "Show a live dashboard instead of status lines")
	flags.BoolVar(&runOptions.NoHistory, "no-history", false, "Do not record the run to the history database")

	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Maximum number of runs to list")

	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}
