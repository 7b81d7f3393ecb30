package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/internal/simulate"
)

// Default configuration constants.
const (
	defaultNumRuns           = 20
	defaultCompetitors       = 200
	defaultEvents            = 8
	defaultTopN              = 50
	defaultWorkers           = 2 // multiplier for runtime.NumCPU()
	defaultTimeout           = 30 * time.Second
	defaultSimulationTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numRuns     = flag.Int("runs", defaultNumRuns, "Number of runs to generate and submit")
		competitors = flag.Int("competitors", defaultCompetitors, "Competitors per run")
		events      = flag.Int("events", defaultEvents, "Events per competitor")
		topN        = flag.Int("top", defaultTopN, "Number of top entries to fetch from leaderboard")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for generated batches (default: generated_runs_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for simulation output (default: simulation_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSimulationTimeout)
	defer cancel()

	config := &simulate.Config{
		BaseURL:     *baseURL,
		NumRuns:     *numRuns,
		Competitors: *competitors,
		Events:      *events,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
