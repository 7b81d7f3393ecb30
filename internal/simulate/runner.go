package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete standings simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting standings simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("runs", config.NumRuns),
		logger.Int("competitors", config.Competitors),
		logger.Int("events", config.Events),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate run batches
	batches, err := generateBatches(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("batch generation failed: %w", err)
	}

	// Step 3: Submit batches concurrently
	if err := submitBatches(ctx, config, batches, stats); err != nil {
		return fmt.Errorf("batch submission failed: %w", err)
	}

	// Step 4: Wait for ranking to complete
	results, err := waitForRuns(ctx, config, batches, stats)
	if err != nil {
		return fmt.Errorf("run polling failed: %w", err)
	}

	// Step 5: Verify served standings against a local ranking pass
	if err := verifyResults(ctx, config, batches, results, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Fetch and display the leaderboard
	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	displayTopStandings(leaderboard, config.Verbose)

	// Step 7: Spot-check individual rank lookups against the leaderboard
	if err := spotCheckRanks(ctx, config, leaderboard); err != nil {
		return fmt.Errorf("rank spot check failed: %w", err)
	}

	// Step 8: Save batches to file
	if err := saveBatchesToFile(ctx, config, batches); err != nil {
		logger.Get().Warn(ctx, "failed to save batches to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.VerificationErrors > 0 {
		return fmt.Errorf("%d runs failed verification", stats.VerificationErrors)
	}

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// spotCheckRanks looks up each leaderboard entry through /rank/{name} and
// expects the same rank back.
func spotCheckRanks(ctx context.Context, config *Config, leaderboard []Standing) error {
	if len(leaderboard) == 0 {
		return nil
	}

	client := newHTTPClient(config.Timeout)

	checks := minInt(10, len(leaderboard))
	for i := 0; i < checks; i++ {
		want := leaderboard[i]
		got, err := getRank(ctx, client, config.BaseURL, want.Name)
		if err != nil {
			return fmt.Errorf("lookup for %s failed: %w", want.Name, err)
		}
		if got.Rank != want.Rank {
			return fmt.Errorf("%s: rank lookup returned %d, leaderboard shows %d", want.Name, got.Rank, want.Rank)
		}
	}

	logger.Get().Info(ctx, "rank spot checks passed", logger.Int("checked", checks))
	return nil
}

// saveBatchesToFile saves the generated batches to a JSON file.
func saveBatchesToFile(ctx context.Context, config *Config, batches []Batch) error {
	if len(batches) == 0 {
		return fmt.Errorf("no batches to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_runs_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, batch := range batches {
		jsonData, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("failed to marshal batch %d: %w", i, err)
		}
		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write batch %d: %w", i, err)
		}
		if i < len(batches)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "batches saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, runsPerSecond float64

	if stats.RunsSubmitted > 0 {
		successRate = float64(stats.RunsCompleted) / float64(stats.RunsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		runsPerSecond = float64(stats.RunsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("runsGenerated", stats.RunsGenerated),
		logger.Int("runsSubmitted", stats.RunsSubmitted),
		logger.Int("runsAccepted", stats.RunsAccepted),
		logger.Int("runsDuplicate", stats.RunsDuplicate),
		logger.Int("runsRejected", stats.RunsRejected),
		logger.Int("runsCompleted", stats.RunsCompleted),
		logger.Int("runsFailed", stats.RunsFailed),
		logger.Int("runsVerified", stats.RunsVerified),
		logger.Int("verificationErrors", stats.VerificationErrors),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("completionRate", successRate),
		logger.Float64("runsPerSecond", runsPerSecond))
}
