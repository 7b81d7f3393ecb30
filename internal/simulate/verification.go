package simulate

import (
	"context"
	"fmt"
	"log"

	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/source"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/ranking"
)

// verifyResults re-ranks every completed batch locally and compares the
// served standings row by row.
func verifyResults(ctx context.Context, config *Config, batches []Batch, results map[string]*RunResult, stats *Stats) error {
	log.Println("verifying results against a local ranking pass...")

	if len(results) == 0 {
		return fmt.Errorf("no completed runs to verify")
	}

	engine := ranking.New()

	for _, batch := range batches {
		result, ok := results[batch.RunID]
		if !ok || result.Status != "complete" {
			continue
		}

		if err := verifyRun(ctx, engine, batch, result); err != nil {
			stats.VerificationErrors++
			log.Printf("verification failed for %s: %v", batch.RunID, err)
			if config.Verbose {
				continue
			}
			return fmt.Errorf("run %s: %w", batch.RunID, err)
		}
		stats.RunsVerified++
	}

	log.Printf("verification completed: %d runs verified, %d mismatches",
		stats.RunsVerified, stats.VerificationErrors)
	return nil
}

// verifyRun checks one run's served standings against the local engine.
func verifyRun(ctx context.Context, engine *ranking.Engine, batch Batch, result *RunResult) error {
	inputs := make([]source.CompetitorInput, len(batch.Competitors))
	for i, c := range batch.Competitors {
		inputs[i] = source.CompetitorInput{Name: c.Name, Scores: c.Scores, Spending: c.Spending}
	}

	competitors, err := source.FromRequest(inputs)
	if err != nil {
		return fmt.Errorf("local normalization failed: %w", err)
	}

	local, err := engine.Rank(ctx, competitors)
	if err != nil {
		return fmt.Errorf("local ranking failed: %w", err)
	}

	if len(local.Standings) != len(result.Standings) {
		return fmt.Errorf("standings length mismatch: local %d, served %d",
			len(local.Standings), len(result.Standings))
	}

	for i, want := range local.Standings {
		got := result.Standings[i]
		if got.Name != want.Name {
			return fmt.Errorf("position %d: served %q, local ranking has %q", i, got.Name, want.Name)
		}
		if got.Rank != want.Rank {
			return fmt.Errorf("position %d (%s): served rank %d, local rank %d", i, got.Name, got.Rank, want.Rank)
		}
		if got.IsTied != want.IsTied {
			return fmt.Errorf("position %d (%s): served tie flag %v, local %v", i, got.Name, got.IsTied, want.IsTied)
		}
	}

	return checkStructure(result.Standings)
}

// checkStructure validates the invariants any served standings must hold:
// competition ranks that restart after tie blocks, non-increasing points,
// and tie flags that only appear on shared ranks.
func checkStructure(standings []Standing) error {
	rankCounts := make(map[int]int, len(standings))

	for i, row := range standings {
		rankCounts[row.Rank]++

		if i == 0 {
			if row.Rank != 1 {
				return fmt.Errorf("first row has rank %d, want 1", row.Rank)
			}
			continue
		}

		prev := standings[i-1]
		if row.TotalPoints > prev.TotalPoints {
			return fmt.Errorf("position %d: points %.2f exceed predecessor's %.2f", i, row.TotalPoints, prev.TotalPoints)
		}
		if row.Rank != prev.Rank && row.Rank != i+1 {
			return fmt.Errorf("position %d: rank %d breaks the competition numbering", i, row.Rank)
		}
	}

	for _, row := range standings {
		if row.IsTied && rankCounts[row.Rank] < 2 {
			return fmt.Errorf("%s is flagged tied but holds rank %d alone", row.Name, row.Rank)
		}
	}
	return nil
}

// displayTopStandings shows the head of the served leaderboard.
func displayTopStandings(leaderboard []Standing, verbose bool) {
	topN := minInt(10, len(leaderboard))

	log.Printf("top %d standings from leaderboard:", topN)
	for i := 0; i < topN; i++ {
		row := leaderboard[i]
		tied := ""
		if row.IsTied {
			tied = " (tied)"
		}
		log.Printf("   %d. %s - %.2f points, %.2f spent%s", row.Rank, row.Name, row.TotalPoints, row.TotalSpending, tied)
	}

	if verbose && len(leaderboard) > 0 {
		sum := 0.0
		for _, row := range leaderboard {
			sum += row.TotalPoints
		}
		log.Printf("leaderboard mean points: %.2f", sum/float64(len(leaderboard)))
	}
}
