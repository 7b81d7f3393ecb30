package simulate

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/Tapetal/Leaderboard-Sorter/pkg/logger"
	"github.com/google/uuid"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	scoreShapeDivisor  = 8
	tieClusterStride   = 10
)

// Constants for score generation ranges.
const (
	midScorerMin    = 5.0
	midScorerRange  = 10.0
	highScorerMin   = 15.0
	highScorerRange = 10.0
	lowScorerMin    = 0.5
	lowScorerRange  = 4.5
	maxSpendPerSlot = 5.0
)

// Constants for score shape cases. Two zero cases keep sparse profiles
// common, which is what the countback tiebreak feeds on.
const (
	caseMidScorer   = 0
	caseHighScorer  = 1
	caseLowScorer   = 2
	caseZeroScore   = 3
	caseZeroScore2  = 4
	caseMidScorer2  = 5
	caseHighScorer2 = 6
	caseLowScorer2  = 7
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// round2 keeps generated values on the same two-decimal grid the service
// ranks on, so a cloned profile stays an exact tie after submission.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// generateBatches creates the configured number of run batches.
func generateBatches(ctx context.Context, config *Config, stats *Stats) ([]Batch, error) {
	logger.Get().Info(ctx, "generating run batches",
		logger.Int("runs", config.NumRuns),
		logger.Int("competitors", config.Competitors),
		logger.Int("events", config.Events))

	batches := make([]Batch, config.NumRuns)

	type batchResult struct {
		index int
		batch Batch
		err   error
	}

	resultChan := make(chan batchResult, config.NumRuns)

	workerCount := minInt(config.Workers, config.NumRuns)
	runsPerWorker := config.NumRuns / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * runsPerWorker
		end := start + runsPerWorker
		if worker == workerCount-1 {
			end = config.NumRuns
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- batchResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- batchResult{index: i, batch: generateBatch(i, config)}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumRuns; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during batch generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate batch %d: %w", result.index, result.err)
			}
			batches[result.index] = result.batch
		}
	}

	stats.RunsGenerated = len(batches)
	logger.Get().Info(ctx, "generated batches successfully", logger.Int("count", len(batches)))

	return batches, nil
}

// generateBatch creates a single run batch. Every tieClusterStride-th
// competitor is a deliberate tie: it reuses the previous competitor's
// spending and a rotation of its score profile, which ties the first three
// ordering criteria and forces the engine down to the name comparison.
func generateBatch(index int, config *Config) Batch {
	runID := "run_" + strconv.Itoa(index) + "_" + uuid.NewString()

	competitors := make([]CompetitorInput, config.Competitors)
	for i := range competitors {
		if i%tieClusterStride == tieClusterStride-1 && i > 0 {
			competitors[i] = cloneAsTie(competitors[i-1])
			continue
		}
		competitors[i] = generateCompetitor(config.Events)
	}

	return Batch{RunID: runID, Competitors: competitors}
}

// generateCompetitor creates one competitor with a varied score profile.
func generateCompetitor(events int) CompetitorInput {
	scores := make([]float64, events)
	spending := make([]float64, events)

	for e := 0; e < events; e++ {
		scores[e] = generateVariedScore()
		spending[e] = round2(getRandomFloat() * maxSpendPerSlot)
	}

	return CompetitorInput{
		Name:     "comp-" + uuid.NewString(),
		Scores:   scores,
		Spending: spending,
	}
}

// generateVariedScore creates a score with varied distribution.
func generateVariedScore() float64 {
	shape, _ := rand.Int(rand.Reader, big.NewInt(scoreShapeDivisor))
	switch shape.Int64() {
	case caseMidScorer, caseMidScorer2:
		// Mid-field scorers (5.0 - 15.0) - most common
		return round2(midScorerMin + getRandomFloat()*midScorerRange)
	case caseHighScorer, caseHighScorer2:
		// Front-runners (15.0 - 25.0)
		return round2(highScorerMin + getRandomFloat()*highScorerRange)
	case caseLowScorer, caseLowScorer2:
		// Back-markers (0.5 - 5.0)
		return round2(lowScorerMin + getRandomFloat()*lowScorerRange)
	case caseZeroScore, caseZeroScore2:
		// Did not score in this event
		return 0
	default:
		return round2(lowScorerMin + getRandomFloat()*lowScorerRange)
	}
}

// cloneAsTie builds a competitor whose totals, spending, and countback
// profile all match the donor's. Rotating the scores changes the
// per-event layout without changing the sorted profile.
func cloneAsTie(donor CompetitorInput) CompetitorInput {
	scores := make([]float64, len(donor.Scores))
	for e := range donor.Scores {
		scores[e] = donor.Scores[(e+1)%len(donor.Scores)]
	}
	spending := append([]float64(nil), donor.Spending...)

	return CompetitorInput{
		Name:     "comp-" + uuid.NewString(),
		Scores:   scores,
		Spending: spending,
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
