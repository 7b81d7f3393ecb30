// Package ranking orders a competitor batch by total score with cascading
// tiebreaks, assigns dense competition ranks, and flags competitors that
// remain indistinguishable after every tiebreak rule.
//
// The ordering applies four levels in strict priority: total points
// descending, total spending ascending, countback, then collated name
// ascending. Name order only settles presentation among fully tied
// competitors; it never resolves a tie or affects rank.
package ranking

import (
	"context"
	"fmt"
	"math"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/countback"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
)

// Engine computes rankings. An Engine reuses its collator's internal
// buffers, so it is not safe for concurrent use; give each worker its own.
type Engine struct {
	collator *collate.Collator
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCollator overrides the collator used for name ordering.
func WithCollator(c *collate.Collator) Option {
	return func(e *Engine) {
		if c != nil {
			e.collator = c
		}
	}
}

// New constructs an Engine. Names are ordered case-insensitively under a
// locale-neutral collation by default.
func New(opts ...Option) *Engine {
	e := &Engine{
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is a completed ranking run. Standings is a fresh annotated copy of
// the input; the caller's records are never mutated.
type Result struct {
	Standings []model.Competitor
	Stats     model.Statistics
	TieGroups int
}

// Rank orders the batch, assigns dense competition ranks, flags unresolved
// tie groups, and derives run statistics. Malformed input is a contract
// violation of the acquisition layer and rejects the whole batch.
func (e *Engine) Rank(ctx context.Context, competitors []model.Competitor) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ranking cancelled: %w", err)
	}
	if err := validate(competitors); err != nil {
		return nil, err
	}

	standings := make([]model.Competitor, len(competitors))
	for i, c := range competitors {
		standings[i] = c.Clone()
		standings[i].Rank = 0
		standings[i].IsTied = false
	}

	slices.SortFunc(standings, func(a, b model.Competitor) int {
		if c := compareCriteria(&a, &b); c != 0 {
			return c
		}
		return e.collator.CompareString(a.Name, b.Name)
	})

	assignRanks(standings)
	groups := markTies(standings)

	res := &Result{
		Standings: standings,
		Stats:     deriveStats(standings),
		TieGroups: groups,
	}
	return res, nil
}

// compareCriteria applies the three substantive ordering levels: points
// descending, spending ascending, countback. Zero means fully tied.
func compareCriteria(a, b *model.Competitor) int {
	switch {
	case a.TotalPoints > b.TotalPoints:
		return -1
	case a.TotalPoints < b.TotalPoints:
		return 1
	}
	switch {
	case a.TotalSpending < b.TotalSpending:
		return -1
	case a.TotalSpending > b.TotalSpending:
		return 1
	}
	return countback.Compare(a.EventScores, b.EventScores)
}

// assignRanks walks the sorted standings assigning dense competition ranks:
// fully tied neighbors share a rank and the next distinct competitor takes
// its 1-based position (1,2,2,4, not 1,2,2,3).
func assignRanks(standings []model.Competitor) {
	for i := range standings {
		if i == 0 {
			standings[0].Rank = 1
			continue
		}
		if compareCriteria(&standings[i-1], &standings[i]) == 0 {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}
}

// markTies partitions the standings into maximal groups of mutually
// fully-tied competitors and flags every member of a group of size >= 2.
// Grouping is a mutual pairwise comparison, not a hash of derived fields;
// values are pre-rounded so the tie relation is transitive. Returns the
// number of flagged groups.
func markTies(standings []model.Competitor) int {
	grouped := make([]bool, len(standings))
	groups := 0
	for i := range standings {
		if grouped[i] {
			continue
		}
		members := []int{i}
		for j := i + 1; j < len(standings); j++ {
			if grouped[j] {
				continue
			}
			if compareCriteria(&standings[i], &standings[j]) == 0 {
				grouped[j] = true
				members = append(members, j)
			}
		}
		if len(members) > 1 {
			groups++
			for _, m := range members {
				standings[m].IsTied = true
			}
		}
	}
	return groups
}

func deriveStats(standings []model.Competitor) model.Statistics {
	stats := model.Statistics{
		Competitors: len(standings),
		MaxPoints:   standings[0].TotalPoints,
		MinPoints:   standings[0].TotalPoints,
	}
	var sum float64
	for i := range standings {
		p := standings[i].TotalPoints
		sum += p
		if p > stats.MaxPoints {
			stats.MaxPoints = p
		}
		if p < stats.MinPoints {
			stats.MinPoints = p
		}
		if standings[i].IsTied {
			stats.TiedCount++
		}
	}
	stats.MeanPoints = model.Round2(sum / float64(len(standings)))
	return stats
}

func validate(competitors []model.Competitor) error {
	if len(competitors) == 0 {
		return ErrEmptyBatch
	}
	eventCount := len(competitors[0].EventScores)
	for i := range competitors {
		c := &competitors[i]
		if len(c.EventScores) != eventCount || len(c.EventSpending) != len(c.EventScores) {
			return fmt.Errorf("competitor %q: %w", c.Name, ErrLengthMismatch)
		}
		for _, v := range c.EventScores {
			if !finite(v) {
				return fmt.Errorf("competitor %q score: %w", c.Name, ErrNonFinite)
			}
		}
		for _, v := range c.EventSpending {
			if !finite(v) {
				return fmt.Errorf("competitor %q spending: %w", c.Name, ErrNonFinite)
			}
		}
		if !finite(c.TotalPoints) || !finite(c.TotalSpending) {
			return fmt.Errorf("competitor %q totals: %w", c.Name, ErrNonFinite)
		}
		if c.TotalPoints != model.SumRounded(c.EventScores) ||
			c.TotalSpending != model.SumRounded(c.EventSpending) {
			return fmt.Errorf("competitor %q: %w", c.Name, ErrTotalsMismatch)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
