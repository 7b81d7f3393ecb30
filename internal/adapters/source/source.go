// Package source normalizes raw competitor submissions into ranking-ready
// records: it validates names and shapes, rounds every value to comparison
// precision, and derives the totals the ranking engine treats as input
// invariants. The ranking core never sees unnormalized data.
package source

import (
	"fmt"
	"math"
	"strings"

	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
)

// CompetitorInput mirrors the submission schema for one competitor.
// Spending may be omitted; it defaults to zero per event.
type CompetitorInput struct {
	Name     string    `json:"name"`
	Scores   []float64 `json:"scores"`
	Spending []float64 `json:"spending,omitempty"`
}

// FromRequest validates and normalizes a submitted batch. Names must be
// non-blank and unique case-insensitively; every competitor must carry the
// same event count; all values must be finite. Scores and spending are
// rounded to two decimals and totals derived from the rounded values.
func FromRequest(batch []CompetitorInput) ([]model.Competitor, error) {
	if len(batch) == 0 {
		return nil, ErrNoCompetitors
	}

	eventCount := len(batch[0].Scores)
	if eventCount == 0 {
		return nil, fmt.Errorf("competitor %q: %w", batch[0].Name, ErrNoEvents)
	}

	seen := make(map[string]struct{}, len(batch))
	out := make([]model.Competitor, 0, len(batch))
	for _, in := range batch {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, ErrBlankName
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("competitor %q: %w", name, ErrDuplicateName)
		}
		seen[key] = struct{}{}

		if len(in.Scores) != eventCount {
			return nil, fmt.Errorf("competitor %q: %w", name, ErrRaggedRow)
		}
		if len(in.Spending) != 0 && len(in.Spending) != eventCount {
			return nil, fmt.Errorf("competitor %q: %w", name, ErrRaggedRow)
		}

		scores, err := roundAll(in.Scores)
		if err != nil {
			return nil, fmt.Errorf("competitor %q scores: %w", name, err)
		}
		spending := in.Spending
		if len(spending) == 0 {
			spending = make([]float64, eventCount)
		}
		spending, err = roundAll(spending)
		if err != nil {
			return nil, fmt.Errorf("competitor %q spending: %w", name, err)
		}

		out = append(out, model.Competitor{
			Name:          name,
			EventScores:   scores,
			EventSpending: spending,
			TotalPoints:   model.SumRounded(scores),
			TotalSpending: model.SumRounded(spending),
		})
	}
	return out, nil
}

func roundAll(vs []float64) ([]float64, error) {
	out := make([]float64, len(vs))
	for i, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrBadNumber
		}
		out[i] = model.Round2(v)
	}
	return out, nil
}
