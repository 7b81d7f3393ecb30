// Package model contains domain models passed between layers.
package model

import "math"

// Competitor is the unit being ranked. EventScores and EventSpending carry
// one value per event; a zero score means the competitor did not score in
// that event. TotalPoints and TotalSpending are derived by the acquisition
// layer before ranking and are never recomputed mid-run.
type Competitor struct {
	Name          string    `json:"name"`
	EventScores   []float64 `json:"event_scores"`
	EventSpending []float64 `json:"event_spending"`
	TotalPoints   float64   `json:"total_points"`
	TotalSpending float64   `json:"total_spending"`

	// Set by the ranking engine.
	Rank   int  `json:"rank"`
	IsTied bool `json:"is_tied"`
}

// Clone returns a deep copy so the engine can annotate results without
// touching the caller's records.
func (c Competitor) Clone() Competitor {
	out := c
	out.EventScores = append([]float64(nil), c.EventScores...)
	out.EventSpending = append([]float64(nil), c.EventSpending...)
	return out
}

// RunRequest is the payload carried on the run queue. Each request owns a
// private competitor slice; no two runs share a collection.
type RunRequest struct {
	RunID       string
	Competitors []Competitor
}

// Statistics summarizes a completed ranking run.
type Statistics struct {
	Competitors int     `json:"competitors"`
	MaxPoints   float64 `json:"max_points"`
	MinPoints   float64 `json:"min_points"`
	MeanPoints  float64 `json:"mean_points"`
	TiedCount   int     `json:"tied_count"`
}

// Round2 rounds to two decimal places. Every derived score and monetary
// value passes through here before any equality comparison, so tie checks
// reduce to exact comparisons of hundredths.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SumRounded returns the two-decimal-rounded sum of vs.
func SumRounded(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return Round2(sum)
}
