// Package repository defines the run store interface and errors. Completed
// ranking runs arrive fully ordered from the engine; the store only keys
// them by run ID and tracks which completed run is the most recent.
package repository

import (
	"context"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
)

// Status describes a run's lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Run is one ranking run held by the store.
type Run struct {
	ID          string            `json:"run_id"`
	Status      Status            `json:"status"`
	Standings   []model.Competitor `json:"standings,omitempty"`
	Stats       *model.Statistics `json:"stats,omitempty"`
	Error       string            `json:"error,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CompletedAt time.Time         `json:"completed_at,omitzero"`
}

// Store provides access to ranking runs.
type Store interface {
	// Put inserts or replaces a run. Completing a run makes it the latest.
	Put(ctx context.Context, run *Run) error

	// Get returns a run by ID. Returns ErrRunNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*Run, error)

	// Latest returns the most recently completed run.
	// Returns ErrNoCompletedRun when none has completed yet.
	Latest(ctx context.Context) (*Run, error)

	// TopN returns the first n standings of the latest completed run.
	TopN(ctx context.Context, n int) ([]model.Competitor, error)

	// Rank returns a competitor's entry in the latest completed run,
	// matching the name case-insensitively.
	Rank(ctx context.Context, name string) (model.Competitor, error)

	// Count returns the number of runs currently retained.
	Count(ctx context.Context) int
}
