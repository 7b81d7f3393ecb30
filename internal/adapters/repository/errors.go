package repository

import "errors"

// Sentinel kinds for run store errors.
var (
	ErrRunNotFound        = errors.New("run not found")
	ErrCompetitorNotFound = errors.New("competitor not found")
	ErrNoCompletedRun     = errors.New("no completed run")
	ErrInvalidLimit       = errors.New("invalid leaderboard limit")
	ErrNilRun             = errors.New("nil run")
)
