package simulate

import "time"

// Config holds configuration for the standings simulation
type Config struct {
	BaseURL     string        // Base URL of the service
	NumRuns     int           // Number of runs to generate and submit
	Competitors int           // Competitors per run
	Events      int           // Events per competitor
	TopN        int           // Number of top entries to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated batches
	LogFile     string        // Log file for simulation output
	Verbose     bool          // Enable verbose logging
}

// CompetitorInput mirrors the submission schema of POST /rankings
type CompetitorInput struct {
	Name     string    `json:"name"`
	Scores   []float64 `json:"scores"`
	Spending []float64 `json:"spending,omitempty"`
}

// Batch is one run submission
type Batch struct {
	RunID       string            `json:"run_id"`
	Competitors []CompetitorInput `json:"competitors"`
}

// Standing is one row of a server-side ranking result
type Standing struct {
	Name          string  `json:"name"`
	TotalPoints   float64 `json:"total_points"`
	TotalSpending float64 `json:"total_spending"`
	Rank          int     `json:"rank"`
	IsTied        bool    `json:"is_tied"`
}

// RunResult is the response from GET /rankings/{run_id}
type RunResult struct {
	RunID     string     `json:"run_id"`
	Status    string     `json:"status"`
	Standings []Standing `json:"standings"`
	Error     string     `json:"error"`
}

// AckResponse is the response from run submission
type AckResponse struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds simulation statistics
type Stats struct {
	RunsGenerated      int
	RunsSubmitted      int
	RunsAccepted       int
	RunsDuplicate      int
	RunsRejected       int
	RunsCompleted      int
	RunsFailed         int
	RunsVerified       int
	VerificationErrors int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
