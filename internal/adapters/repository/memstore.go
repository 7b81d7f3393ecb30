package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
	"github.com/Tapetal/Leaderboard-Sorter/pkg/metrics"
)

const defaultHistoryLimit = 100

// MemoryStore implements Store with a mutex-guarded map and bounded run
// history. Reads return copies so callers cannot alter stored standings.
type MemoryStore struct {
	mu           sync.RWMutex
	runs         map[string]*Run
	order        []string // insertion order, oldest first
	latestID     string   // most recently completed run
	historyLimit int
}

// NewMemoryStore creates a run store with configuration options.
func NewMemoryStore(_ context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		runs:         make(map[string]*Run),
		historyLimit: defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put inserts or replaces a run, evicting the oldest retained run when the
// history limit is exceeded. A completed run becomes the latest.
func (s *MemoryStore) Put(_ context.Context, run *Run) error {
	if run == nil {
		return ErrNilRun
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = copyRun(run)
	if run.Status == StatusComplete {
		s.latestID = run.ID
	}

	s.evictLocked()
	metrics.UpdateStoredRuns(len(s.runs))
	return nil
}

// evictLocked drops the oldest runs beyond the history limit, skipping the
// latest completed run. Must be called with s.mu held.
func (s *MemoryStore) evictLocked() {
	for len(s.runs) > s.historyLimit {
		evicted := false
		for i, id := range s.order {
			if id == s.latestID {
				continue
			}
			delete(s.runs, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			evicted = true
			break
		}
		if !evicted {
			return
		}
	}
}

// Get returns a copy of the run with the given ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Run, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return copyRun(run), nil
}

func copyRun(run *Run) *Run {
	out := *run
	if run.Standings != nil {
		out.Standings = make([]model.Competitor, len(run.Standings))
		for i := range run.Standings {
			out.Standings[i] = run.Standings[i].Clone()
		}
	}
	if run.Stats != nil {
		stats := *run.Stats
		out.Stats = &stats
	}
	return &out
}

// Latest returns a copy of the most recently completed run.
func (s *MemoryStore) Latest(_ context.Context) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestLocked()
}

func (s *MemoryStore) latestLocked() (*Run, error) {
	if s.latestID == "" {
		return nil, ErrNoCompletedRun
	}
	run, ok := s.runs[s.latestID]
	if !ok {
		return nil, ErrNoCompletedRun
	}
	return copyRun(run), nil
}

// TopN returns the first n standings of the latest completed run.
func (s *MemoryStore) TopN(_ context.Context, n int) ([]model.Competitor, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := s.latestLocked()
	if err != nil {
		return nil, err
	}
	if n > len(run.Standings) {
		n = len(run.Standings)
	}
	return run.Standings[:n], nil
}

// Rank returns a competitor's entry in the latest completed run. The name
// match is case-insensitive, mirroring the uniqueness rule applied at
// acquisition.
func (s *MemoryStore) Rank(_ context.Context, name string) (model.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := s.latestLocked()
	if err != nil {
		return model.Competitor{}, err
	}
	for i := range run.Standings {
		if strings.EqualFold(run.Standings[i].Name, name) {
			return run.Standings[i], nil
		}
	}
	return model.Competitor{}, ErrCompetitorNotFound
}

// Count returns the number of retained runs.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
