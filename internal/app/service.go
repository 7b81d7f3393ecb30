// Package app provides the core service that implements the dependencies
// required by the HTTP API.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/mq/queue"
	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/mq/worker"
	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/repository"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/ranking"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/submit"
	"github.com/Tapetal/Leaderboard-Sorter/pkg/logger"
	"github.com/Tapetal/Leaderboard-Sorter/pkg/metrics"
)

// Service wires the run queue, worker pool, run store, and submission
// cache behind the interfaces the HTTP API depends on.
type Service struct {
	mu sync.RWMutex

	store    *repository.MemoryStore
	cache    submit.Cache
	runQueue queue.Queue
	pool     *worker.Pool

	workerCount  int
	queueSize    int
	cacheSize    int
	historyLimit int

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ranking workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the run queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSubmitCacheSize bounds the submission idempotency cache.
func WithSubmitCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
	}
}

// WithHistoryLimit bounds how many runs the store retains.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  4,
		queueSize:    1024,
		cacheSize:    50000,
		historyLimit: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting standings service...")

	s.store = repository.NewMemoryStore(ctx, repository.WithHistoryLimit(s.historyLimit))
	s.cache = submit.NewMemoryCache(submit.WithMaxSize(s.cacheSize))
	s.runQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	// Ranking engines reuse collation buffers, so each worker gets its own.
	s.pool = worker.NewPool(s.workerCount, s.runQueue, func() worker.Ranker {
		return ranking.New()
	}, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "standings service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("historyLimit", s.historyLimit),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping standings service...")

	if s.runQueue != nil {
		_ = s.runQueue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}

	s.started = false
	s.logger.Info(ctx, "standings service stopped")
}

// SeenAndRecord atomically checks whether a run ID was submitted before and
// records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.cache.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordRunDuplicate()
	}
	return seen
}

// Unrecord forgets a run ID so the submission can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.cache.Unrecord(ctx, id)
}

// Size returns the number of run IDs currently tracked.
func (s *Service) Size() int64 {
	if s.cache == nil {
		return 0
	}
	return s.cache.Size()
}

// Enqueue records a pending run and submits it for asynchronous ranking.
// On backpressure the run is marked failed and false is returned.
func (s *Service) Enqueue(ctx context.Context, req model.RunRequest) bool {
	now := time.Now()
	pending := &repository.Run{
		ID:          req.RunID,
		Status:      repository.StatusPending,
		SubmittedAt: now,
	}
	if err := s.store.Put(ctx, pending); err != nil {
		s.logger.Error(ctx, "failed to record pending run",
			logger.String("run_id", req.RunID),
			logger.Error(err),
		)
		return false
	}

	if ok := s.runQueue.Enqueue(ctx, req); !ok {
		failed := &repository.Run{
			ID:          req.RunID,
			Status:      repository.StatusFailed,
			Error:       "run queue full",
			SubmittedAt: now,
			CompletedAt: time.Now(),
		}
		_ = s.store.Put(ctx, failed)
		s.logger.Warn(ctx, "run rejected by queue",
			logger.String("run_id", req.RunID),
			logger.Int("queueLen", s.runQueue.Len(ctx)),
		)
		return false
	}

	metrics.RecordRunSubmitted()
	s.logger.Debug(ctx, "run enqueued",
		logger.String("run_id", req.RunID),
		logger.Int("competitors", len(req.Competitors)),
	)
	return true
}

// GetRun returns a run by ID.
func (s *Service) GetRun(ctx context.Context, id string) (*repository.Run, error) {
	return s.store.Get(ctx, id)
}

// TopN returns the head of the latest completed run's standings.
func (s *Service) TopN(ctx context.Context, n int) ([]model.Competitor, error) {
	return s.store.TopN(ctx, n)
}

// Rank returns a competitor's entry in the latest completed run.
func (s *Service) Rank(ctx context.Context, name string) (model.Competitor, error) {
	return s.store.Rank(ctx, name)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		stats["queueLength"] = s.runQueue.Len(ctx)
		stats["storedRuns"] = s.store.Count(ctx)
		stats["trackedSubmissions"] = s.cache.Size()

		if latest, err := s.store.Latest(ctx); err == nil {
			stats["latestRunID"] = latest.ID
			if latest.Stats != nil {
				stats["latestRun"] = latest.Stats
			}
		}
	}
	return stats
}
