// Package worker runs ranking computations off the run queue and records
// the outcome in the run store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/repository"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/ranking"
	"github.com/Tapetal/Leaderboard-Sorter/pkg/logger"
	"github.com/Tapetal/Leaderboard-Sorter/pkg/metrics"
)

const (
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
)

// Queue defines how workers receive run requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.RunRequest
}

// Ranker computes a ranking over a private competitor collection.
type Ranker interface {
	Rank(ctx context.Context, competitors []model.Competitor) (*ranking.Result, error)
}

// Worker processes run requests until stopped. Each worker owns its Ranker,
// so independent runs proceed in parallel while every single collection is
// ranked by exactly one goroutine.
type Worker struct {
	queue  Queue
	ranker Ranker
	store  repository.Store
	name   string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorker creates a worker consuming from queue and recording into store.
func NewWorker(queue Queue, ranker Ranker, store repository.Store, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		ranker:   ranker,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes run requests until the context ends, the queue closes, or
// Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			w.process(ctx, req)
		}
	}
}

func (w *Worker) signalStop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown stops the worker, waiting for the in-flight run to finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.signalStop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "worker shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process executes one ranking run and stores the outcome. A contract
// violation fails the run; it never produces partial standings.
func (w *Worker) process(ctx context.Context, req model.RunRequest) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerRunLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := w.ranker.Rank(ctx, req.Competitors)
	latency := time.Since(start)
	metrics.RecordRankingLatency(float64(latency.Microseconds()) / 1000)

	run := &repository.Run{
		ID:          req.RunID,
		SubmittedAt: start,
		CompletedAt: time.Now(),
	}
	if err != nil {
		metrics.RecordRunFailed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "contract_violation")
		w.logger.Warn(ctx, "ranking run rejected",
			logger.String("run_id", req.RunID),
			logger.Error(err),
		)
		run.Status = repository.StatusFailed
		run.Error = err.Error()
	} else {
		metrics.RecordRunCompleted()
		metrics.UpdateLastRun(res.Stats.Competitors, res.Stats.TiedCount, res.TieGroups)
		run.Status = repository.StatusComplete
		run.Standings = res.Standings
		run.Stats = &res.Stats
		w.logger.Info(ctx, "ranking run completed",
			logger.String("run_id", req.RunID),
			logger.Int("competitors", res.Stats.Competitors),
			logger.Int("tied", res.Stats.TiedCount),
			logger.Duration("took", latency),
		)
	}

	if storeErr := w.store.Put(ctx, run); storeErr != nil && !errors.Is(storeErr, context.Canceled) {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "failed to store run result",
			logger.String("run_id", req.RunID),
			logger.Error(storeErr),
		)
	}
}

// Pool manages a fixed set of workers over one queue and store.
type Pool struct {
	workers []*Worker

	shutdown chan struct{}
	stopOnce sync.Once
	logger   logger.Logger
}

// NewRanker is the factory the pool uses to give each worker a private
// ranking engine.
type NewRanker func() Ranker

// NewPool creates a pool of workerCount workers. Each worker gets its own
// Ranker from newRanker because engines are not safe for concurrent use.
func NewPool(workerCount int, queue Queue, newRanker NewRanker, store repository.Store) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers:  make([]*Worker, workerCount),
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(
			queue,
			newRanker(),
			store,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.shutdown) })
	for _, w := range p.workers {
		w.signalStop()
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(context.Background(), "worker stop timed out",
				logger.String("worker", w.name),
			)
		}
	}
}
