package worker_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/mq/queue"
	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/mq/worker"
	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/repository"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/ranking"
	"github.com/Tapetal/Leaderboard-Sorter/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func competitor(name string, scores []float64) model.Competitor {
	spending := make([]float64, len(scores))
	return model.Competitor{
		Name:          name,
		EventScores:   scores,
		EventSpending: spending,
		TotalPoints:   model.SumRounded(scores),
		TotalSpending: 0,
	}
}

// waitForRun polls the store until the run leaves pending state.
func waitForRun(ctx context.Context, t *testing.T, store repository.Store, id string) *repository.Run {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := store.Get(ctx, id)
		if err == nil && run.Status != repository.StatusPending {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish in time", id)
	return nil
}

func TestWorkerProcessing(t *testing.T) {
	Convey("Given a worker over a queue and store", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		store := repository.NewMemoryStore(ctx)
		w := worker.NewWorker(q, ranking.New(), store, worker.WithName("test-worker"))
		go w.Run(ctx)
		defer func() { _ = w.Shutdown(context.Background()) }()

		Convey("A valid run completes and becomes the latest", func() {
			So(q.Enqueue(ctx, model.RunRequest{
				RunID: "r1",
				Competitors: []model.Competitor{
					competitor("Bo", []float64{10, 5}),
					competitor("Ada", []float64{20, 15}),
				},
			}), ShouldBeTrue)

			run := waitForRun(ctx, t, store, "r1")
			So(run.Status, ShouldEqual, repository.StatusComplete)
			So(run.Standings, ShouldHaveLength, 2)
			So(run.Standings[0].Name, ShouldEqual, "Ada")
			So(run.Standings[0].Rank, ShouldEqual, 1)
			So(run.Stats, ShouldNotBeNil)
			So(run.Stats.MaxPoints, ShouldEqual, 35)

			latest, err := store.Latest(ctx)
			So(err, ShouldBeNil)
			So(latest.ID, ShouldEqual, "r1")
		})

		Convey("A malformed run fails without partial standings", func() {
			bad := competitor("Ada", []float64{1, 2})
			bad.TotalPoints = 999
			So(q.Enqueue(ctx, model.RunRequest{
				RunID:       "r2",
				Competitors: []model.Competitor{bad},
			}), ShouldBeTrue)

			run := waitForRun(ctx, t, store, "r2")
			So(run.Status, ShouldEqual, repository.StatusFailed)
			So(run.Error, ShouldContainSubstring, "totals")
			So(run.Standings, ShouldBeEmpty)

			_, err := store.Latest(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		store := repository.NewMemoryStore(ctx)
		pool := worker.NewPool(3, q, func() worker.Ranker { return ranking.New() }, store)
		pool.Start(ctx)
		defer pool.Stop()

		Convey("Independent runs all complete", func() {
			for i := 0; i < 10; i++ {
				So(q.Enqueue(ctx, model.RunRequest{
					RunID: fmt.Sprintf("r%d", i),
					Competitors: []model.Competitor{
						competitor("Ada", []float64{float64(i + 1)}),
						competitor("Bo", []float64{1}),
					},
				}), ShouldBeTrue)
			}
			for i := 0; i < 10; i++ {
				run := waitForRun(ctx, t, store, fmt.Sprintf("r%d", i))
				So(run.Status, ShouldEqual, repository.StatusComplete)
			}
		})

		Convey("Stop is safe to call after Shutdown paths and twice", func() {
			pool.Stop()
			pool.Stop()
		})
	})
}
