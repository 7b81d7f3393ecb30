package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/repository"
	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/source"
	app "github.com/Tapetal/Leaderboard-Sorter/internal/app"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
	"github.com/Tapetal/Leaderboard-Sorter/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// waitForStatus polls until the run leaves the pending state.
func waitForStatus(ctx context.Context, svc *app.Service, id string) (*repository.Run, bool) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := svc.GetRun(ctx, id)
		if err == nil && run.Status != repository.StatusPending {
			return run, true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil, false
}

func mustBatch(inputs []source.CompetitorInput) []model.Competitor {
	competitors, err := source.FromRequest(inputs)
	if err != nil {
		panic(err)
	}
	return competitors
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := app.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := app.New(
			app.WithWorkerCount(2),
			app.WithQueueSize(64),
			app.WithSubmitCacheSize(128),
			app.WithHistoryLimit(5),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := app.New(app.WithWorkerCount(1))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start and report as started", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And a second start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_EndToEnd(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := app.New(
			app.WithWorkerCount(2),
			app.WithQueueSize(64),
			app.WithSubmitCacheSize(128),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		competitors := mustBatch([]source.CompetitorInput{
			{Name: "Cara", Scores: []float64{10, 5}, Spending: []float64{2, 2}},
			{Name: "alice", Scores: []float64{10, 20}, Spending: []float64{1, 1}},
			{Name: "Bob", Scores: []float64{25, 5}, Spending: []float64{1, 1}},
		})

		Convey("When submitting a run", func() {
			req := model.RunRequest{RunID: "run-e2e", Competitors: competitors}
			So(svc.SeenAndRecord(ctx, req.RunID), ShouldBeFalse)
			So(svc.Enqueue(ctx, req), ShouldBeTrue)

			run, done := waitForStatus(ctx, svc, req.RunID)
			So(done, ShouldBeTrue)

			Convey("Then the run completes with ordered standings", func() {
				So(run.Status, ShouldEqual, repository.StatusComplete)
				So(run.Standings, ShouldHaveLength, 3)

				// alice and Bob both total 30 with equal spending; the
				// countback splits them because Bob's best score is 25.
				So(run.Standings[0].Name, ShouldEqual, "Bob")
				So(run.Standings[0].Rank, ShouldEqual, 1)
				So(run.Standings[1].Name, ShouldEqual, "alice")
				So(run.Standings[1].Rank, ShouldEqual, 2)
				So(run.Standings[2].Name, ShouldEqual, "Cara")
				So(run.Standings[2].Rank, ShouldEqual, 3)

				So(run.Stats, ShouldNotBeNil)
				So(run.Stats.Competitors, ShouldEqual, 3)
				So(run.Stats.MaxPoints, ShouldEqual, 30.0)
				So(run.Stats.MinPoints, ShouldEqual, 15.0)
			})

			Convey("And the leaderboard endpoints serve the completed run", func() {
				top, err := svc.TopN(ctx, 2)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 2)
				So(top[0].Name, ShouldEqual, "Bob")

				entry, err := svc.Rank(ctx, "ALICE")
				So(err, ShouldBeNil)
				So(entry.Name, ShouldEqual, "alice")
				So(entry.Rank, ShouldEqual, 2)
			})

			Convey("And a retried run ID is reported as seen", func() {
				So(svc.SeenAndRecord(ctx, req.RunID), ShouldBeTrue)
			})
		})

		Convey("When submitting a batch the engine rejects", func() {
			bad := []model.Competitor{{
				Name:          "Broken",
				EventScores:   []float64{10},
				EventSpending: []float64{1, 2},
				TotalPoints:   10,
				TotalSpending: 3,
			}}
			req := model.RunRequest{RunID: "run-bad", Competitors: bad}
			So(svc.Enqueue(ctx, req), ShouldBeTrue)

			run, done := waitForStatus(ctx, svc, req.RunID)
			So(done, ShouldBeTrue)

			Convey("Then the run is marked failed with a reason", func() {
				So(run.Status, ShouldEqual, repository.StatusFailed)
				So(run.Error, ShouldNotBeEmpty)
				So(run.Standings, ShouldBeEmpty)
			})
		})

		Convey("When querying an unknown run", func() {
			_, err := svc.GetRun(ctx, "nope")
			So(err, ShouldWrap, repository.ErrRunNotFound)
		})
	})
}
