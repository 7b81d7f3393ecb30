package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/repository"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func completedRun(id string, names ...string) *repository.Run {
	standings := make([]model.Competitor, len(names))
	for i, n := range names {
		standings[i] = model.Competitor{
			Name:          n,
			EventScores:   []float64{10},
			EventSpending: []float64{0},
			TotalPoints:   10,
			Rank:          i + 1,
		}
	}
	return &repository.Run{
		ID:          id,
		Status:      repository.StatusComplete,
		Standings:   standings,
		Stats:       &model.Statistics{Competitors: len(names)},
		SubmittedAt: time.Now(),
		CompletedAt: time.Now(),
	}
}

func TestPutGet(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)

		Convey("A stored run can be fetched by ID", func() {
			So(store.Put(ctx, completedRun("r1", "Ada")), ShouldBeNil)
			run, err := store.Get(ctx, "r1")
			So(err, ShouldBeNil)
			So(run.ID, ShouldEqual, "r1")
			So(run.Status, ShouldEqual, repository.StatusComplete)
			So(run.Standings, ShouldHaveLength, 1)
		})

		Convey("Fetching an unknown run fails", func() {
			_, err := store.Get(ctx, "missing")
			So(err, ShouldWrap, repository.ErrRunNotFound)
		})

		Convey("A nil run is rejected", func() {
			So(store.Put(ctx, nil), ShouldWrap, repository.ErrNilRun)
		})

		Convey("Replacing a run keeps a single retained entry", func() {
			pending := &repository.Run{ID: "r1", Status: repository.StatusPending}
			So(store.Put(ctx, pending), ShouldBeNil)
			So(store.Put(ctx, completedRun("r1", "Ada")), ShouldBeNil)
			So(store.Count(ctx), ShouldEqual, 1)
			run, err := store.Get(ctx, "r1")
			So(err, ShouldBeNil)
			So(run.Status, ShouldEqual, repository.StatusComplete)
		})

		Convey("Stored runs are isolated from caller mutation", func() {
			in := completedRun("r1", "Ada")
			So(store.Put(ctx, in), ShouldBeNil)
			in.Standings[0].Name = "changed"
			run, err := store.Get(ctx, "r1")
			So(err, ShouldBeNil)
			So(run.Standings[0].Name, ShouldEqual, "Ada")

			got, err := store.Get(ctx, "r1")
			So(err, ShouldBeNil)
			got.Standings[0].Name = "mutated"
			again, err := store.Get(ctx, "r1")
			So(err, ShouldBeNil)
			So(again.Standings[0].Name, ShouldNotEqual, "mutated")
		})
	})
}

func TestLatestViews(t *testing.T) {
	Convey("Given runs in assorted states", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)

		Convey("Latest fails before any run completes", func() {
			_, err := store.Latest(ctx)
			So(err, ShouldWrap, repository.ErrNoCompletedRun)

			So(store.Put(ctx, &repository.Run{ID: "p1", Status: repository.StatusPending}), ShouldBeNil)
			_, err = store.Latest(ctx)
			So(err, ShouldWrap, repository.ErrNoCompletedRun)
		})

		Convey("The most recently completed run wins", func() {
			So(store.Put(ctx, completedRun("r1", "Ada")), ShouldBeNil)
			So(store.Put(ctx, completedRun("r2", "Bo", "Cy")), ShouldBeNil)
			So(store.Put(ctx, &repository.Run{ID: "p1", Status: repository.StatusPending}), ShouldBeNil)

			run, err := store.Latest(ctx)
			So(err, ShouldBeNil)
			So(run.ID, ShouldEqual, "r2")
		})

		Convey("TopN serves the head of the latest standings", func() {
			So(store.Put(ctx, completedRun("r1", "Ada", "Bo", "Cy")), ShouldBeNil)

			top, err := store.TopN(ctx, 2)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 2)
			So(top[0].Name, ShouldEqual, "Ada")

			Convey("A limit beyond the standings is clamped", func() {
				all, err := store.TopN(ctx, 50)
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 3)
			})

			Convey("A non-positive limit is rejected", func() {
				_, err := store.TopN(ctx, 0)
				So(err, ShouldWrap, repository.ErrInvalidLimit)
			})
		})

		Convey("Rank matches names case-insensitively", func() {
			So(store.Put(ctx, completedRun("r1", "Ada", "Bo")), ShouldBeNil)

			c, err := store.Rank(ctx, "ada")
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "Ada")
			So(c.Rank, ShouldEqual, 1)

			_, err = store.Rank(ctx, "nobody")
			So(err, ShouldWrap, repository.ErrCompetitorNotFound)
		})
	})
}

func TestHistoryEviction(t *testing.T) {
	Convey("Given a store bounded to three runs", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx, repository.WithHistoryLimit(3))

		for i := 1; i <= 3; i++ {
			So(store.Put(ctx, completedRun(fmt.Sprintf("r%d", i), "Ada")), ShouldBeNil)
		}

		Convey("Adding a fourth evicts the oldest", func() {
			So(store.Put(ctx, completedRun("r4", "Ada")), ShouldBeNil)
			So(store.Count(ctx), ShouldEqual, 3)
			_, err := store.Get(ctx, "r1")
			So(err, ShouldWrap, repository.ErrRunNotFound)
		})

		Convey("The latest completed run survives eviction", func() {
			// r3 is latest; flood with pending runs.
			for i := 5; i <= 8; i++ {
				So(store.Put(ctx, &repository.Run{
					ID:     fmt.Sprintf("p%d", i),
					Status: repository.StatusPending,
				}), ShouldBeNil)
			}
			run, err := store.Latest(ctx)
			So(err, ShouldBeNil)
			So(run.ID, ShouldEqual, "r3")
		})
	})
}
