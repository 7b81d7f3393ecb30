package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/Tapetal/Leaderboard-Sorter/internal/adapters/mq/queue"
	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func request(id string) queue.Request {
	return model.RunRequest{
		RunID: id,
		Competitors: []model.Competitor{
			{Name: "Ada", EventScores: []float64{10}, EventSpending: []float64{0}, TotalPoints: 10},
		},
	}
}

func TestEnqueueDequeue(t *testing.T) {
	Convey("Given an in-memory run queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))

		Convey("Enqueued requests come back in order", func() {
			So(q.Enqueue(ctx, request("r1")), ShouldBeTrue)
			So(q.Enqueue(ctx, request("r2")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			out := q.Dequeue(ctx)
			first := <-out
			second := <-out
			So(first.RunID, ShouldEqual, "r1")
			So(second.RunID, ShouldEqual, "r2")
		})

		Convey("A full queue rejects further requests", func() {
			for i := 0; i < 4; i++ {
				So(q.Enqueue(ctx, request("r")), ShouldBeTrue)
			}
			So(q.Enqueue(ctx, request("overflow")), ShouldBeFalse)
		})

		Convey("A closed queue rejects enqueues and closes the consumer channel", func() {
			So(q.Enqueue(ctx, request("r1")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
			So(q.Enqueue(ctx, request("r2")), ShouldBeFalse)

			out := q.Dequeue(ctx)
			r, ok := <-out
			So(ok, ShouldBeTrue)
			So(r.RunID, ShouldEqual, "r1")

			_, ok = <-out
			So(ok, ShouldBeFalse)
		})

		Convey("Close is idempotent", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
		})

		Convey("Dequeue stops delivering when the context ends", func() {
			cancelled, cancel := context.WithCancel(ctx)
			out := q.Dequeue(cancelled)
			cancel()
			So(q.Enqueue(ctx, request("r1")), ShouldBeTrue)

			select {
			case _, ok := <-out:
				So(ok, ShouldBeFalse)
			case <-time.After(time.Second):
				t.Fatal("dequeue channel did not close")
			}
		})
	})
}
