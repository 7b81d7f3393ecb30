package submit_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/submit"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a submission cache", t, func() {
		ctx := context.Background()
		cache := submit.NewMemoryCache()

		Convey("A fresh ID is recorded", func() {
			So(cache.SeenAndRecord(ctx, "run-1"), ShouldBeFalse)
			So(cache.Size(), ShouldEqual, 1)
		})

		Convey("A repeated ID is reported as seen", func() {
			So(cache.SeenAndRecord(ctx, "run-1"), ShouldBeFalse)
			So(cache.SeenAndRecord(ctx, "run-1"), ShouldBeTrue)
			So(cache.Size(), ShouldEqual, 1)
		})

		Convey("Unrecord makes an ID submittable again", func() {
			So(cache.SeenAndRecord(ctx, "run-1"), ShouldBeFalse)
			cache.Unrecord(ctx, "run-1")
			So(cache.Size(), ShouldEqual, 0)
			So(cache.SeenAndRecord(ctx, "run-1"), ShouldBeFalse)
		})

		Convey("Unrecord of an unknown ID is a no-op", func() {
			cache.Unrecord(ctx, "missing")
			So(cache.Size(), ShouldEqual, 0)
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a bounded cache of three IDs", t, func() {
		ctx := context.Background()
		cache := submit.NewMemoryCache(submit.WithMaxSize(3))

		for i := 1; i <= 3; i++ {
			So(cache.SeenAndRecord(ctx, fmt.Sprintf("run-%d", i)), ShouldBeFalse)
		}

		Convey("Recording a fourth evicts the oldest", func() {
			So(cache.SeenAndRecord(ctx, "run-4"), ShouldBeFalse)
			So(cache.Size(), ShouldEqual, 3)
			// run-1 was evicted, so it records as fresh again.
			So(cache.SeenAndRecord(ctx, "run-1"), ShouldBeFalse)
		})

		Convey("Eviction skips IDs that were unrecorded", func() {
			cache.Unrecord(ctx, "run-1")
			So(cache.SeenAndRecord(ctx, "run-4"), ShouldBeFalse)
			// run-2 is still the oldest live entry; one more insert evicts it.
			So(cache.SeenAndRecord(ctx, "run-5"), ShouldBeFalse)
			So(cache.SeenAndRecord(ctx, "run-2"), ShouldBeFalse)
		})

		Convey("An unbounded cache never evicts", func() {
			unbounded := submit.NewMemoryCache(submit.WithMaxSize(0))
			for i := 0; i < 100; i++ {
				So(unbounded.SeenAndRecord(ctx, fmt.Sprintf("run-%d", i)), ShouldBeFalse)
			}
			So(unbounded.Size(), ShouldEqual, 100)
			So(unbounded.SeenAndRecord(ctx, "run-0"), ShouldBeTrue)
		})
	})
}
