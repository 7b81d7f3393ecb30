package metrics_test

import (
	"testing"

	"github.com/Tapetal/Leaderboard-Sorter/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithRegistry(reg),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("ranking"),
		)
		So(m, ShouldNotBeNil)

		Convey("All instruments register without collision", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			// Counters do not appear until incremented, but gauges and
			// histograms register eagerly through promauto.
			So(len(families), ShouldBeGreaterThan, 0)
		})

		Convey("A second manager on another registry is independent", func() {
			reg2 := prometheus.NewRegistry()
			m2 := metrics.NewManager(metrics.WithRegistry(reg2))
			So(m2, ShouldNotBeNil)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the package-level helpers", t, func() {
		Convey("Record and update helpers do not panic", func() {
			So(func() {
				metrics.RecordRunSubmitted()
				metrics.RecordRunDuplicate()
				metrics.RecordRunCompleted()
				metrics.RecordRunFailed()
				metrics.RecordRankingLatency(12.5)
				metrics.UpdateLastRun(10, 2, 1)
				metrics.UpdateStoredRuns(3)
				metrics.RecordStoreReadLatency(0.4)
				metrics.UpdateQueueSize(5)
				metrics.UpdateQueueCapacity(100)
				metrics.UpdateQueueUtilization(0.05)
				metrics.RecordQueueEnqueue()
				metrics.RecordQueueDequeue()
				metrics.RecordQueueEnqueueError()
				metrics.UpdateWorkerCount(4)
				metrics.RecordWorkerRunLatency(3.2)
				metrics.RecordWorkerError()
				metrics.RecordErrorByComponent("queue", "capacity_exceeded")
				metrics.RecordHTTPRequest("rankings", "POST", "202")
				metrics.RecordHTTPRequestDuration("rankings", "POST", "202", 1.7)
				metrics.UpdateSystemMemoryUsage(1024)
				metrics.UpdateSystemGoroutineCount(8)
			}, ShouldNotPanic)
		})

		Convey("The shared registry is exposed", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
		})
	})
}
