package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register under the podium namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.submissionsAccepted.WithLabelValues("easy").Inc()

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() == "podium_leaderboard_submissions_accepted_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("board"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.storedEntries.Set(3)

			Convey("Then names and const labels should follow the options", func() {
				expected := `
# HELP test_board_stored_entries Entries currently held by the store
# TYPE test_board_stored_entries gauge
test_board_stored_entries{env="test"} 3
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_board_stored_entries")
				So(err, ShouldBeNil)
			})
		})

		Convey("When two managers share one registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration should panic", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording submissions", func() {
			before := testutil.ToFloat64(globalManager.submissionsAccepted.WithLabelValues("hard"))
			RecordSubmissionAccepted("hard")
			RecordSubmissionAccepted("hard")
			RecordSubmissionRejected("validation")

			Convey("Then the per-category counter should advance", func() {
				So(testutil.ToFloat64(globalManager.submissionsAccepted.WithLabelValues("hard")), ShouldEqual, before+2)
			})
		})

		Convey("When recording ranking and storage metrics", func() {
			So(func() {
				RecordRankingQuery("category")
				RecordRankingQuery("unified")
				RecordUnifiedFanout(3)
				RecordUnifiedMergeLatency(1.5)
				RecordStorageLatency("memory", "insert", 0.2)
				RecordStorageError("postgres", "top_n")
				UpdateStoredEntries(42)
				UpdateKnownCategories(3)
			}, ShouldNotPanic)

			Convey("Then gauges should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.storedEntries), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.knownCategories), ShouldEqual, 3)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			So(func() {
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 3)
				RecordHTTPError("leaderboard", "POST", "client_error")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When reading the registry", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent metric updates", t, func() {
		before := testutil.ToFloat64(globalManager.submissionsAccepted.WithLabelValues("concurrent"))
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				RecordSubmissionAccepted("concurrent")
				RecordStorageLatency("memory", "top_n", 0.1)
			}()
		}
		wg.Wait()

		Convey("Then no update should be lost", func() {
			So(testutil.ToFloat64(globalManager.submissionsAccepted.WithLabelValues("concurrent")), ShouldEqual, before+50)
		})
	})
}
