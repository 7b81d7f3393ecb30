package countback_test

import (
	"testing"

	"github.com/Tapetal/Leaderboard-Sorter/internal/domain/countback"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProfile(t *testing.T) {
	Convey("Given raw event scores", t, func() {
		Convey("Zeros are discarded and the rest sorted best-first", func() {
			So(countback.Profile([]float64{10, 0, 25, 0, 12}), ShouldResemble, []float64{25, 12, 10})
		})

		Convey("An all-zero sequence yields an empty profile", func() {
			So(countback.Profile([]float64{0, 0, 0}), ShouldBeEmpty)
		})

		Convey("Values are rounded to comparison precision", func() {
			So(countback.Profile([]float64{10.004, 9.996}), ShouldResemble, []float64{10, 10})
		})
	})
}

func TestCompare(t *testing.T) {
	Convey("Given two score sequences", t, func() {
		Convey("The higher best score wins outright", func() {
			// Equal totals (50): one big result beats two medium ones.
			So(countback.Compare([]float64{50, 0, 0}, []float64{25, 25, 0}), ShouldEqual, -1)
			So(countback.Compare([]float64{25, 25, 0}, []float64{50, 0, 0}), ShouldEqual, 1)
		})

		Convey("Identical multisets in different event order tie", func() {
			a := []float64{10, 15, 8, 20, 12}
			b := []float64{15, 10, 20, 8, 12}
			So(countback.Compare(a, b), ShouldEqual, 0)
		})

		Convey("More occurrences of an equal best score wins", func() {
			// Both lead with 20; a scored it twice.
			a := []float64{20, 20, 5}
			b := []float64{20, 15, 10}
			So(countback.Compare(a, b), ShouldEqual, -1)
			So(countback.Compare(b, a), ShouldEqual, 1)
		})

		Convey("The decision moves to the next position when counts match", func() {
			a := []float64{20, 12, 0}
			b := []float64{20, 9, 3}
			So(countback.Compare(a, b), ShouldEqual, -1)
		})

		Convey("Two empty profiles tie immediately", func() {
			So(countback.Compare([]float64{0, 0}, []float64{0, 0, 0}), ShouldEqual, 0)
			So(countback.Compare(nil, nil), ShouldEqual, 0)
		})

		Convey("A non-empty profile beats an empty one", func() {
			So(countback.Compare([]float64{1, 0}, []float64{0, 0}), ShouldEqual, -1)
		})

		Convey("Appending zero scores never changes the result", func() {
			a := []float64{20, 20, 5}
			b := []float64{20, 15, 10}
			padded := append(append([]float64(nil), a...), 0, 0, 0)
			So(countback.Compare(padded, b), ShouldEqual, countback.Compare(a, b))
			So(countback.Compare(b, padded), ShouldEqual, countback.Compare(b, a))
		})

		Convey("Comparison is antisymmetric across assorted pairs", func() {
			pairs := [][2][]float64{
				{{50, 0, 0}, {25, 25, 0}},
				{{20, 20, 5}, {20, 15, 10}},
				{{10, 15, 8, 20, 12}, {15, 10, 20, 8, 12}},
				{{7, 7, 7}, {21, 0, 0}},
				{{0, 0}, {3, 0}},
			}
			for _, p := range pairs {
				So(countback.Compare(p[0], p[1]), ShouldEqual, -countback.Compare(p[1], p[0]))
			}
		})

		Convey("Rounded values cannot reopen a settled comparison", func() {
			// Differences past the second decimal are comparison noise.
			a := []float64{10.004, 5}
			b := []float64{9.996, 5}
			So(countback.Compare(a, b), ShouldEqual, 0)
		})
	})
}
