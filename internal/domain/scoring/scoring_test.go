package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/pugil/internal/domain/model"
	scoring "github.com/okian/pugil/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKeeperRecord(t *testing.T) {
	Convey("Given a fresh keeper", t, func() {
		k := scoring.NewKeeper()

		Convey("When the first strike lands", func() {
			percent, avg := k.Record(model.SideLeft, 2.5)

			Convey("Then the strike scores against itself", func() {
				// Baseline comes from the single sample, so the
				// first strike is always 100 of itself.
				So(percent, ShouldEqual, 100)
				So(avg, ShouldAlmostEqual, 100, 0.5)
				So(k.Baseline(model.SideLeft), ShouldAlmostEqual, 2.5)
			})

			Convey("And the other side stays untouched", func() {
				So(k.History(model.SideRight), ShouldBeEmpty)
				So(k.Baseline(model.SideRight), ShouldEqual, 0)
			})
		})

		Convey("When a zero-power strike is recorded", func() {
			percent, _ := k.Record(model.SideLeft, 0)

			Convey("Then the percent floors at zero", func() {
				So(percent, ShouldEqual, 0)
			})
		})

		Convey("When sixty strikes land on one side", func() {
			var lastPercent int
			for i := 1; i <= 60; i++ {
				lastPercent, _ = k.Record(model.SideLeft, float64(i))
			}

			Convey("Then every percent stays within bounds", func() {
				So(lastPercent, ShouldBeGreaterThanOrEqualTo, 0)
				So(lastPercent, ShouldBeLessThanOrEqualTo, 150)
			})

			Convey("And history keeps only the newest fifty", func() {
				h := k.History(model.SideLeft)
				So(h, ShouldHaveLength, model.MaxHistory)
				So(h[0], ShouldEqual, 11.0)
				So(h[len(h)-1], ShouldEqual, 60.0)
			})

			Convey("And the right side remains empty", func() {
				So(k.History(model.SideRight), ShouldBeEmpty)
			})
		})

		Convey("When one strike dwarfs a flat history", func() {
			for i := 0; i < 49; i++ {
				k.Record(model.SideRight, 1.0)
			}
			percent, _ := k.Record(model.SideRight, 100.0)

			Convey("Then the percent caps at 150", func() {
				So(percent, ShouldEqual, 150)
			})
		})
	})
}

func TestKeeperBaseline(t *testing.T) {
	Convey("Given a keeper seeded with a power ramp", t, func() {
		seed := make([]float64, 49)
		for i := range seed {
			seed[i] = float64(i + 1)
		}
		k := scoring.NewKeeper(scoring.WithHistory(seed, nil))

		Convey("When the fiftieth strike lands", func() {
			percent, avg := k.Record(model.SideLeft, 50.0)

			Convey("Then the baseline sits at the ninetieth percentile", func() {
				// 50 samples, nearest rank of 0.9 lands on the
				// 45th value of the sorted ramp.
				So(k.Baseline(model.SideLeft), ShouldAlmostEqual, 45.0)
			})

			Convey("And the percent measures against that baseline", func() {
				So(percent, ShouldEqual, 111)
			})

			Convey("And the trend averages the last ten strikes", func() {
				// Last ten powers are 41..50, mean 45.5.
				So(avg, ShouldAlmostEqual, 45.5/45.0*100.0, 0.5)
			})
		})
	})

	Convey("Given an oversized seed history", t, func() {
		seed := make([]float64, 70)
		for i := range seed {
			seed[i] = float64(i + 1)
		}
		k := scoring.NewKeeper(scoring.WithHistory(seed, nil))

		Convey("When any strike is recorded", func() {
			k.Record(model.SideLeft, 71.0)

			Convey("Then the history is trimmed to the newest fifty", func() {
				h := k.History(model.SideLeft)
				So(h, ShouldHaveLength, model.MaxHistory)
				So(h[0], ShouldEqual, 22.0)
				So(h[len(h)-1], ShouldEqual, 71.0)
			})
		})
	})
}

func TestKeeperSnapshot(t *testing.T) {
	Convey("Given a keeper with strikes on both sides", t, func() {
		k := scoring.NewKeeper()
		k.Record(model.SideLeft, 1.5)
		k.Record(model.SideLeft, 2.0)
		k.Record(model.SideRight, 3.0)

		Convey("When a snapshot is taken", func() {
			at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			rec := k.Snapshot(at)

			Convey("Then it carries the timestamp and both histories", func() {
				So(rec.SavedAt, ShouldEqual, at)
				So(rec.Left, ShouldResemble, []float64{1.5, 2.0})
				So(rec.Right, ShouldResemble, []float64{3.0})
			})

			Convey("And mutating the snapshot leaves the keeper alone", func() {
				rec.Left[0] = 99.0
				So(k.History(model.SideLeft)[0], ShouldEqual, 1.5)
			})
		})
	})
}
