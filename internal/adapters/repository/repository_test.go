package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	repository "github.com/okian/pugil/internal/adapters/repository"
	"github.com/okian/pugil/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		now := base
		st := repository.NewMemory(repository.WithClock(func() time.Time { return now }))
		ctx := context.Background()

		Convey("When nothing has been saved", func() {
			_, err := st.Load(ctx)
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("When a record is saved", func() {
			rec := model.ScoreRecord{SavedAt: base, Left: []float64{1.5, 2.0}, Right: []float64{3.0}}
			So(st.Save(ctx, rec), ShouldBeNil)

			Convey("Then it loads back intact", func() {
				got, err := st.Load(ctx)
				So(err, ShouldBeNil)
				So(got.Left, ShouldResemble, []float64{1.5, 2.0})
				So(got.Right, ShouldResemble, []float64{3.0})
				So(got.SavedAt.UnixMilli(), ShouldEqual, base.UnixMilli())
			})

			Convey("And mutating the loaded copy leaves the store alone", func() {
				got, err := st.Load(ctx)
				So(err, ShouldBeNil)
				got.Left[0] = 99

				again, err := st.Load(ctx)
				So(err, ShouldBeNil)
				So(again.Left[0], ShouldEqual, 1.5)
			})

			Convey("And clearing forgets it", func() {
				So(st.Clear(ctx), ShouldBeNil)
				_, err := st.Load(ctx)
				So(err, ShouldEqual, repository.ErrNotFound)
			})

			Convey("And it expires after the retention window", func() {
				now = base.Add(29 * time.Minute)
				_, err := st.Load(ctx)
				So(err, ShouldBeNil)

				now = base.Add(31 * time.Minute)
				_, err = st.Load(ctx)
				So(err, ShouldEqual, repository.ErrExpired)
			})
		})

		Convey("When a shorter TTL is configured", func() {
			short := repository.NewMemory(
				repository.WithTTL(time.Minute),
				repository.WithClock(func() time.Time { return now }),
			)
			So(short.Save(ctx, model.ScoreRecord{SavedAt: base, Left: []float64{1}}), ShouldBeNil)

			now = base.Add(2 * time.Minute)
			_, err := short.Load(ctx)
			So(err, ShouldEqual, repository.ErrExpired)
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a SQLite store", t, func() {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		now := base
		path := filepath.Join(t.TempDir(), "scores.db")
		st, err := repository.NewSQLite(path, repository.WithClock(func() time.Time { return now }))
		So(err, ShouldBeNil)
		defer st.Close()
		ctx := context.Background()

		Convey("When nothing has been saved", func() {
			_, err := st.Load(ctx)
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("When a record is saved", func() {
			rec := model.ScoreRecord{SavedAt: base, Left: []float64{1.5, 2.25}, Right: []float64{0.75}}
			So(st.Save(ctx, rec), ShouldBeNil)

			Convey("Then it loads back intact", func() {
				got, err := st.Load(ctx)
				So(err, ShouldBeNil)
				So(got.Left, ShouldResemble, []float64{1.5, 2.25})
				So(got.Right, ShouldResemble, []float64{0.75})
				So(got.SavedAt.UnixMilli(), ShouldEqual, base.UnixMilli())
			})

			Convey("And saving again replaces it", func() {
				later := model.ScoreRecord{SavedAt: base.Add(time.Minute), Left: []float64{9}}
				So(st.Save(ctx, later), ShouldBeNil)

				got, err := st.Load(ctx)
				So(err, ShouldBeNil)
				So(got.Left, ShouldResemble, []float64{9.0})
				So(got.Right, ShouldBeEmpty)
				So(got.SavedAt.UnixMilli(), ShouldEqual, later.SavedAt.UnixMilli())
			})

			Convey("And it survives a reopen", func() {
				So(st.Close(), ShouldBeNil)

				re, err := repository.NewSQLite(path, repository.WithClock(func() time.Time { return now }))
				So(err, ShouldBeNil)
				defer re.Close()

				got, err := re.Load(ctx)
				So(err, ShouldBeNil)
				So(got.Left, ShouldResemble, []float64{1.5, 2.25})
			})

			Convey("And it expires after the retention window", func() {
				now = base.Add(31 * time.Minute)
				_, err := st.Load(ctx)
				So(err, ShouldEqual, repository.ErrExpired)
			})

			Convey("And clearing forgets it", func() {
				So(st.Clear(ctx), ShouldBeNil)
				_, err := st.Load(ctx)
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When an oversized history is saved", func() {
			long := make([]float64, 64)
			for i := range long {
				long[i] = float64(i + 1)
			}
			So(st.Save(ctx, model.ScoreRecord{SavedAt: base, Left: long}), ShouldBeNil)

			Convey("Then it comes back clipped to the newest entries", func() {
				got, err := st.Load(ctx)
				So(err, ShouldBeNil)
				So(got.Left, ShouldHaveLength, model.MaxHistory)
				So(got.Left[0], ShouldEqual, 15.0)
				So(got.Left[len(got.Left)-1], ShouldEqual, 64.0)
			})
		})
	})
}
