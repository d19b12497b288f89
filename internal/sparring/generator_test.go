package sparring_test

import (
	"testing"

	"github.com/okian/pugil/internal/domain/engine"
	"github.com/okian/pugil/internal/domain/model"
	"github.com/okian/pugil/internal/sparring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGeneratorBuildBout(t *testing.T) {
	Convey("Given a jitter-free generator", t, func() {
		bout := sparring.NewGenerator(0).BuildBout(3, 5)

		Convey("Then every scripted strike is recorded", func() {
			So(len(bout.Strikes), ShouldEqual, 15)
			left, right := bout.ThrownBySide()
			So(left+right, ShouldEqual, 15)
		})

		Convey("Then timestamps advance one frame at a time", func() {
			So(len(bout.Frames), ShouldBeGreaterThan, 0)
			monotone := true
			for i := 1; i < len(bout.Frames); i++ {
				dt := bout.Frames[i].Timestamp - bout.Frames[i-1].Timestamp
				if dt < 1.0/sparring.FrameRate-1e-9 || dt > 1.0/sparring.FrameRate+1e-9 {
					monotone = false
				}
			}
			So(monotone, ShouldBeTrue)
		})

		Convey("Then the opening frame rests in guard", func() {
			first := bout.Frames[0]
			So(len(first.Keypoints), ShouldEqual, 6)
			So(first.Keypoints[model.KeyLeftShoulder].X, ShouldAlmostEqual, 0.0)
			So(first.Keypoints[model.KeyRightShoulder].X, ShouldAlmostEqual, 100.0)
			So(first.Keypoints[model.KeyLeftWrist].X, ShouldAlmostEqual, -35.0)
			So(first.Keypoints[model.KeyRightWrist].X, ShouldAlmostEqual, 135.0)
			So(first.Keypoints[model.KeyLeftShoulder].Confidence, ShouldAlmostEqual, 0.99)
			So(first.Keypoints[model.KeyLeftWrist].Confidence, ShouldAlmostEqual, 0.9)
		})

		Convey("Then scripted strikes stay clear of each other", func() {
			// Retract plus the shortest rest plus the next extension spans
			// 18 frames, comfortably past the engine cooldown.
			tight := false
			for i := 1; i < len(bout.Strikes); i++ {
				if bout.Strikes[i].Frame-bout.Strikes[i-1].Frame < 18 {
					tight = true
				}
			}
			So(tight, ShouldBeFalse)
			So(bout.Strikes[len(bout.Strikes)-1].Frame, ShouldBeLessThan, len(bout.Frames))
		})
	})

	Convey("Given a noisy generator", t, func() {
		bout := sparring.NewGenerator(0.01).BuildBout(1, 2)

		Convey("Then keypoints wobble inside the jitter bound", func() {
			deviated := false
			outOfBound := false
			for _, f := range bout.Frames {
				x := f.Keypoints[model.KeyLeftShoulder].X
				if x != 0 {
					deviated = true
				}
				if x < -1.0-1e-9 || x > 1.0+1e-9 {
					outOfBound = true
				}
			}
			So(deviated, ShouldBeTrue)
			So(outOfBound, ShouldBeFalse)
		})
	})
}

func TestGeneratorAgainstEngine(t *testing.T) {
	Convey("Given a clean scripted bout", t, func() {
		bout := sparring.NewGenerator(0).BuildBout(2, 4)
		eng := engine.New()

		Convey("When every frame is stepped through a fresh engine", func() {
			var strikes []model.StrikeEvent
			var calibrated bool
			var last model.StepResult
			for _, f := range bout.Frames {
				last = eng.Step(f)
				if last.Calibration == model.CalibrationComplete {
					calibrated = true
				}
				if last.Strike != nil {
					strikes = append(strikes, *last.Strike)
				}
			}

			Convey("Then calibration completes and every strike scores", func() {
				So(calibrated, ShouldBeTrue)
				So(len(strikes), ShouldEqual, len(bout.Strikes))
				So(last.Left.Strikes+last.Right.Strikes, ShouldEqual, len(bout.Strikes))
			})

			Convey("Then scored sides match the script", func() {
				thrownLeft, thrownRight := bout.ThrownBySide()
				So(last.Left.Strikes, ShouldEqual, thrownLeft)
				So(last.Right.Strikes, ShouldEqual, thrownRight)
			})
		})
	})
}
