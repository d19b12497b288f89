package sparring

import (
	"crypto/rand"
	"math/big"

	"github.com/okian/pugil/internal/domain/model"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	sideCoin           = 0.5
)

// Script shape constants, in frames at FrameRate.
const (
	jabOutFrames      = 3
	jabBackFrames     = 3
	restFramesMin     = 12
	restFramesSpread  = 6
	cornerBreakFrames = 45
	calibHoldFrames   = 10
	calibMoveFrames   = 16
	calibSettleFrames = 12
)

// normalizedScale maps shoulder-width units onto raw coordinates: the
// synthetic shoulders sit 100 raw units apart.
const normalizedScale = 100

// Strike records one scripted strike and roughly where it lands in the
// frame sequence.
type Strike struct {
	Side  model.Side
	Frame int
}

// Bout is a fully scripted pose stream together with the strikes it
// contains, so a run can check the service scored what was thrown.
type Bout struct {
	Frames  []model.Frame
	Strikes []Strike
}

// ThrownBySide counts scripted strikes per side.
func (b *Bout) ThrownBySide() (left, right int) {
	for _, s := range b.Strikes {
		if s.Side == model.SideLeft {
			left++
		} else {
			right++
		}
	}
	return left, right
}

// Generator produces synthetic mirrored pose frames mimicking a fighter
// seen head-on. Shoulders sit pinned at (0,0) and (100,0), so wrist
// offsets are written in shoulder-width units directly. Timestamps
// advance at FrameRate no matter how fast the frames are sent.
type Generator struct {
	jitter float64
	now    float64
	left   float64 // wrist offset from the left shoulder, normalized
	right  float64
	bout   *Bout
}

// NewGenerator returns a generator resting in guard position. Jitter is
// uniform keypoint noise in normalized units; keep it well under the
// stability threshold or the torso gate will reject the whole stream.
func NewGenerator(jitter float64) *Generator {
	return &Generator{jitter: jitter, left: GuardOffset, right: GuardOffset}
}

// getRandomFloat generates a random float64 between 0 and 1 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// noise perturbs one raw coordinate by up to +-jitter normalized units.
func (g *Generator) noise(v float64) float64 {
	if g.jitter <= 0 {
		return v
	}
	return v + (getRandomFloat()-0.5)*2*g.jitter*normalizedScale
}

// emit appends one frame at the current wrist offsets.
func (g *Generator) emit() {
	g.now += 1.0 / FrameRate
	g.bout.Frames = append(g.bout.Frames, model.Frame{
		Timestamp: g.now,
		Keypoints: map[string]model.Keypoint{
			model.KeyLeftShoulder:  {X: g.noise(0), Y: g.noise(0), Confidence: 0.99},
			model.KeyRightShoulder: {X: g.noise(normalizedScale), Y: g.noise(0), Confidence: 0.99},
			model.KeyLeftWrist:     {X: g.noise(-g.left * normalizedScale), Y: g.noise(0), Confidence: 0.9},
			model.KeyRightWrist:    {X: g.noise(normalizedScale + g.right*normalizedScale), Y: g.noise(0), Confidence: 0.9},
			model.KeyLeftElbow:     {X: g.noise(-g.left * normalizedScale / 2), Y: g.noise(0), Confidence: 0.9},
			model.KeyRightElbow:    {X: g.noise(normalizedScale + g.right*normalizedScale/2), Y: g.noise(0), Confidence: 0.9},
		},
	})
}

func (g *Generator) hold(frames int) {
	for i := 0; i < frames; i++ {
		g.emit()
	}
}

// move slides both wrists linearly toward their targets over n frames.
func (g *Generator) move(leftTo, rightTo float64, frames int) {
	dl := (leftTo - g.left) / float64(frames)
	dr := (rightTo - g.right) / float64(frames)
	for i := 0; i < frames; i++ {
		g.left += dl
		g.right += dr
		g.emit()
	}
}

// calibrationSwing performs one slow full swing of both arms and settles
// back to guard: wide enough to finish range calibration, slow enough to
// stay under the strike speed bar.
func (g *Generator) calibrationSwing() {
	g.hold(calibHoldFrames)
	g.move(CalibrationReach, CalibrationReach, calibMoveFrames)
	g.move(GuardOffset, GuardOffset, calibMoveFrames)
	g.hold(calibSettleFrames)
}

// strike throws one fast jab on the given side and settles past the
// cooldown. The rest period varies a little so rounds do not look
// metronomic.
func (g *Generator) strike(side model.Side) {
	if side == model.SideLeft {
		g.move(JabExtent, GuardOffset, jabOutFrames)
	} else {
		g.move(GuardOffset, JabExtent, jabOutFrames)
	}
	g.bout.Strikes = append(g.bout.Strikes, Strike{Side: side, Frame: len(g.bout.Frames) - 1})
	g.move(GuardOffset, GuardOffset, jabBackFrames)
	g.hold(restFramesMin + int(getRandomFloat()*float64(restFramesSpread)))
}

// BuildBout scripts a full sparring session: one calibration swing, then
// the given number of rounds with a corner break between them. Sides are
// chosen by coin flip.
func (g *Generator) BuildBout(rounds, strikesPerRound int) *Bout {
	g.bout = &Bout{}
	g.calibrationSwing()
	for r := 0; r < rounds; r++ {
		if r > 0 {
			g.hold(cornerBreakFrames)
		}
		for s := 0; s < strikesPerRound; s++ {
			side := model.SideLeft
			if getRandomFloat() >= sideCoin {
				side = model.SideRight
			}
			g.strike(side)
		}
	}
	return g.bout
}
