package engine

import (
	"math"

	"github.com/okian/pugil/internal/domain/model"
)

// point is a 2D position in raw keypoint units.
type point struct {
	x, y float64
}

func distance(a, b point) float64 {
	return math.Hypot(a.x-b.x, a.y-b.y)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// limbFrame is the slice of one frame a single limb sees.
type limbFrame struct {
	shoulder point
	wrist    model.Keypoint
	wristOK  bool
	elbow    model.Keypoint
	elbowOK  bool
	norm     float64
	dt       float64 // seconds since the last admitted frame; <=0 when unknown
	learn    bool    // false while the torso is moving
}

// candidate is a strike that passed every per-limb gate. The engine
// arbitrates across limbs before committing one.
type candidate struct {
	side  model.Side
	speed float64
	power float64
}

// limb tracks one arm: the smoothed hand position, the learned rest/max
// extension band, motion classification and the idle/active strike state.
// All distances are normalized by shoulder span.
type limb struct {
	side model.Side

	filtered point
	lastRaw  point
	seeded   bool

	dist     float64
	distSeen bool

	rest    float64
	max     float64
	bandSet bool

	prevForward bool
	noise       float64
	speedHist   []float64

	active        bool
	cooldownUntil float64

	// per-frame outputs, rebuilt by observe
	speed        float64
	rawSpeed     float64
	signedDelta  float64
	forward      bool
	backward     bool
	handMissing  bool
	wasActive    bool    // active state the entry check saw
	gateCooldown float64 // cooldown deadline the entry check saw
}

func newLimb(side model.Side) limb {
	return limb{side: side}
}

// extRange is the current calibrated extension range.
func (l *limb) extRange() float64 {
	if !l.bandSet {
		return 0
	}
	return l.max - l.rest
}

// pickHand selects the point that stands in for the hand this frame:
// wrist, then elbow, then the previous raw position. Any fallback marks
// the hand missing, which freezes the distance and blocks strikes.
func (l *limb) pickHand(t *Tuning, f limbFrame) (point, bool) {
	switch {
	case f.wristOK && f.wrist.Confidence >= t.HandMinConfidence:
		return point{f.wrist.X, f.wrist.Y}, true
	case f.elbowOK && f.elbow.Confidence >= t.HandMinConfidence:
		l.handMissing = true
		return point{f.elbow.X, f.elbow.Y}, true
	case l.seeded:
		l.handMissing = true
		return l.lastRaw, true
	default:
		l.handMissing = true
		return point{}, false
	}
}

// observe advances the limb one frame. It returns a strike candidate when
// every entry gate passes; the caller commits (or drops) it.
func (l *limb) observe(t *Tuning, f limbFrame, now float64) *candidate {
	l.speed = 0
	l.rawSpeed = 0
	l.signedDelta = 0
	l.forward = false
	l.backward = false
	l.handMissing = false

	raw, ok := l.pickHand(t, f)
	if !ok {
		// never seen a usable point for this limb
		l.wasActive = l.active
		l.gateCooldown = l.cooldownUntil
		return nil
	}
	l.lastRaw = raw

	wasSeeded := l.seeded
	prev := l.filtered
	if !wasSeeded {
		l.filtered = raw
		l.seeded = true
	} else {
		a := t.SmoothingAlpha
		l.filtered.x = l.filtered.x*a + raw.x*(1-a)
		l.filtered.y = l.filtered.y*a + raw.y*(1-a)
	}
	if wasSeeded && f.dt > 0 {
		l.rawSpeed = distance(prev, l.filtered) / f.norm / f.dt
	}

	// Distance to the same-side shoulder freezes while the hand point is
	// a fallback, so the band cannot learn from elbow geometry.
	if !l.handMissing {
		d := distance(l.filtered, f.shoulder) / f.norm
		if l.distSeen {
			l.signedDelta = d - l.dist
		}
		l.dist = d
		l.distSeen = true
	}

	learn := f.learn && !l.handMissing && l.distSeen
	if learn {
		l.learnBand(t)
		l.noise = l.noise*(1-t.NoiseRate) + l.rawSpeed*t.NoiseRate
	}

	if f.dt > 0 {
		if l.signedDelta > 0 {
			l.speed = l.signedDelta / f.dt
		}
		if learn {
			l.classify(t)
			l.speedHist = append(l.speedHist, l.speed)
			if len(l.speedHist) > t.SpeedHistorySize {
				l.speedHist = l.speedHist[1:]
			}
		}
	}
	if learn {
		l.prevForward = l.forward
	}

	// Retraction releases the active state; the cooldown keeps running.
	r := l.extRange()
	if l.active && (l.backward || (l.bandSet && l.dist <= l.rest+r*t.ReleaseFrac)) {
		l.active = false
	}
	l.wasActive = l.active
	l.gateCooldown = l.cooldownUntil

	if l.active || now < l.cooldownUntil || r < t.TrustRange || !l.forward {
		return nil
	}
	if l.speed < l.speedNeed(t) || l.dist < l.trigger(t) {
		return nil
	}
	return &candidate{
		side:  l.side,
		speed: l.speed,
		power: l.speed * clamp(l.dist, t.ReachClampMin, t.ReachClampMax),
	}
}

// learnBand nudges the rest/max extension estimates toward the current
// distance. Rates are asymmetric: snapping back below rest is tracked
// fast, everything else drifts slowly. The previous frame's forward
// classification decides which side of the band is learning.
func (l *limb) learnBand(t *Tuning) {
	if !l.bandSet {
		l.rest = l.dist
		l.max = l.dist + t.MinRangeGap
		l.bandSet = true
		return
	}
	if !l.prevForward || l.dist < l.rest {
		rate := t.RestRateDrift
		if l.dist < l.rest {
			rate = t.RestRateRetract
		}
		l.rest += (l.dist - l.rest) * rate
	}
	if l.prevForward && l.dist > l.max {
		l.max += (l.dist - l.max) * t.MaxRateGrow
	} else {
		l.max += (l.dist - l.max) * t.MaxRateDecay
	}
	if l.max < l.rest+t.MinRangeGap {
		l.max = l.rest + t.MinRangeGap
	}
}

// classify tags the frame as moving forward, backward, or neither. The
// delta gate scales with the calibrated range; the speed floor rises once
// a range exists and is further lifted by the jitter estimate.
func (l *limb) classify(t *Tuning) {
	r := l.extRange()
	gate := math.Max(t.ForwardDeltaMin, r*t.ForwardDeltaRangeFrac)
	floor := t.SpeedFloorSeed
	if r > t.RangeEstablished {
		floor = t.SpeedFloorCalibrated
	}
	forwardFloor := math.Max(floor, l.noise*t.NoiseFactor)

	switch {
	case l.signedDelta > gate && l.speed > forwardFloor:
		l.forward = true
	case l.signedDelta < -gate && l.speed < floor:
		l.backward = true
	}
}

// speedNeed is the forward speed bar for strike entry; it rises with the
// calibrated range but never drops below SpeedMin.
func (l *limb) speedNeed(t *Tuning) float64 {
	return math.Max(t.SpeedMin, t.SpeedBase+l.extRange()*t.SpeedPerRange)
}

// trigger is the extension a strike must reach.
func (l *limb) trigger(t *Tuning) float64 {
	r := l.extRange()
	return l.rest + r*t.triggerGain(r)
}

// enterActive commits a strike entry (winning or losing arbitration).
func (l *limb) enterActive(t *Tuning, now float64) {
	l.active = true
	l.cooldownUntil = now + t.CooldownSeconds
}

// instantPower is the per-frame power readout mirrored into LimbStats.
func (l *limb) instantPower(t *Tuning) float64 {
	return l.speed * clamp(l.dist, t.ReachClampMin, t.ReachClampMax)
}

func (l *limb) peakSpeed() float64 {
	peak := 0.0
	for _, s := range l.speedHist {
		if s > peak {
			peak = s
		}
	}
	return peak
}
