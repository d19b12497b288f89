// Package engine converts noisy 2D pose frames into scored per-limb strike
// events, self-calibrating to the subject's own range of motion. One Engine
// per session; all state lives on the struct and Step is the only mutating
// call. The engine performs no I/O and never reads a clock: time is whatever
// the caller stamps on frames.
package engine

import (
	"math"

	"github.com/okian/pugil/internal/domain/model"
)

// Scorer folds accepted strike powers into a score history and reports the
// resulting percent values. Implementations must not block: the engine
// calls Record inline from Step.
type Scorer interface {
	Record(side model.Side, power float64) (percent int, average float64)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTuning replaces the stock tuning wholesale.
func WithTuning(t Tuning) Option {
	return func(e *Engine) { e.tun = t }
}

// WithScorer attaches the score keeper consulted on accepted strikes.
// Without one, strikes carry percent 0.
func WithScorer(s Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// Engine is one session's detector state. Not safe for concurrent use;
// callers serialize Step per instance.
type Engine struct {
	tun    Tuning
	scorer Scorer

	left  limb
	right limb

	prevLeft      point
	prevRight     point
	shouldersSeen bool
	lastTime      float64

	calib      model.CalibrationState
	leftStats  model.LimbStats
	rightStats model.LimbStats
}

// New builds an idle engine in the waiting calibration state.
func New(opts ...Option) *Engine {
	e := &Engine{
		tun:   DefaultTuning(),
		left:  newLimb(model.SideLeft),
		right: newLimb(model.SideRight),
		calib: model.CalibrationWaiting,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tun.sanitize()
	return e
}

// Step processes one frame and returns the per-frame result. Frames whose
// shoulders are unusable advance time but change no dynamic state.
func (e *Engine) Step(f model.Frame) model.StepResult {
	now := f.Timestamp

	ls, lok := f.Get(model.KeyLeftShoulder)
	rs, rok := f.Get(model.KeyRightShoulder)
	if !lok || !rok {
		return e.skip(now, ReasonShouldersMissing)
	}
	if ls.Confidence < e.tun.ShoulderMinConfidence || rs.Confidence < e.tun.ShoulderMinConfidence {
		return e.skip(now, ReasonLowShoulderConf)
	}

	lsp := point{ls.X, ls.Y}
	rsp := point{rs.X, rs.Y}
	norm := math.Max(distance(lsp, rsp), 1)

	stable := true
	if e.shouldersSeen {
		drift := (distance(lsp, e.prevLeft) + distance(rsp, e.prevRight)) / 2 / norm
		stable = drift <= e.tun.StabilityThreshold
	}
	dt := 0.0
	if e.shouldersSeen && now > e.lastTime {
		dt = now - e.lastTime
	}
	e.prevLeft, e.prevRight = lsp, rsp
	e.shouldersSeen = true
	e.lastTime = now

	lw, lwok := f.Get(model.KeyLeftWrist)
	le, leok := f.Get(model.KeyLeftElbow)
	rw, rwok := f.Get(model.KeyRightWrist)
	re, reok := f.Get(model.KeyRightElbow)

	lc := e.left.observe(&e.tun, limbFrame{
		shoulder: lsp, wrist: lw, wristOK: lwok, elbow: le, elbowOK: leok,
		norm: norm, dt: dt, learn: stable,
	}, now)
	rc := e.right.observe(&e.tun, limbFrame{
		shoulder: rsp, wrist: rw, wristOK: rwok, elbow: re, elbowOK: reok,
		norm: norm, dt: dt, learn: stable,
	}, now)

	strike := e.arbitrate(lc, rc, now)

	e.leftStats.LastSpeed = e.left.speed
	e.leftStats.LastPower = e.left.instantPower(&e.tun)
	e.rightStats.LastSpeed = e.right.speed
	e.rightStats.LastPower = e.right.instantPower(&e.tun)

	e.calib = promoteCalibration(e.calib, &e.tun, e.left.extRange(), e.right.extRange())

	var frameReasons []string
	if !stable {
		frameReasons = []string{ReasonUnstable}
	}
	return model.StepResult{
		Left:        e.leftStats,
		Right:       e.rightStats,
		LeftDebug:   e.left.diagnostics(&e.tun, now, frameReasons),
		RightDebug:  e.right.diagnostics(&e.tun, now, frameReasons),
		Calibration: e.calib,
		Strike:      strike,
	}
}

// arbitrate commits at most one strike per frame. When both limbs fire the
// higher power wins; the loser still turns active so it cannot re-fire on
// the next frame, but its event is dropped.
func (e *Engine) arbitrate(lc, rc *candidate, now float64) *model.StrikeEvent {
	if lc == nil && rc == nil {
		return nil
	}
	win := lc
	if win == nil || (rc != nil && rc.power > win.power) {
		win = rc
	}
	if lc != nil {
		e.left.enterActive(&e.tun, now)
	}
	if rc != nil {
		e.right.enterActive(&e.tun, now)
	}

	percent := 0
	average := 0.0
	if e.scorer != nil {
		percent, average = e.scorer.Record(win.side, win.power)
	}
	st := e.statsFor(win.side)
	st.Strikes++
	st.LastPercent = percent
	st.AvgPercent = average

	return &model.StrikeEvent{
		Side:    win.side,
		Power:   win.power,
		Speed:   win.speed,
		Percent: percent,
		At:      now,
	}
}

func (e *Engine) statsFor(side model.Side) *model.LimbStats {
	if side == model.SideLeft {
		return &e.leftStats
	}
	return &e.rightStats
}

// skip returns the result for a frame whose shoulders were unusable. No
// limb state moves; diagnostics carry the frame-level reason.
func (e *Engine) skip(now float64, reason string) model.StepResult {
	fr := []string{reason}
	return model.StepResult{
		Left:        e.leftStats,
		Right:       e.rightStats,
		LeftDebug:   e.left.diagnostics(&e.tun, now, fr),
		RightDebug:  e.right.diagnostics(&e.tun, now, fr),
		Calibration: e.calib,
	}
}

// Calibration reports the current calibration state.
func (e *Engine) Calibration() model.CalibrationState {
	return e.calib
}

// Snapshot assembles a result-shaped view of the current state without
// advancing a frame; the stats endpoints serve this.
func (e *Engine) Snapshot() model.StepResult {
	return model.StepResult{
		Left:        e.leftStats,
		Right:       e.rightStats,
		LeftDebug:   e.left.diagnostics(&e.tun, e.lastTime, nil),
		RightDebug:  e.right.diagnostics(&e.tun, e.lastTime, nil),
		Calibration: e.calib,
	}
}
