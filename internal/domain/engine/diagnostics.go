package engine

import "github.com/okian/pugil/internal/domain/model"

// Human-readable gate reasons, ordered roughly by how early in the frame
// pipeline each gate sits. The first entry of a diagnostics list is the
// binding constraint.
const (
	ReasonShouldersMissing = "shoulders missing"
	ReasonLowShoulderConf  = "low shoulder confidence"
	ReasonUnstable         = "torso moving - hold steady"
	ReasonHandMissing      = "hand keypoint missing"
	ReasonCalibrating      = "calibrating range"
	ReasonCooldown         = "cooling down"
	ReasonNotForward       = "not moving forward"
	ReasonTooSlow          = "too slow"
	ReasonNotExtended      = "not extended enough"
	ReasonReady            = "ready to strike"
	ReasonActive           = "active - retract to reset"
)

// diagnostics assembles the per-limb gate view for this frame. frameReasons
// carries frame-level failures (shoulders, stability); when any are present
// the strike gate chain was not evaluated and is left out. The Active flag
// reports the committed state, while the reasons reflect what the entry
// check saw, so the frame that fires a strike reads "ready to strike".
func (l *limb) diagnostics(t *Tuning, now float64, frameReasons []string) model.LimbDiagnostics {
	r := l.extRange()
	trigger := l.trigger(t)
	need := l.speedNeed(t)

	completion := 0.0
	if l.bandSet && trigger > l.rest {
		completion = clamp((l.dist-l.rest)/(trigger-l.rest), 0, 1)
	}

	d := model.LimbDiagnostics{
		Extension:      l.dist,
		Rest:           l.rest,
		Max:            l.max,
		Range:          r,
		Trigger:        trigger,
		Completion:     completion,
		Speed:          l.speed,
		SpeedThreshold: need,
		PeakSpeed:      l.peakSpeed(),
		Forward:        l.forward,
		Backward:       l.backward,
		Active:         l.active,
		Reasons:        append([]string(nil), frameReasons...),
	}

	if l.handMissing {
		d.Reasons = append(d.Reasons, ReasonHandMissing)
	}
	if len(d.Reasons) > 0 {
		return d
	}

	if l.wasActive {
		d.Reasons = append(d.Reasons, ReasonActive)
		return d
	}
	if r < t.TrustRange {
		d.Reasons = append(d.Reasons, ReasonCalibrating)
	}
	if now < l.gateCooldown {
		d.Reasons = append(d.Reasons, ReasonCooldown)
	}
	if !l.forward {
		d.Reasons = append(d.Reasons, ReasonNotForward)
	}
	if l.forward && l.speed < need {
		d.Reasons = append(d.Reasons, ReasonTooSlow)
	}
	if l.dist < trigger {
		d.Reasons = append(d.Reasons, ReasonNotExtended)
	}
	if len(d.Reasons) == 0 {
		d.Reasons = append(d.Reasons, ReasonReady)
	}
	return d
}
