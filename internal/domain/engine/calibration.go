package engine

import "github.com/okian/pugil/internal/domain/model"

// promoteCalibration advances the session calibration state from the
// observed limb ranges. Promotion is monotone: shrinking ranges never
// demote, and a large first swing may cross both thresholds in one frame.
func promoteCalibration(cur model.CalibrationState, t *Tuning, ranges ...float64) model.CalibrationState {
	widest := 0.0
	for _, r := range ranges {
		if r > widest {
			widest = r
		}
	}
	if cur == model.CalibrationWaiting && widest > t.CalibStartRange {
		cur = model.CalibrationCollecting
	}
	if cur == model.CalibrationCollecting && widest > t.CalibDoneRange {
		cur = model.CalibrationComplete
	}
	return cur
}
