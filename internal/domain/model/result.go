package model

import "time"

// MaxHistory bounds the per-side strike power history kept for the scoring
// baseline and persisted across sessions.
const MaxHistory = 50

// CalibrationState reports how much of the subject's range of motion has
// been observed so far. Transitions are monotone: waiting -> collecting ->
// complete, never back.
type CalibrationState string

// Calibration states.
const (
	CalibrationWaiting    CalibrationState = "waiting"
	CalibrationCollecting CalibrationState = "collecting"
	CalibrationComplete   CalibrationState = "complete"
)

// LimbStats is the cumulative output for one limb. Strikes, LastPercent and
// AvgPercent change only on accepted strikes; LastSpeed and LastPower track
// the current frame.
type LimbStats struct {
	Strikes     int     `json:"strikes"`
	LastSpeed   float64 `json:"last_speed"`
	LastPower   float64 `json:"last_power"`
	LastPercent int     `json:"last_percent"`
	AvgPercent  float64 `json:"avg_percent"`
}

// LimbDiagnostics exposes the per-frame gate state for one limb. Distances
// are normalized by shoulder span, speeds are norm-units per second. Reasons
// is ordered: the first entry is the gate currently blocking a strike, or a
// ready/active message when nothing blocks.
type LimbDiagnostics struct {
	Extension      float64  `json:"extension"`
	Rest           float64  `json:"rest"`
	Max            float64  `json:"max"`
	Range          float64  `json:"range"`
	Trigger        float64  `json:"trigger"`
	Completion     float64  `json:"completion"`
	Speed          float64  `json:"speed"`
	SpeedThreshold float64  `json:"speed_threshold"`
	PeakSpeed      float64  `json:"peak_speed"`
	Forward        bool     `json:"forward"`
	Backward       bool     `json:"backward"`
	Active         bool     `json:"active"`
	Reasons        []string `json:"reasons"`
}

// StrikeEvent is an accepted strike. It is transient: surfaced once in the
// StepResult of the frame that accepted it and folded into LimbStats and the
// score history, never kept as an event log.
type StrikeEvent struct {
	Side    Side    `json:"side"`
	Power   float64 `json:"power"`
	Speed   float64 `json:"speed"`
	Percent int     `json:"percent"`
	At      float64 `json:"at"`
}

// StepResult is produced once per processed frame.
type StepResult struct {
	Left        LimbStats        `json:"left"`
	Right       LimbStats        `json:"right"`
	LeftDebug   LimbDiagnostics  `json:"left_debug"`
	RightDebug  LimbDiagnostics  `json:"right_debug"`
	Calibration CalibrationState `json:"calibration"`
	Strike      *StrikeEvent     `json:"strike,omitempty"`
}

// ScoreRecord is the persisted history blob: both per-side power histories
// plus the wall time they were saved at. Records older than the store TTL
// are discarded on load.
type ScoreRecord struct {
	SavedAt time.Time
	Left    []float64
	Right   []float64
}

// Clone returns a deep copy so callers can hold the record past the
// store's lock.
func (r ScoreRecord) Clone() ScoreRecord {
	out := ScoreRecord{SavedAt: r.SavedAt}
	if r.Left != nil {
		out.Left = append([]float64(nil), r.Left...)
	}
	if r.Right != nil {
		out.Right = append([]float64(nil), r.Right...)
	}
	return out
}
