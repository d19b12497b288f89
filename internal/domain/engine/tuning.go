package engine

// Tuning holds every rate and threshold the engine uses. Distances are in
// shoulder-span units, speeds in shoulder-span units per second, times in
// seconds. Zero values are not meaningful; start from DefaultTuning and
// override selectively.
type Tuning struct {
	// Frame admission.
	ShoulderMinConfidence float64 `koanf:"shoulder_min_confidence"`
	HandMinConfidence     float64 `koanf:"hand_min_confidence"`

	// Stability gate: mean shoulder displacement per frame above this
	// freezes all learning.
	StabilityThreshold float64 `koanf:"stability_threshold"`

	// Position smoothing weight on the previous filtered value.
	SmoothingAlpha float64 `koanf:"smoothing_alpha"`

	// Extension band learning rates.
	RestRateRetract float64 `koanf:"rest_rate_retract"`
	RestRateDrift   float64 `koanf:"rest_rate_drift"`
	MaxRateGrow     float64 `koanf:"max_rate_grow"`
	MaxRateDecay    float64 `koanf:"max_rate_decay"`
	MinRangeGap     float64 `koanf:"min_range_gap"`

	// Forward/backward classification.
	ForwardDeltaMin       float64 `koanf:"forward_delta_min"`
	ForwardDeltaRangeFrac float64 `koanf:"forward_delta_range_frac"`
	SpeedFloorSeed        float64 `koanf:"speed_floor_seed"`
	SpeedFloorCalibrated  float64 `koanf:"speed_floor_calibrated"`
	RangeEstablished      float64 `koanf:"range_established"`
	NoiseRate             float64 `koanf:"noise_rate"`
	NoiseFactor           float64 `koanf:"noise_factor"`

	// Strike entry and exit.
	TrustRange        float64 `koanf:"trust_range"`
	SpeedMin          float64 `koanf:"speed_min"`
	SpeedBase         float64 `koanf:"speed_base"`
	SpeedPerRange     float64 `koanf:"speed_per_range"`
	TriggerGainNarrow float64 `koanf:"trigger_gain_narrow"`
	TriggerGainMedium float64 `koanf:"trigger_gain_medium"`
	TriggerGainWide   float64 `koanf:"trigger_gain_wide"`
	TriggerBandNarrow float64 `koanf:"trigger_band_narrow"`
	TriggerBandMedium float64 `koanf:"trigger_band_medium"`
	CooldownSeconds   float64 `koanf:"cooldown_seconds"`
	ReleaseFrac       float64 `koanf:"release_frac"`
	ReachClampMin     float64 `koanf:"reach_clamp_min"`
	ReachClampMax     float64 `koanf:"reach_clamp_max"`

	// Calibration promotion thresholds on the larger limb range.
	CalibStartRange float64 `koanf:"calib_start_range"`
	CalibDoneRange  float64 `koanf:"calib_done_range"`

	// Diagnostics.
	SpeedHistorySize int `koanf:"speed_history_size"`
}

// DefaultTuning returns the stock tuning. The values come from hand tuning
// against webcam pose streams at 24-60 fps.
func DefaultTuning() Tuning {
	return Tuning{
		ShoulderMinConfidence: 0.15,
		HandMinConfidence:     0.05,

		StabilityThreshold: 0.08,

		SmoothingAlpha: 0.6,

		RestRateRetract: 0.6,
		RestRateDrift:   0.03,
		MaxRateGrow:     0.3,
		MaxRateDecay:    0.02,
		MinRangeGap:     0.04,

		ForwardDeltaMin:       0.003,
		ForwardDeltaRangeFrac: 0.03,
		SpeedFloorSeed:        0.15,
		SpeedFloorCalibrated:  0.3,
		RangeEstablished:      0.05,
		NoiseRate:             0.1,
		NoiseFactor:           1.2,

		TrustRange:        0.06,
		SpeedMin:          0.6,
		SpeedBase:         0.5,
		SpeedPerRange:     1.2,
		TriggerGainNarrow: 0.5,
		TriggerGainMedium: 0.6,
		TriggerGainWide:   0.65,
		TriggerBandNarrow: 0.06,
		TriggerBandMedium: 0.10,
		CooldownSeconds:   0.25,
		ReleaseFrac:       0.25,
		ReachClampMin:     0.4,
		ReachClampMax:     1.6,

		CalibStartRange: 0.08,
		CalibDoneRange:  0.18,

		SpeedHistorySize: 5,
	}
}

// sanitize repairs values that would break the step math. It does not try
// to second-guess tuning choices, only division-by-zero class mistakes.
func (t *Tuning) sanitize() {
	if t.SmoothingAlpha < 0 || t.SmoothingAlpha >= 1 {
		t.SmoothingAlpha = DefaultTuning().SmoothingAlpha
	}
	if t.MinRangeGap <= 0 {
		t.MinRangeGap = DefaultTuning().MinRangeGap
	}
	if t.SpeedHistorySize < 1 {
		t.SpeedHistorySize = 1
	}
	if t.CooldownSeconds < 0 {
		t.CooldownSeconds = 0
	}
}

// triggerGain returns the fraction of the extension range the hand must
// cross beyond rest before a strike can fire. Narrow ranges get a lower
// bar; confident wide ranges a higher one.
func (t *Tuning) triggerGain(extRange float64) float64 {
	switch {
	case extRange < t.TriggerBandNarrow:
		return t.TriggerGainNarrow
	case extRange < t.TriggerBandMedium:
		return t.TriggerGainMedium
	default:
		return t.TriggerGainWide
	}
}
