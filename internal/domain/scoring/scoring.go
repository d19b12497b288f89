// Package scoring keeps the bounded per-limb strike power history and
// scores each strike against a self-calibrating baseline.
package scoring

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/pugil/internal/domain/model"
)

// Scoring constants.
const (
	// baselinePercentile is the nearest-rank percentile of the power
	// history each strike is measured against.
	baselinePercentile = 0.90
	// minBaseline guards the percent division.
	minBaseline = 0.001
	// maxPercent caps a single strike's percent score.
	maxPercent = 150
	// trendWindow is how many recent powers feed the average percent.
	trendWindow = 10
)

// Option applies a configuration option to the Keeper.
type Option func(*Keeper)

// WithHistory seeds both power histories, typically from a persisted
// record. Longer slices keep only their newest entries.
func WithHistory(left, right []float64) Option {
	return func(k *Keeper) {
		k.left = trim(append([]float64(nil), left...))
		k.right = trim(append([]float64(nil), right...))
	}
}

// Keeper folds accepted strike powers into bounded per-side histories and
// scores each strike relative to what the same subject has thrown so far.
// Safe for concurrent use.
type Keeper struct {
	mu    sync.Mutex
	left  []float64
	right []float64
}

// NewKeeper creates a keeper with configuration options.
func NewKeeper(opts ...Option) *Keeper {
	k := &Keeper{}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Record pushes one accepted strike power and returns its percent score
// (0-150) plus the refreshed trend average for that side.
func (k *Keeper) Record(side model.Side, power float64) (int, float64) {
	k.mu.Lock()
	defer k.mu.Unlock()

	h := k.history(side)
	*h = append(*h, power)
	if len(*h) > model.MaxHistory {
		*h = (*h)[1:]
	}

	base := baseline(*h)
	percent := int(math.Round(power / math.Max(base, minBaseline) * 100))
	if percent < 0 {
		percent = 0
	}
	if percent > maxPercent {
		percent = maxPercent
	}
	return percent, trend(*h, base)
}

// Baseline returns the current reference power for a side; zero before any
// strike has landed.
func (k *Keeper) Baseline(side model.Side) float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return baseline(*k.history(side))
}

// AveragePercent returns the rolling trend value for a side.
func (k *Keeper) AveragePercent(side model.Side) float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	h := *k.history(side)
	return trend(h, baseline(h))
}

// History returns a copy of one side's power history, oldest first.
func (k *Keeper) History(side model.Side) []float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]float64(nil), *k.history(side)...)
}

// Snapshot copies both histories into a record stamped with the given wall
// time, ready for persistence.
func (k *Keeper) Snapshot(at time.Time) model.ScoreRecord {
	k.mu.Lock()
	defer k.mu.Unlock()
	return model.ScoreRecord{
		SavedAt: at,
		Left:    append([]float64(nil), k.left...),
		Right:   append([]float64(nil), k.right...),
	}
}

func (k *Keeper) history(side model.Side) *[]float64 {
	if side == model.SideLeft {
		return &k.left
	}
	return &k.right
}

// baseline is the nearest-rank percentile of the history. When the rank
// value is zero (or the history empty) it falls back to the history
// maximum, so early sessions score against their own best strike.
func baseline(h []float64) float64 {
	if len(h) > 0 {
		sorted := append([]float64(nil), h...)
		sort.Float64s(sorted)
		idx := int(math.Round(baselinePercentile * float64(len(sorted)-1)))
		if v := sorted[idx]; v > 0 {
			return v
		}
	}
	out := 0.0
	for _, v := range h {
		if v > out {
			out = v
		}
	}
	return out
}

// trend is the mean of the newest powers over the baseline, as a percent.
func trend(h []float64, base float64) float64 {
	if len(h) == 0 {
		return 0
	}
	tail := h
	if len(tail) > trendWindow {
		tail = tail[len(tail)-trendWindow:]
	}
	return stat.Mean(tail, nil) / math.Max(base, minBaseline) * 100
}

func trim(h []float64) []float64 {
	if len(h) > model.MaxHistory {
		return h[len(h)-model.MaxHistory:]
	}
	return h
}
