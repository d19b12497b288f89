package sparring

import (
	"fmt"
	"log"

	"github.com/okian/pugil/internal/domain/model"
)

// Bounds the scorer clamps strike percents to.
const (
	percentFloor   = 0
	percentCeiling = 150
)

// cooldownFloor is the stock engine cooldown. Scripted rests are far
// longer, so any scored pair closer than this points at double counting.
const cooldownFloor = 0.25

// verifyOutcomes checks every completed session against its script and the
// service-side tallies. Hard failures come back as one combined error;
// jitter-induced scoring deficits only warn.
func verifyOutcomes(config *Config, outcomes []*sessionOutcome, serviceStats map[string]interface{}, stats *Stats) error {
	log.Println("🔍 Verifying outcomes...")

	completed := 0
	var problems []string
	for _, out := range outcomes {
		if out.err != nil {
			continue
		}
		completed++
		problems = append(problems, verifySession(config, out)...)
	}

	if completed == 0 {
		return fmt.Errorf("no sessions completed")
	}

	if serviceStats != nil {
		verifyServiceTallies(serviceStats, stats)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			log.Printf("❌ %s", p)
		}
		return fmt.Errorf("%d consistency problem(s) found", len(problems))
	}

	log.Println("✅ Outcome verification completed")
	return nil
}

// verifySession checks one session's scored strikes against its script.
func verifySession(config *Config, out *sessionOutcome) []string {
	var problems []string

	if !out.played.calibrated {
		problems = append(problems, fmt.Sprintf("[%s] calibration never completed", out.label))
	}

	thrown := len(out.bout.Strikes)
	scored := len(out.played.strikes)
	thrownLeft, thrownRight := out.bout.ThrownBySide()
	scoredLeft := countSide(out.played.strikes, model.SideLeft)
	scoredRight := countSide(out.played.strikes, model.SideRight)

	// Phantom strikes are a hard failure on either side. A deficit passes
	// only when jitter could plausibly have eaten a strike.
	if scoredLeft > thrownLeft || scoredRight > thrownRight {
		problems = append(problems, fmt.Sprintf("[%s] scored more strikes than thrown (left %d/%d, right %d/%d)",
			out.label, scoredLeft, thrownLeft, scoredRight, thrownRight))
	}
	if scored < thrown {
		if config.Jitter > 0 {
			log.Printf("⚠️  [%s] scored %d of %d thrown strikes (jitter %.3f)",
				out.label, scored, thrown, config.Jitter)
		} else {
			problems = append(problems, fmt.Sprintf("[%s] scored %d of %d thrown strikes with clean input",
				out.label, scored, thrown))
		}
	}

	for i, s := range out.played.strikes {
		if s.Percent < percentFloor || s.Percent > percentCeiling {
			problems = append(problems, fmt.Sprintf("[%s] strike %d percent %d out of range",
				out.label, i+1, s.Percent))
		}
		if i > 0 {
			gap := s.At - out.played.strikes[i-1].At
			if gap < cooldownFloor {
				problems = append(problems, fmt.Sprintf("[%s] strikes %d and %d only %.3fs apart",
					out.label, i, i+1, gap))
			}
		}
	}

	if out.restLeft != scoredLeft || out.restRight != scoredRight {
		problems = append(problems, fmt.Sprintf("[%s] REST tallies (left %d, right %d) disagree with streamed strikes (left %d, right %d)",
			out.label, out.restLeft, out.restRight, scoredLeft, scoredRight))
	}

	return problems
}

// verifyServiceTallies compares the service counters with the run totals.
// The service may be long lived and shared, so its counters only need to
// cover what this run produced.
func verifyServiceTallies(serviceStats map[string]interface{}, stats *Stats) {
	total, ok := numericStat(serviceStats, "strikes_total")
	if !ok {
		log.Println("⚠️  Service stats missing strikes_total")
		return
	}
	if int(total) < stats.StrikesScored {
		log.Printf("⚠️  Service reports %d total strikes, run scored %d", int(total), stats.StrikesScored)
		return
	}
	log.Printf("✅ Service tallies cover this run (%d total strikes)", int(total))
}

// numericStat reads one numeric field from the stats payload. JSON numbers
// decode as float64.
func numericStat(stats map[string]interface{}, key string) (float64, bool) {
	v, ok := stats[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
