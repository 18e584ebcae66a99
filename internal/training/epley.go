package training

import "math"

// ImprovementRule holds the thresholds for suggesting a new 1RM from a logged set.
type ImprovementRule struct {
	// MinGainKg and MinGainRatio must both be met by the rounded estimate.
	MinGainKg    float64 `yaml:"min_gain_kg" json:"min_gain_kg"`
	MinGainRatio float64 `yaml:"min_gain_ratio" json:"min_gain_ratio"`
	// MinPercentOfMax is the lowest weight/current-max ratio considered.
	MinPercentOfMax float64 `yaml:"min_percent_of_max" json:"min_percent_of_max"`
	MaxReps         int     `yaml:"max_reps" json:"max_reps"`
	// Step is the rounding increment for the estimate, in kg.
	Step float64 `yaml:"step" json:"step"`
}

// DefaultImprovementRule returns the stock thresholds.
func DefaultImprovementRule() ImprovementRule {
	return ImprovementRule{
		MinGainKg:       1,
		MinGainRatio:    0.02,
		MinPercentOfMax: 0.6,
		MaxReps:         10,
		Step:            0.5,
	}
}

// Epley estimates a one-rep max from weight lifted for reps.
func Epley(weight float64, reps int) float64 {
	return weight * (1 + float64(reps)/30)
}

// RoundTo rounds v to the nearest multiple of step. A non-positive step
// returns v unchanged.
func RoundTo(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

// Estimate returns the rounded Epley estimate for a set against currentMax
// and whether it qualifies as an improvement under the rule.
func (r ImprovementRule) Estimate(weight float64, reps int, currentMax float64) (float64, bool) {
	if !positive(currentMax) || !positive(weight) {
		return 0, false
	}
	if reps < 1 || reps > r.MaxReps {
		return 0, false
	}
	if weight/currentMax < r.MinPercentOfMax {
		return 0, false
	}
	est := RoundTo(Epley(weight, reps), r.Step)
	if est-currentMax < r.MinGainKg {
		return est, false
	}
	if est < currentMax*(1+r.MinGainRatio) {
		return est, false
	}
	return est, true
}
