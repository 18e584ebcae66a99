package training

import (
	"math"
	"strings"
)

// Objective selects the rep-band table used by PercentRange.
type Objective string

const (
	ObjectiveStrength    Objective = "strength"
	ObjectiveHypertrophy Objective = "hypertrophy"
	ObjectiveTechnique   Objective = "technique"
	ObjectiveDefault     Objective = "default"
)

var objectiveMap = map[string]Objective{
	"strength":    ObjectiveStrength,
	"hypertrophy": ObjectiveHypertrophy,
	"technique":   ObjectiveTechnique,
	"default":     ObjectiveDefault,
	"auto":        ObjectiveDefault,
	"":            ObjectiveDefault,

	// Portuguese
	"forca":       ObjectiveStrength,
	"força":       ObjectiveStrength,
	"hipertrofia": ObjectiveHypertrophy,
	"tecnica":     ObjectiveTechnique,
	"técnica":     ObjectiveTechnique,
	"automatico":  ObjectiveDefault,
	"automático":  ObjectiveDefault,
}

// ParseObjective maps an objective label to an Objective. Unknown labels
// fall back to ObjectiveDefault with ok=false.
func ParseObjective(label string) (Objective, bool) {
	o, ok := objectiveMap[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return ObjectiveDefault, false
	}
	return o, true
}

// Range is a fraction-of-1RM interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PercentRange returns the suggested fraction-of-1RM range for a set of reps.
func PercentRange(reps int, obj Objective) Range {
	switch obj {
	case ObjectiveStrength:
		switch {
		case reps <= 2:
			return Range{0.90, 0.98}
		case reps <= 3:
			return Range{0.88, 0.95}
		case reps <= 5:
			return Range{0.80, 0.90}
		default:
			return Range{0.75, 0.85}
		}
	case ObjectiveHypertrophy:
		switch {
		case reps <= 5:
			return Range{0.75, 0.85}
		case reps <= 8:
			return Range{0.70, 0.80}
		case reps <= 12:
			return Range{0.65, 0.75}
		default:
			return Range{0.55, 0.70}
		}
	case ObjectiveTechnique:
		switch {
		case reps <= 5:
			return Range{0.50, 0.65}
		case reps <= 10:
			return Range{0.45, 0.60}
		default:
			return Range{0.40, 0.55}
		}
	default:
		switch {
		case reps == 1:
			return Range{0.90, 1.0}
		case reps <= 3:
			return Range{0.85, 0.95}
		case reps <= 5:
			return Range{0.80, 0.90}
		case reps <= 8:
			return Range{0.70, 0.80}
		case reps <= 12:
			return Range{0.65, 0.75}
		default:
			return Range{0.50, 0.65}
		}
	}
}

// Technical movement limits.
const (
	technicalCeiling = 0.85

	techniqueFloor = 0.50
	techniqueCap   = 0.70
	technicalFloor = 0.60
	technicalCap   = 0.80
)

// ClampTechnical narrows r to the band used for technical lifts: never above
// 85%, and inside [0.50,0.70] for technique work or [0.60,0.80] otherwise.
// The band floor replaces the minimum. If the result is inverted it is
// recentred to midpoint ± 0.05.
func ClampTechnical(r Range, obj Objective) Range {
	if r.Max > technicalCeiling {
		r.Max = technicalCeiling
	}
	floor, ceil := technicalFloor, technicalCap
	if obj == ObjectiveTechnique {
		floor, ceil = techniqueFloor, techniqueCap
	}
	r.Min = floor
	if r.Max > ceil {
		r.Max = ceil
	}
	// Unreachable from PercentRange, whose maxima all sit at or above the
	// band floors; a caller-supplied range below the band lands here.
	if r.Min > r.Max {
		mid := (r.Min + r.Max) / 2
		r.Min, r.Max = mid-0.05, mid+0.05
	}
	return r
}

// TechnicalNote is attached to advice for technical movements.
const TechnicalNote = "Technical movement: prioritise position and control, keep sets to 2–3 reps and reduce the load 5–10% if form degrades."

// Advice is the result of Advise.
type Advice struct {
	Reps      int       `json:"reps"`
	Objective Objective `json:"objective"`
	Technical bool      `json:"technical"`
	Range     Range     `json:"range"`
	MinLoadKg float64   `json:"min_load_kg"`
	MaxLoadKg float64   `json:"max_load_kg"`
	Note      string    `json:"note,omitempty"`
}

// Advise computes the working-weight window for reps at the given objective.
// ok is false when oneRepMax is not positive or reps < 1.
func Advise(oneRepMax float64, reps int, obj Objective, technical bool) (Advice, bool) {
	if !positive(oneRepMax) || reps < 1 {
		return Advice{}, false
	}
	r := PercentRange(reps, obj)
	if technical {
		r = ClampTechnical(r, obj)
	}
	a := Advice{
		Reps:      reps,
		Objective: obj,
		Technical: technical,
		Range:     Range{Min: round2(r.Min), Max: round2(r.Max)},
		MinLoadKg: round1(oneRepMax * r.Min),
		MaxLoadKg: round1(oneRepMax * r.Max),
	}
	if technical {
		a.Note = TechnicalNote
	}
	return a, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
