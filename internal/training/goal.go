package training

import (
	"fmt"

	"github.com/claude/wodlog/internal/models"
)

// Difficulty classifies the weekly increase a goal requires.
type Difficulty string

const (
	DifficultyReached     Difficulty = "reached"
	DifficultyRealistic   Difficulty = "realistic"
	DifficultyDemanding   Difficulty = "demanding"
	DifficultyAggressive  Difficulty = "aggressive"
	DifficultyUnscheduled Difficulty = "unscheduled"
)

// Projection is the outcome of ProjectGoal.
type Projection struct {
	CurrentKg        float64    `json:"current_kg"`
	TargetKg         float64    `json:"target_kg"`
	Weeks            int        `json:"weeks,omitempty"`
	WeeklyIncreasePc float64    `json:"weekly_increase_pct,omitempty"`
	Difficulty       Difficulty `json:"difficulty"`
	Frequency        string     `json:"frequency,omitempty"`
	Prescription     string     `json:"prescription,omitempty"`
	Message          string     `json:"message"`
}

type volumeBand struct {
	frequency    string
	prescription string
}

var volumeBands = map[models.Level]volumeBand{
	models.LevelBeginner:     {"2–3 sessions focused on the main lift", "3–4 sets of 5–8 reps at 70–80%"},
	models.LevelIntermediate: {"2–3 sessions including technical variations", "4–5 sets of 3–6 reps at 75–85%"},
	models.LevelAdvanced:     {"2–3 technical + strength sessions", "3–6 sets of 2–5 reps at 80–90%"},
}

var defaultVolumeBand = volumeBand{"2–3 sessions per week", "3–5 sets of 3–6 reps at 75–90%"}

// ProjectGoal evaluates how hard it is to go from current to target in the
// given number of weeks and recommends a training volume for level.
// The caller must ensure current is positive.
func ProjectGoal(current, target float64, weeks int, level models.Level) Projection {
	p := Projection{CurrentKg: current, TargetKg: target}
	if target <= current {
		p.Difficulty = DifficultyReached
		p.Message = fmt.Sprintf("Target %.1f kg is already within current capability (%.1f kg). Consolidate technique and volume before pushing again.", target, current)
		return p
	}
	if weeks <= 0 {
		p.Difficulty = DifficultyUnscheduled
		p.Message = "Set a number of weeks to get a weekly progression recommendation."
		return p
	}

	p.Weeks = weeks
	perWeek := (target - current) / current * 100 / float64(weeks)
	p.WeeklyIncreasePc = round2(perWeek)
	switch {
	case perWeek <= 1:
		p.Difficulty = DifficultyRealistic
	case perWeek <= 2:
		p.Difficulty = DifficultyDemanding
	default:
		p.Difficulty = DifficultyAggressive
	}

	band, ok := volumeBands[level]
	if !ok {
		band = defaultVolumeBand
	}
	p.Frequency = band.frequency
	p.Prescription = band.prescription
	p.Message = fmt.Sprintf("Target %.1f kg in %d weeks (%s, %.2f%%/week). Suggested: %s, with %s.",
		target, weeks, p.Difficulty, p.WeeklyIncreasePc, band.frequency, band.prescription)
	return p
}
