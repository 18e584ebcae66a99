package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claude/wodlog/internal/models"
)

// Block classifies an entry by intensity and rep count.
type Block string

const (
	BlockStrength    Block = "strength"
	BlockHypertrophy Block = "hypertrophy"
	BlockLight       Block = "light"
)

// ClassifyBlock returns the block for an entry, or "" when it has no percent
// of max or falls between bands.
func ClassifyBlock(e models.SessionEntry) Block {
	if e.PercentOfMax == nil || e.Reps <= 0 {
		return ""
	}
	p, r := *e.PercentOfMax, e.Reps
	switch {
	case p >= 0.80 && r <= 5:
		return BlockStrength
	case p >= 0.65 && p <= 0.80 && r >= 6 && r <= 12:
		return BlockHypertrophy
	case p < 0.60 || r >= 15:
		return BlockLight
	}
	return ""
}

// DaySummary is the detail view of one training day.
type DaySummary struct {
	Date            string           `json:"date"`
	Entries         int              `json:"entries"`
	TotalLoad       float64          `json:"total_load"`
	TotalSets       int              `json:"total_sets"`
	TotalRepVolume  int              `json:"total_rep_volume"`
	TotalDistanceKm float64          `json:"total_distance_km"`
	BestMetconSecs  *int             `json:"best_metcon_seconds,omitempty"`
	BestMetconTime  string           `json:"best_metcon_time,omitempty"`
	Blocks          map[Block]int    `json:"blocks"`
	Result          models.DayResult `json:"result,omitempty"`
	Suggestion      string           `json:"suggestion"`
}

// SummarizeDay computes the summary for date from a state snapshot.
func SummarizeDay(s models.State, date string) DaySummary {
	sum := DaySummary{
		Date:   date,
		Blocks: map[Block]int{BlockStrength: 0, BlockHypertrophy: 0, BlockLight: 0},
		Result: s.DayResults[date],
	}
	for _, e := range s.Entries {
		if e.Date != date {
			continue
		}
		sum.Entries++
		sum.TotalLoad += e.ComputedLoad
		sum.TotalSets += e.Sets
		sum.TotalRepVolume += e.Reps * e.Sets
		sum.TotalDistanceKm += e.DistanceKm
		if b := ClassifyBlock(e); b != "" {
			sum.Blocks[b]++
		}
		if secs, ok := metconSeconds(e); ok && (sum.BestMetconSecs == nil || secs < *sum.BestMetconSecs) {
			sum.BestMetconSecs = &secs
			sum.BestMetconTime = FormatElapsed(secs)
		}
	}
	sum.Suggestion = suggest(sum, s.Profile.Goal)
	return sum
}

var goalAdvice = map[string]string{
	"conditioning":       "To build conditioning, favour 10–20 minute metcons at a steady pace with few stops.",
	"absolute_strength":  "For absolute strength, keep 2–3 weekly blocks of heavy 3–5 rep sets on the main lifts.",
	"power":              "For power, use moderate loads with explosive movements and short, fast sets.",
	"muscular_endurance": "For muscular endurance, work long sets and high-rep metcons without letting technique slip.",
	"recomposition":      "For body recomposition, combine strength with moderate metcons and focus on weekly consistency.",
	"functional_mass":    "For functional mass, use moderate loads, 6–12 reps and controlled rest between sets.",
	"longevity":          "For longevity, balance loading days with lighter sessions and regular mobility.",
	"competition":        "For competition, pay attention to pacing, transitions and the quality of RX movements.",
}

// Portuguese goal keys written by the browser version.
var goalAliases = map[string]string{
	"condicionamento":      "conditioning",
	"forca_absoluta":       "absolute_strength",
	"potencia":             "power",
	"resistencia_muscular": "muscular_endurance",
	"recomposicao":         "recomposition",
	"massa_funcional":      "functional_mass",
	"longevidade":          "longevity",
	"competicao":           "competition",
}

func suggest(sum DaySummary, goal string) string {
	if sum.Entries == 0 || sum.TotalSets == 0 || sum.TotalLoad == 0 {
		return "Very light day. To progress, plan 2–3 main blocks with some load and a simple metcon."
	}

	parts := []string{fmt.Sprintf("Good work, session logged on %s.", sum.Date)}
	switch {
	case sum.Blocks[BlockStrength] > 0 && sum.Blocks[BlockHypertrophy] > 0:
		parts = append(parts, "Balanced session between strength and volume. Keep this combination.")
	case sum.Blocks[BlockStrength] > 0:
		parts = append(parts, "Strength-focused day. Make sure technique holds on the heavy sets.")
	case sum.Blocks[BlockHypertrophy] > 0:
		parts = append(parts, "Good dose of volume. Manage fatigue to keep rep quality high.")
	case sum.Blocks[BlockLight] > 0:
		parts = append(parts, "Lighter session. Useful as active recovery.")
	}

	key := strings.ToLower(strings.TrimSpace(goal))
	if alias, ok := goalAliases[key]; ok {
		key = alias
	}
	if advice, ok := goalAdvice[key]; ok {
		parts = append(parts, advice)
	}
	return strings.Join(parts, " ")
}

// WeekTotal is the load and distance of one Monday-start week.
type WeekTotal struct {
	WeekStart       string  `json:"week_start"`
	TotalLoad       float64 `json:"total_load"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	Entries         int     `json:"entries"`
}

// DefaultWeeks is the number of weeks WeeklyTotals returns when n <= 0.
const DefaultWeeks = 4

// Monday returns the Monday of the week containing date.
func Monday(date string) (string, bool) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return "", false
	}
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset).Format(models.DateLayout), true
}

// WeeklyTotals sums entries per week, newest week first, keeping n weeks.
func WeeklyTotals(entries []models.SessionEntry, n int) []WeekTotal {
	if n <= 0 {
		n = DefaultWeeks
	}
	byWeek := map[string]*WeekTotal{}
	for _, e := range entries {
		wk, ok := Monday(e.Date)
		if !ok {
			continue
		}
		w := byWeek[wk]
		if w == nil {
			w = &WeekTotal{WeekStart: wk}
			byWeek[wk] = w
		}
		w.TotalLoad += e.ComputedLoad
		w.TotalDistanceKm += e.DistanceKm
		w.Entries++
	}

	out := make([]WeekTotal, 0, len(byWeek))
	for _, w := range byWeek {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart > out[j].WeekStart })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// MonthSummary covers one calendar month ("YYYY-MM").
type MonthSummary struct {
	Month           string                   `json:"month"`
	Entries         int                      `json:"entries"`
	TrainingDays    int                      `json:"training_days"`
	TotalLoad       float64                  `json:"total_load"`
	TotalDistanceKm float64                  `json:"total_distance_km"`
	Reservations    int                      `json:"reservations"`
	Attended        int                      `json:"attended"`
	Results         map[models.DayResult]int `json:"results"`
}

// SummarizeMonth computes the summary for month from a state snapshot.
func SummarizeMonth(s models.State, month string) (MonthSummary, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return MonthSummary{}, fmt.Errorf("month %q is not YYYY-MM", month)
	}
	prefix := month + "-"
	sum := MonthSummary{Month: month, Results: map[models.DayResult]int{}}

	days := map[string]bool{}
	for _, e := range s.Entries {
		if !strings.HasPrefix(e.Date, prefix) {
			continue
		}
		sum.Entries++
		sum.TotalLoad += e.ComputedLoad
		sum.TotalDistanceKm += e.DistanceKm
		days[e.Date] = true
	}
	sum.TrainingDays = len(days)

	for _, r := range s.Reservations {
		if strings.HasPrefix(r.Date, prefix) {
			sum.Reservations++
		}
	}
	for _, a := range s.Attendance {
		if strings.HasPrefix(a.Date, prefix) {
			sum.Attended++
		}
	}
	for date, res := range s.DayResults {
		if strings.HasPrefix(date, prefix) {
			sum.Results[res]++
		}
	}
	return sum, nil
}
