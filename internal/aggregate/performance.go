package aggregate

import (
	"math"
	"sort"

	"github.com/claude/wodlog/internal/models"
)

// DefaultTopN is the ranking length used when the caller passes n <= 0.
const DefaultTopN = 10

// DayTotal aggregates the entries of one date.
type DayTotal struct {
	Date            string  `json:"date"`
	TotalLoad       float64 `json:"total_load"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	Entries         int     `json:"entries"`
	BestMetconSecs  *int    `json:"best_metcon_seconds,omitempty"`
	BestMetconTime  string  `json:"best_metcon_time,omitempty"`
}

// MaxRank is one exercise in the one-rep-max ranking.
type MaxRank struct {
	ExerciseID      string   `json:"exercise_id"`
	Value           float64  `json:"value"`
	BodyWeightRatio *float64 `json:"body_weight_ratio,omitempty"`
}

// MetconBest is the fastest logged time for one metcon exercise.
type MetconBest struct {
	ExerciseID  string  `json:"exercise_id"`
	Seconds     int     `json:"seconds"`
	ElapsedTime string  `json:"elapsed_time"`
	Date        string  `json:"date"`
	Load        float64 `json:"load"`
	DistanceKm  float64 `json:"distance_km"`
}

// Performance bundles the three rankings.
type Performance struct {
	Days    []DayTotal   `json:"days"`
	Maxes   []MaxRank    `json:"maxes"`
	Metcons []MetconBest `json:"metcons"`
}

func topN(n int) int {
	if n <= 0 {
		return DefaultTopN
	}
	return n
}

func metconSeconds(e models.SessionEntry) (int, bool) {
	if e.Category != models.CategoryMetcon || e.ElapsedTime == "" {
		return 0, false
	}
	return ParseElapsed(e.ElapsedTime)
}

// DayTotals groups entries by date. Days are returned in the order first seen.
func DayTotals(entries []models.SessionEntry) []DayTotal {
	index := map[string]int{}
	var days []DayTotal
	for _, e := range entries {
		if e.Date == "" {
			continue
		}
		i, ok := index[e.Date]
		if !ok {
			i = len(days)
			index[e.Date] = i
			days = append(days, DayTotal{Date: e.Date})
		}
		d := &days[i]
		d.TotalLoad += e.ComputedLoad
		d.TotalDistanceKm += e.DistanceKm
		d.Entries++
		if secs, ok := metconSeconds(e); ok && (d.BestMetconSecs == nil || secs < *d.BestMetconSecs) {
			d.BestMetconSecs = &secs
			d.BestMetconTime = FormatElapsed(secs)
		}
	}
	return days
}

// DayRanking returns the n days with the highest total load.
func DayRanking(entries []models.SessionEntry, n int) []DayTotal {
	days := DayTotals(entries)
	sort.SliceStable(days, func(i, j int) bool { return days[i].TotalLoad > days[j].TotalLoad })
	if len(days) > topN(n) {
		days = days[:topN(n)]
	}
	return days
}

// MaxRanking sorts exercises by current one-rep max, descending. When
// bodyWeightKg is positive each value is also expressed as a multiple of it.
func MaxRanking(maxes map[string]float64, bodyWeightKg float64, n int) []MaxRank {
	out := make([]MaxRank, 0, len(maxes))
	for id, v := range maxes {
		r := MaxRank{ExerciseID: id, Value: v}
		if bodyWeightKg > 0 {
			ratio := math.Round(v/bodyWeightKg*100) / 100
			r.BodyWeightRatio = &ratio
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].ExerciseID < out[j].ExerciseID
	})
	if len(out) > topN(n) {
		out = out[:topN(n)]
	}
	return out
}

// MetconBests keeps the fastest parseable time per metcon exercise, fastest first.
func MetconBests(entries []models.SessionEntry, n int) []MetconBest {
	best := map[string]MetconBest{}
	for _, e := range entries {
		secs, ok := metconSeconds(e)
		if !ok {
			continue
		}
		key := e.ExerciseID
		if key == "" {
			key = "Metcon"
		}
		if cur, seen := best[key]; seen && cur.Seconds <= secs {
			continue
		}
		best[key] = MetconBest{
			ExerciseID:  key,
			Seconds:     secs,
			ElapsedTime: e.ElapsedTime,
			Date:        e.Date,
			Load:        e.ComputedLoad,
			DistanceKm:  e.DistanceKm,
		}
	}

	out := make([]MetconBest, 0, len(best))
	for _, b := range best {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds < out[j].Seconds
		}
		return out[i].ExerciseID < out[j].ExerciseID
	})
	if len(out) > topN(n) {
		out = out[:topN(n)]
	}
	return out
}

// BuildPerformance computes all three rankings from a state snapshot.
func BuildPerformance(s models.State, n int) Performance {
	return Performance{
		Days:    DayRanking(s.Entries, n),
		Maxes:   MaxRanking(s.OneRepMax, s.Profile.BodyWeightKg, n),
		Metcons: MetconBests(s.Entries, n),
	}
}
