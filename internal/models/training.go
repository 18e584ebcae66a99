package models

import "time"

// DateLayout is the calendar-day format used for every stored date.
const DateLayout = "2006-01-02"

// Category classifies an exercise or a logged entry.
type Category string

const (
	CategoryStrength  Category = "strength"
	CategoryTechnical Category = "technical"
	CategoryMetcon    Category = "metcon"
)

// Level is the self-reported experience level used for goal projections.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Profile is the athlete record.
type Profile struct {
	Name         string  `json:"name,omitempty"`
	Level        Level   `json:"level,omitempty"`
	Sex          string  `json:"sex,omitempty"`
	Age          int     `json:"age,omitempty"`
	HeightCm     int     `json:"heightCm,omitempty"`
	BodyWeightKg float64 `json:"bodyWeightKg,omitempty"`
	Goal         string  `json:"goal,omitempty"`
}

// HistoryEntry is a superseded one-rep-max value and the day it was replaced.
type HistoryEntry struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// SessionEntry is one logged block of a workout-of-the-day.
type SessionEntry struct {
	Date         string   `json:"date"`
	Part         string   `json:"part,omitempty"`
	Format       string   `json:"format,omitempty"`
	ExerciseID   string   `json:"exerciseId"`
	Category     Category `json:"category"`
	Sets         int      `json:"sets"`
	Reps         int      `json:"reps"`
	WeightKg     float64  `json:"weight"`
	ElapsedTime  string   `json:"elapsedTime,omitempty"`
	DistanceKm   float64  `json:"distanceKm"`
	ComputedLoad float64  `json:"computedLoad"`
	PercentOfMax *float64 `json:"percentOfMax"`
}

// DayResult is the overall outcome recorded for a day's workout.
type DayResult string

const (
	DayResultRx         DayResult = "rx"
	DayResultScaled     DayResult = "scaled"
	DayResultIncomplete DayResult = "incomplete"
)

// Valid reports whether r is a known result.
func (r DayResult) Valid() bool {
	switch r {
	case DayResultRx, DayResultScaled, DayResultIncomplete:
		return true
	}
	return false
}

// Reservation is a booked class.
type Reservation struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	ClassType string   `json:"classType"`
	Note      string   `json:"note,omitempty"`
	Enrolled  []string `json:"enrolled,omitempty"`
}

// Attendance marks a reservation as attended.
type Attendance struct {
	ReservationID string `json:"reservationId"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

// BackupMeta tracks export and change timestamps.
type BackupMeta struct {
	LastBackup *time.Time `json:"lastBackup,omitempty"`
	LastChange *time.Time `json:"lastChange,omitempty"`
	LastEvent  string     `json:"lastEvent,omitempty"`
}

// State is the complete persisted application state.
type State struct {
	Profile      Profile                   `json:"profile"`
	OneRepMax    map[string]float64        `json:"oneRepMax"`
	History      map[string][]HistoryEntry `json:"oneRepMaxHistory"`
	Entries      []SessionEntry            `json:"sessionEntries"`
	DayResults   map[string]DayResult      `json:"dayResults"`
	Reservations []Reservation             `json:"reservations"`
	Attendance   []Attendance              `json:"attendance"`
}

// NewState returns an empty state with all maps allocated.
func NewState() State {
	return State{
		OneRepMax:  map[string]float64{},
		History:    map[string][]HistoryEntry{},
		DayResults: map[string]DayResult{},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := NewState()
	out.Profile = s.Profile
	for k, v := range s.OneRepMax {
		out.OneRepMax[k] = v
	}
	for k, v := range s.History {
		out.History[k] = append([]HistoryEntry(nil), v...)
	}
	for k, v := range s.DayResults {
		out.DayResults[k] = v
	}
	out.Entries = make([]SessionEntry, len(s.Entries))
	for i, e := range s.Entries {
		out.Entries[i] = e.Clone()
	}
	out.Reservations = make([]Reservation, len(s.Reservations))
	for i, r := range s.Reservations {
		r.Enrolled = append([]string(nil), r.Enrolled...)
		out.Reservations[i] = r
	}
	out.Attendance = append([]Attendance(nil), s.Attendance...)
	return out
}

// Clone returns a copy of e that shares no pointers with it.
func (e SessionEntry) Clone() SessionEntry {
	if e.PercentOfMax != nil {
		p := *e.PercentOfMax
		e.PercentOfMax = &p
	}
	return e
}
