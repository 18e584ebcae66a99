package models

import "strings"

// categoryMap maps lowercased category labels, including the Portuguese labels
// written by the browser version of the log, to canonical categories.
var categoryMap = map[string]Category{
	"strength":  CategoryStrength,
	"technical": CategoryTechnical,
	"metcon":    CategoryMetcon,

	// Portuguese
	"força":   CategoryStrength,
	"forca":   CategoryStrength,
	"técnica": CategoryTechnical,
	"tecnica": CategoryTechnical,
}

// NormalizeCategory maps a category label to its canonical form.
// Returns the strength category and false for unknown labels.
func NormalizeCategory(label string) (Category, bool) {
	c, ok := categoryMap[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return CategoryStrength, false
	}
	return c, true
}

var levelMap = map[string]Level{
	"beginner":     LevelBeginner,
	"intermediate": LevelIntermediate,
	"advanced":     LevelAdvanced,

	// Portuguese
	"iniciante":  LevelBeginner,
	"intermedio": LevelIntermediate,
	"intermédio": LevelIntermediate,
	"avancado":   LevelAdvanced,
	"avançado":   LevelAdvanced,
}

// NormalizeLevel maps an experience level label to its canonical form.
// Unknown or empty labels return "" and false.
func NormalizeLevel(label string) (Level, bool) {
	l, ok := levelMap[strings.ToLower(strings.TrimSpace(label))]
	return l, ok
}

var dayResultMap = map[string]DayResult{
	"rx":         DayResultRx,
	"scaled":     DayResultScaled,
	"incomplete": DayResultIncomplete,

	// Portuguese
	"adaptado":   DayResultScaled,
	"incompleto": DayResultIncomplete,
}

// NormalizeDayResult maps a day result label to its canonical form.
func NormalizeDayResult(label string) (DayResult, bool) {
	r, ok := dayResultMap[strings.ToLower(strings.TrimSpace(label))]
	return r, ok
}
