// Package training holds the stateless load calculations: percentage of
// one-rep-max conversions, rep-range advice and 1RM estimation.
package training

import "math"

// WeightForPercent returns oneRepMax * percent / 100 rounded to one decimal.
// ok is false when either input is non-positive or not a finite number.
func WeightForPercent(oneRepMax, percent float64) (float64, bool) {
	if !positive(oneRepMax) || !positive(percent) {
		return 0, false
	}
	return round1(oneRepMax * percent / 100), true
}

// PercentForWeight returns weight as a whole-number percentage of oneRepMax.
// ok is false when either input is non-positive or not a finite number.
func PercentForWeight(oneRepMax, weight float64) (float64, bool) {
	if !positive(oneRepMax) || !positive(weight) {
		return 0, false
	}
	return math.Round(weight / oneRepMax * 100), true
}

// Ratio returns weight / oneRepMax, or nil when either is not positive.
// This is the value stored as an entry's percent of max.
func Ratio(weight, oneRepMax float64) *float64 {
	if !positive(weight) || !positive(oneRepMax) {
		return nil
	}
	r := weight / oneRepMax
	return &r
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
