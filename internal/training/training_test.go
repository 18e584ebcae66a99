package training

import (
	"math"
	"strings"
	"testing"

	"github.com/claude/wodlog/internal/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestWeightForPercent verifies rounding to one decimal.
func TestWeightForPercent(t *testing.T) {
	cases := []struct {
		max, pct, want float64
	}{
		{100, 80, 80},
		{102.5, 72, 73.8},
		{87, 33, 28.7},
	}
	for _, tc := range cases {
		got, ok := WeightForPercent(tc.max, tc.pct)
		if !ok || !approx(got, tc.want) {
			t.Errorf("WeightForPercent(%v, %v) = %v, %v, want %v", tc.max, tc.pct, got, ok, tc.want)
		}
	}
}

// TestCalculatorRejectsInvalidInput verifies that non-positive and non-finite
// inputs are reported as not computable.
func TestCalculatorRejectsInvalidInput(t *testing.T) {
	bad := []float64{0, -5, math.NaN(), math.Inf(1)}
	for _, v := range bad {
		if _, ok := WeightForPercent(100, v); ok {
			t.Errorf("WeightForPercent(100, %v) should not be computable", v)
		}
		if _, ok := WeightForPercent(v, 80); ok {
			t.Errorf("WeightForPercent(%v, 80) should not be computable", v)
		}
		if _, ok := PercentForWeight(v, 80); ok {
			t.Errorf("PercentForWeight(%v, 80) should not be computable", v)
		}
		if _, ok := PercentForWeight(100, v); ok {
			t.Errorf("PercentForWeight(100, %v) should not be computable", v)
		}
	}
}

// TestPercentRoundTrip verifies the inverse conversion recovers the percent
// within one point.
func TestPercentRoundTrip(t *testing.T) {
	for _, max := range []float64{20, 47.5, 60, 100, 142.5, 250} {
		for pct := 1.0; pct <= 120; pct += 0.5 {
			w, ok := WeightForPercent(max, pct)
			if !ok {
				t.Fatalf("WeightForPercent(%v, %v) not computable", max, pct)
			}
			back, ok := PercentForWeight(max, w)
			if !ok {
				t.Fatalf("PercentForWeight(%v, %v) not computable", max, w)
			}
			if math.Abs(back-pct) > 1 {
				t.Errorf("round trip max=%v pct=%v: got %v", max, pct, back)
			}
		}
	}
}

// TestRatio verifies the stored percent-of-max is nil unless both values are positive.
func TestRatio(t *testing.T) {
	if r := Ratio(80, 100); r == nil || !approx(*r, 0.8) {
		t.Errorf("Ratio(80, 100) = %v, want 0.8", r)
	}
	if r := Ratio(80, 0); r != nil {
		t.Errorf("Ratio(80, 0) = %v, want nil", *r)
	}
	if r := Ratio(0, 100); r != nil {
		t.Errorf("Ratio(0, 100) = %v, want nil", *r)
	}
}

// TestPercentRangeBands checks each objective at its band edges.
func TestPercentRangeBands(t *testing.T) {
	cases := []struct {
		reps int
		obj  Objective
		want Range
	}{
		{2, ObjectiveStrength, Range{0.90, 0.98}},
		{3, ObjectiveStrength, Range{0.88, 0.95}},
		{5, ObjectiveStrength, Range{0.80, 0.90}},
		{6, ObjectiveStrength, Range{0.75, 0.85}},
		{5, ObjectiveHypertrophy, Range{0.75, 0.85}},
		{8, ObjectiveHypertrophy, Range{0.70, 0.80}},
		{12, ObjectiveHypertrophy, Range{0.65, 0.75}},
		{15, ObjectiveHypertrophy, Range{0.55, 0.70}},
		{5, ObjectiveTechnique, Range{0.50, 0.65}},
		{10, ObjectiveTechnique, Range{0.45, 0.60}},
		{11, ObjectiveTechnique, Range{0.40, 0.55}},
		{1, ObjectiveDefault, Range{0.90, 1.0}},
		{3, ObjectiveDefault, Range{0.85, 0.95}},
		{5, ObjectiveDefault, Range{0.80, 0.90}},
		{8, ObjectiveDefault, Range{0.70, 0.80}},
		{12, ObjectiveDefault, Range{0.65, 0.75}},
		{20, ObjectiveDefault, Range{0.50, 0.65}},
	}
	for _, tc := range cases {
		got := PercentRange(tc.reps, tc.obj)
		if got != tc.want {
			t.Errorf("PercentRange(%d, %s) = %+v, want %+v", tc.reps, tc.obj, got, tc.want)
		}
	}
}

// TestAdviseStrength verifies the five-rep strength window on a 100 kg max,
// plain and technical.
func TestAdviseStrength(t *testing.T) {
	a, ok := Advise(100, 5, ObjectiveStrength, false)
	if !ok {
		t.Fatal("expected advice")
	}
	if a.Range != (Range{0.80, 0.90}) {
		t.Errorf("range = %+v, want [0.80, 0.90]", a.Range)
	}
	if a.MinLoadKg != 80 || a.MaxLoadKg != 90 {
		t.Errorf("loads = %v–%v, want 80–90", a.MinLoadKg, a.MaxLoadKg)
	}
	if a.Note != "" {
		t.Errorf("unexpected note %q", a.Note)
	}

	a, ok = Advise(100, 5, ObjectiveStrength, true)
	if !ok {
		t.Fatal("expected advice")
	}
	if a.Range != (Range{0.60, 0.80}) {
		t.Errorf("technical range = %+v, want [0.60, 0.80]", a.Range)
	}
	if a.MinLoadKg != 60 || a.MaxLoadKg != 80 {
		t.Errorf("technical loads = %v–%v, want 60–80", a.MinLoadKg, a.MaxLoadKg)
	}
	if !strings.Contains(a.Note, "5–10%") {
		t.Errorf("note = %q, want form-degradation advice", a.Note)
	}
}

// TestClampTechnical verifies the technique band and the 85% ceiling.
func TestClampTechnical(t *testing.T) {
	got := ClampTechnical(PercentRange(3, ObjectiveTechnique), ObjectiveTechnique)
	if got != (Range{0.50, 0.65}) {
		t.Errorf("technique clamp = %+v, want [0.50, 0.65]", got)
	}
	got = ClampTechnical(Range{0.90, 1.0}, ObjectiveDefault)
	if got.Max > 0.85 || got.Max != 0.80 {
		t.Errorf("default clamp max = %v, want 0.80", got.Max)
	}
	got = ClampTechnical(Range{0.40, 0.55}, ObjectiveTechnique)
	if got.Min != 0.50 || got.Max != 0.55 {
		t.Errorf("low technique clamp = %+v, want [0.50, 0.55]", got)
	}
	got = ClampTechnical(Range{0.30, 0.45}, ObjectiveTechnique)
	if !approx(got.Min, 0.425) || !approx(got.Max, 0.525) {
		t.Errorf("inverted clamp = %+v, want recentred [0.425, 0.525]", got)
	}
}

// TestAdviseInvalid verifies that missing max or reps yields no advice.
func TestAdviseInvalid(t *testing.T) {
	if _, ok := Advise(0, 5, ObjectiveStrength, false); ok {
		t.Error("expected no advice for zero max")
	}
	if _, ok := Advise(100, 0, ObjectiveStrength, false); ok {
		t.Error("expected no advice for zero reps")
	}
}

// TestParseObjective verifies English and Portuguese labels.
func TestParseObjective(t *testing.T) {
	cases := map[string]Objective{
		"forca":       ObjectiveStrength,
		"Strength":    ObjectiveStrength,
		"hipertrofia": ObjectiveHypertrophy,
		"técnica":     ObjectiveTechnique,
		"":            ObjectiveDefault,
	}
	for in, want := range cases {
		got, ok := ParseObjective(in)
		if !ok || got != want {
			t.Errorf("ParseObjective(%q) = %q, %v, want %q", in, got, ok, want)
		}
	}
	if got, ok := ParseObjective("cardio"); ok || got != ObjectiveDefault {
		t.Errorf("ParseObjective(cardio) = %q, %v", got, ok)
	}
}

// TestEpleyImprovement verifies the worked example: 100 kg x 5 against a
// 110 kg max estimates 116.5 kg and is surfaced.
func TestEpleyImprovement(t *testing.T) {
	rule := DefaultImprovementRule()
	est, ok := rule.Estimate(100, 5, 110)
	if est != 116.5 {
		t.Errorf("estimate = %v, want 116.5", est)
	}
	if !ok {
		t.Error("expected improvement to be surfaced")
	}
}

// TestEpleyThresholds verifies each reason an estimate is not surfaced.
func TestEpleyThresholds(t *testing.T) {
	rule := DefaultImprovementRule()
	cases := []struct {
		name   string
		weight float64
		reps   int
		max    float64
	}{
		{"too many reps", 60, 11, 100},
		{"too light", 55, 10, 100},
		{"no current max", 100, 5, 0},
		{"gain under 2%", 100, 1, 102},
		{"gain under 1 kg", 20, 1, 20},
	}
	for _, tc := range cases {
		if _, ok := rule.Estimate(tc.weight, tc.reps, tc.max); ok {
			t.Errorf("%s: expected no improvement", tc.name)
		}
	}
}

// TestRoundTo verifies rounding to the nearest half kilo.
func TestRoundTo(t *testing.T) {
	cases := map[float64]float64{116.67: 116.5, 116.76: 117, 99.24: 99, 99.25: 99.5}
	for in, want := range cases {
		if got := RoundTo(in, 0.5); got != want {
			t.Errorf("RoundTo(%v, 0.5) = %v, want %v", in, got, want)
		}
	}
	if got := RoundTo(3.3, 0); got != 3.3 {
		t.Errorf("RoundTo with zero step = %v", got)
	}
}

// TestProjectGoal verifies classification and level banding.
func TestProjectGoal(t *testing.T) {
	p := ProjectGoal(100, 90, 4, models.LevelBeginner)
	if p.Difficulty != DifficultyReached {
		t.Errorf("below max: difficulty = %q", p.Difficulty)
	}
	if !strings.Contains(p.Message, "within current capability") {
		t.Errorf("below max: message = %q", p.Message)
	}

	p = ProjectGoal(100, 110, 0, models.LevelBeginner)
	if p.Difficulty != DifficultyUnscheduled {
		t.Errorf("no weeks: difficulty = %q", p.Difficulty)
	}

	cases := []struct {
		target float64
		weeks  int
		want   Difficulty
	}{
		{108, 10, DifficultyRealistic},
		{110, 6, DifficultyDemanding},
		{115, 10, DifficultyDemanding},
		{130, 5, DifficultyAggressive},
	}
	for _, tc := range cases {
		p := ProjectGoal(100, tc.target, tc.weeks, models.LevelIntermediate)
		if p.Difficulty != tc.want {
			t.Errorf("target %v in %d weeks: difficulty = %q, want %q", tc.target, tc.weeks, p.Difficulty, tc.want)
		}
		if p.Prescription != "4–5 sets of 3–6 reps at 75–85%" {
			t.Errorf("intermediate prescription = %q", p.Prescription)
		}
	}

	p = ProjectGoal(100, 110, 10, "")
	if p.Prescription != "3–5 sets of 3–6 reps at 75–90%" {
		t.Errorf("default prescription = %q", p.Prescription)
	}
}
