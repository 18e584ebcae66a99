package catalog

import (
	"testing"

	"github.com/claude/wodlog/internal/models"
)

func mustLoad(t *testing.T, name string) *Catalog {
	t.Helper()
	c, err := Load(name)
	if err != nil {
		t.Fatalf("Load(%q): %v", name, err)
	}
	return c
}

// TestLoadEmbedded verifies both embedded catalogs load and are sorted by id.
func TestLoadEmbedded(t *testing.T) {
	for _, name := range []string{"v1", "v2"} {
		c := mustLoad(t, name)
		if c.Name() != name {
			t.Errorf("Name() = %q, want %q", c.Name(), name)
		}
		all := c.All()
		if len(all) == 0 {
			t.Fatalf("%s: empty catalog", name)
		}
		for i := 1; i < len(all); i++ {
			if all[i-1].ID >= all[i].ID {
				t.Errorf("%s: not sorted at %d: %q >= %q", name, i, all[i-1].ID, all[i].ID)
			}
		}
	}
}

// TestLoadUnknown verifies an unknown catalog name is an error.
func TestLoadUnknown(t *testing.T) {
	if _, err := Load("v9"); err == nil {
		t.Error("expected error for unknown catalog")
	}
}

// TestCategoryFallback verifies technical list membership wins over metcon,
// and that anything else is strength.
func TestCategoryFallback(t *testing.T) {
	c := mustLoad(t, "v1")
	cases := map[string]models.Category{
		"Back Squat":       models.CategoryTechnical,
		"Kettlebell Swing": models.CategoryTechnical, // on both lists
		"Burpee":           models.CategoryMetcon,
		"Running":          models.CategoryMetcon,
		"Shrug":            models.CategoryStrength,
		"Not An Exercise":  models.CategoryStrength,
	}
	for id, want := range cases {
		if got := c.Category(id); got != want {
			t.Errorf("Category(%q) = %q, want %q", id, got, want)
		}
	}
	ex, ok := c.Lookup("Burpee")
	if !ok {
		t.Fatal("Burpee missing from v1")
	}
	if ex.Category != models.CategoryMetcon {
		t.Errorf("Lookup(Burpee).Category = %q, want metcon", ex.Category)
	}
}

// TestMetconFormats verifies format detection is case-insensitive and
// canonicalised to the catalog spelling.
func TestMetconFormats(t *testing.T) {
	c := mustLoad(t, "v1")
	for _, f := range []string{"AMRAP", "amrap", "For Time", "for time", " EMOM "} {
		if !c.IsMetconFormat(f) {
			t.Errorf("IsMetconFormat(%q) = false", f)
		}
	}
	if c.IsMetconFormat("Strength") {
		t.Error("Strength is not a metcon format")
	}
	if got := c.CanonicalFormat("for time"); got != "For Time" {
		t.Errorf("CanonicalFormat = %q, want For Time", got)
	}
}

// TestMatchLongestName verifies that the most specific exercise name wins.
func TestMatchLongestName(t *testing.T) {
	c := mustLoad(t, "v1")
	cases := map[string]string{
		"Hang Power Snatch 5x2 @ 70%": "Hang Power Snatch",
		"power snatch 3x3":            "Power Snatch",
		"Sumo Deadlift 5x5":           "Sumo Deadlift",
		"Rowing 500m":                 "Rowing",
	}
	for text, want := range cases {
		got, ok := c.Match(text)
		if !ok || got != want {
			t.Errorf("Match(%q) = %q, %v, want %q", text, got, ok, want)
		}
	}
}

// TestMatchAlias verifies that the Portuguese alias is used when no id matches.
func TestMatchAlias(t *testing.T) {
	c := mustLoad(t, "v1")
	got, ok := c.Match("peso morto 5x3 100kg")
	if !ok || got != "Deadlift" {
		t.Errorf("Match(peso morto) = %q, %v, want Deadlift", got, ok)
	}
	if _, ok := c.Match("descanso 2 minutos"); ok {
		t.Error("expected no match for rest line")
	}
}

// TestSearch verifies filtering across id, alias and description.
func TestSearch(t *testing.T) {
	c := mustLoad(t, "v2")
	got := c.Search("agachamento")
	if len(got) != 2 {
		t.Fatalf("Search(agachamento) = %d results, want 2", len(got))
	}
	if len(c.Search("")) != len(c.All()) {
		t.Error("empty filter should return the full catalog")
	}
}

// TestLabel verifies the bilingual label format.
func TestLabel(t *testing.T) {
	c := mustLoad(t, "v2")
	if got := c.Label("Deadlift"); got != "Deadlift – Peso morto" {
		t.Errorf("Label(Deadlift) = %q", got)
	}
	if got := c.Label("Mystery"); got != "Mystery" {
		t.Errorf("Label(Mystery) = %q", got)
	}
}

// TestParseRejectsEmpty verifies that a catalog without exercises is rejected.
func TestParseRejectsEmpty(t *testing.T) {
	if _, err := Parse([]byte("name: empty\n")); err == nil {
		t.Error("expected error for empty catalog")
	}
}
