package catalog

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/claude/wodlog/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Exercise is a catalog entry.
type Exercise struct {
	ID          string          `yaml:"id" json:"id"`
	Alias       string          `yaml:"alias" json:"alias,omitempty"`
	Description string          `yaml:"description" json:"description,omitempty"`
	Category    models.Category `yaml:"-" json:"category"`
}

// file is the on-disk catalog shape.
type file struct {
	Name          string     `yaml:"name"`
	MetconFormats []string   `yaml:"metcon_formats"`
	Technical     []string   `yaml:"technical"`
	Metcon        []string   `yaml:"metcon"`
	Exercises     []Exercise `yaml:"exercises"`
}

// Catalog is an immutable exercise table plus the category lists used to
// classify exercises that are not in the table.
type Catalog struct {
	name      string
	exercises []Exercise
	byID      map[string]int
	technical map[string]bool
	metcon    map[string]bool
	formats   map[string]string
}

// Load returns one of the embedded catalogs ("v1" or "v2").
func Load(name string) (*Catalog, error) {
	data, err := dataFS.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown catalog %q", name)
	}
	return Parse(data)
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(f.Exercises) == 0 {
		return nil, fmt.Errorf("catalog %q has no exercises", f.Name)
	}

	c := &Catalog{
		name:      f.Name,
		byID:      make(map[string]int, len(f.Exercises)),
		technical: toSet(f.Technical),
		metcon:    toSet(f.Metcon),
		formats:   make(map[string]string, len(f.MetconFormats)),
	}
	for _, name := range f.MetconFormats {
		c.formats[strings.ToLower(name)] = name
	}

	for _, ex := range f.Exercises {
		ex.ID = strings.TrimSpace(ex.ID)
		if ex.ID == "" {
			return nil, fmt.Errorf("catalog %q: exercise without id", f.Name)
		}
		if _, dup := c.byID[ex.ID]; dup {
			continue
		}
		ex.Category = c.Category(ex.ID)
		c.byID[ex.ID] = len(c.exercises)
		c.exercises = append(c.exercises, ex)
	}

	sort.Slice(c.exercises, func(i, j int) bool { return c.exercises[i].ID < c.exercises[j].ID })
	for i, ex := range c.exercises {
		c.byID[ex.ID] = i
	}
	return c, nil
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.name }

// All returns every exercise sorted by id.
func (c *Catalog) All() []Exercise {
	return append([]Exercise(nil), c.exercises...)
}

// Lookup returns the exercise with the given id.
func (c *Catalog) Lookup(id string) (Exercise, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Exercise{}, false
	}
	return c.exercises[i], true
}

// Category classifies any exercise id: technical list first, then metcon
// list, otherwise strength.
func (c *Catalog) Category(id string) models.Category {
	switch {
	case c.technical[id]:
		return models.CategoryTechnical
	case c.metcon[id]:
		return models.CategoryMetcon
	default:
		return models.CategoryStrength
	}
}

// IsTechnical reports whether id is flagged as a technical movement.
func (c *Catalog) IsTechnical(id string) bool {
	return c.technical[id]
}

// IsMetconFormat reports whether the workout format is a known metcon format.
func (c *Catalog) IsMetconFormat(format string) bool {
	_, ok := c.formats[strings.ToLower(strings.TrimSpace(format))]
	return ok
}

// CanonicalFormat returns the catalog spelling of a metcon format, or the
// trimmed input when the format is unknown.
func (c *Catalog) CanonicalFormat(format string) string {
	format = strings.TrimSpace(format)
	if name, ok := c.formats[strings.ToLower(format)]; ok {
		return name
	}
	return format
}

// Label returns "id – alias" when the exercise has an alias, else the id.
func (c *Catalog) Label(id string) string {
	if ex, ok := c.Lookup(id); ok && ex.Alias != "" {
		return ex.ID + " – " + ex.Alias
	}
	return id
}

// Match finds the exercise named in free text. Catalog ids are tried before
// aliases; within each pass the longest contained name wins so that
// "Hang Power Snatch" is not read as "Power Snatch".
func (c *Catalog) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	if id := c.longestMatch(lower, func(ex Exercise) string { return ex.ID }); id != "" {
		return id, true
	}
	if id := c.longestMatch(lower, func(ex Exercise) string { return ex.Alias }); id != "" {
		return id, true
	}
	return "", false
}

func (c *Catalog) longestMatch(lower string, name func(Exercise) string) string {
	best, bestLen := "", 0
	for _, ex := range c.exercises {
		n := strings.ToLower(name(ex))
		if n == "" || len(n) <= bestLen {
			continue
		}
		if strings.Contains(lower, n) {
			best, bestLen = ex.ID, len(n)
		}
	}
	return best
}

// Search returns exercises whose id, alias or description contains filter
// (case-insensitive). An empty filter returns everything.
func (c *Catalog) Search(filter string) []Exercise {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return c.All()
	}
	var out []Exercise
	for _, ex := range c.exercises {
		text := strings.ToLower(ex.ID + " " + ex.Alias + " " + ex.Description)
		if strings.Contains(text, filter) {
			out = append(out, ex)
		}
	}
	return out
}
