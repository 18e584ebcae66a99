// Package board turns workout board text, typically OCR output from a photo
// of the whiteboard, into session entries.
package board

import (
	"bufio"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/wodlog/internal/catalog"
	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/training"
)

// ErrNoEntries is returned when no line of a board names a known exercise.
var ErrNoEntries = errors.New("no known exercises found on the board")

var (
	// seriesRe matches: 5x5, 4 x 10, 3×8
	seriesRe = regexp.MustCompile(`(?i)(\d+)\s*[x×]\s*(\d+)`)

	// repsRe matches: 12 reps, 10 repetições
	repsRe = regexp.MustCompile(`(?i)(\d+)\s*(?:reps|repetições|repeticoes|rep)`)

	// percentRe matches: 75%, 80 %
	percentRe = regexp.MustCompile(`(\d{1,3})\s*%`)

	// weightRe matches: 100 kg, 70,5kg, 60 quilos
	weightRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:kg|kgs|quilo|quilos)\b`)

	// formatRe matches the workout formats written on boards.
	formatRe = regexp.MustCompile(`(?i)\b(AMRAP|EMOM|For\s+Time|Chipper)\b`)

	// distanceRe matches: 5 km, 500m, 1,5 quilometros
	distanceRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(km|kilometros|quilometros|m)\b`)

	// partWordRe matches: Parte A
	partWordRe = regexp.MustCompile(`(?i)^parte\s+([A-D])\b[\s).:\-]*`)

	// partLabelRe matches: A) A. A: A-
	partLabelRe = regexp.MustCompile(`(?i)^([A-D])[).:\-]\s*`)
)

// Parser matches board lines against an exercise catalog. Percentages are
// resolved against the given one-rep maxes.
type Parser struct {
	catalog *catalog.Catalog
	maxes   map[string]float64
}

// NewParser returns a parser over cat. maxes may be nil.
func NewParser(cat *catalog.Catalog, maxes map[string]float64) *Parser {
	return &Parser{catalog: cat, maxes: maxes}
}

// ParseLine builds an entry from one board line. It returns false when the
// line names no known exercise.
//
// Sets and reps come from "SxR" or "N reps" (one set of one rep otherwise).
// A percentage is only used when the exercise has a one-rep max; otherwise a
// weight in kg is looked for. Metres are converted to kilometres.
func (p *Parser) ParseLine(text, date, part string) (models.SessionEntry, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.SessionEntry{}, false
	}
	exercise, ok := p.catalog.Match(text)
	if !ok {
		return models.SessionEntry{}, false
	}

	e := models.SessionEntry{
		Date:       date,
		Part:       part,
		ExerciseID: exercise,
		Category:   p.catalog.Category(exercise),
		Sets:       1,
		Reps:       1,
	}

	if m := seriesRe.FindStringSubmatch(text); m != nil {
		e.Sets = atoiOr(m[1], 1)
		e.Reps = atoiOr(m[2], 1)
	} else if m := repsRe.FindStringSubmatch(text); m != nil {
		e.Reps = atoiOr(m[1], 1)
	}

	oneRM := p.maxes[exercise]
	if m := percentRe.FindStringSubmatch(text); m != nil && oneRM > 0 {
		pct, _ := strconv.ParseFloat(m[1], 64)
		if w, ok := training.WeightForPercent(oneRM, pct); ok {
			e.WeightKg = w
			ratio := pct / 100
			e.PercentOfMax = &ratio
		}
	} else if m := weightRe.FindStringSubmatch(text); m != nil {
		e.WeightKg = parseDecimal(m[1])
		e.PercentOfMax = training.Ratio(e.WeightKg, oneRM)
	}

	if m := formatRe.FindStringSubmatch(text); m != nil {
		format := strings.Join(strings.Fields(m[1]), " ")
		e.Format = p.catalog.CanonicalFormat(format)
		if p.catalog.IsMetconFormat(format) {
			e.Category = models.CategoryMetcon
		}
	}

	if m := distanceRe.FindStringSubmatch(text); m != nil {
		d := parseDecimal(m[1])
		if strings.EqualFold(m[2], "m") {
			d /= 1000
		}
		e.DistanceKm = d
	}

	e.ComputedLoad = e.WeightKg * float64(e.Reps) * float64(e.Sets)
	return e, true
}

// Board is the outcome of parsing a whole board.
type Board struct {
	Entries []models.SessionEntry `json:"entries"`
	Lines   int                   `json:"lines"`
	Headers int                   `json:"headers"`
	Skipped int                   `json:"skipped"`
}

// ParseBoard parses every line of text. Part headers ("Parte A", "A)",
// "A.", "A:", "A-") set the part for the following lines; text after a
// short header on the same line is parsed as well. Unmatched lines are
// counted, and a board with no match at all returns ErrNoEntries.
func (p *Parser) ParseBoard(text, date string) (Board, error) {
	var b Board
	part := ""
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		b.Lines++

		if label, rest, ok := splitPart(line); ok {
			b.Headers++
			part = label
			if rest == "" {
				continue
			}
			line = rest
		}

		e, ok := p.ParseLine(line, date, part)
		if !ok {
			b.Skipped++
			continue
		}
		b.Entries = append(b.Entries, e)
	}
	if err := scanner.Err(); err != nil {
		return b, err
	}
	if len(b.Entries) == 0 {
		return b, ErrNoEntries
	}
	return b, nil
}

// splitPart recognises a part header and returns its upper-case label and
// whatever follows it on the line.
func splitPart(line string) (label, rest string, ok bool) {
	for _, re := range []*regexp.Regexp{partWordRe, partLabelRe} {
		if loc := re.FindStringSubmatchIndex(line); loc != nil {
			label = strings.ToUpper(line[loc[2]:loc[3]])
			return label, strings.TrimSpace(line[loc[1]:]), true
		}
	}
	return "", "", false
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// parseDecimal accepts comma or dot decimals: "70,5" -> 70.5
func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	return f
}
