// Package aggregate derives rankings and summaries from a state snapshot.
// Functions here are pure: they never mutate their input.
package aggregate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// clockRe matches mm:ss or hh:mm:ss anywhere in the text.
	clockRe = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?`)

	// bareMinutesRe matches a plain number of minutes, e.g. "20" or "12.5".
	bareMinutesRe = regexp.MustCompile(`^\d+(\.\d+)?$`)

	// unitRe matches "20'", "20 min", "2h".
	unitRe = regexp.MustCompile(`(\d+)\s*(horas|hora|hrs|hr|h|minutos|minuto|mins|min|m|')`)
)

// ParseElapsed converts free-form elapsed time text to seconds.
// Accepted forms: "h:mm:ss" or "m:ss" anywhere in the text, a bare number of
// minutes, or a number followed by an hour or minute unit.
func ParseElapsed(text string) (int, bool) {
	clean := strings.ToLower(strings.TrimSpace(text))
	if clean == "" {
		return 0, false
	}

	if m := clockRe.FindStringSubmatch(clean); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if m[3] != "" {
			c, _ := strconv.Atoi(m[3])
			if b >= 60 || c >= 60 {
				return 0, false
			}
			return a*3600 + b*60 + c, true
		}
		if a >= 60 || b >= 60 {
			return 0, false
		}
		return a*60 + b, true
	}

	if bareMinutesRe.MatchString(clean) {
		v, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return 0, false
		}
		return int(v*60 + 0.5), true
	}

	if m := unitRe.FindStringSubmatch(clean); m != nil {
		v, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "h", "hr", "hrs", "hora", "horas":
			return v * 3600, true
		default:
			return v * 60, true
		}
	}
	return 0, false
}

// FormatElapsed renders seconds as "h:mm:ss", or "m:ss" under an hour.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
