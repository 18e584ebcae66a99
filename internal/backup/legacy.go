package backup

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/claude/wodlog/internal/models"
)

// The browser version of the log exported its state under Portuguese keys
// with numbers that were sometimes strings, NaN-turned-null or empty.

type legacyDocument struct {
	Profile      legacyProfile                   `json:"profile"`
	DataRM       map[string]looseFloat           `json:"dataRm"`
	RMHistory    map[string][]legacyHistoryEntry `json:"rmHistory"`
	Treinos      []legacyEntry                   `json:"treinos"`
	Reservas     []legacyReservation             `json:"reservas"`
	Presencas    []legacyAttendance              `json:"presencas"`
	WodResultado map[string]string               `json:"wodResultados"`
}

type legacyProfile struct {
	Nome     string     `json:"nome"`
	Nivel    string     `json:"nivel"`
	Sexo     string     `json:"sexo"`
	Idade    looseFloat `json:"idade"`
	Altura   looseFloat `json:"altura"`
	Peso     looseFloat `json:"peso"`
	Objetivo string     `json:"objetivo"`
}

type legacyHistoryEntry struct {
	Date  string     `json:"date"`
	Value looseFloat `json:"value"`
}

type legacyEntry struct {
	Date        string      `json:"date"`
	Parte       string      `json:"parte"`
	Formato     string      `json:"formato"`
	Ex          string      `json:"ex"`
	Tipo        string      `json:"tipo"`
	Rondas      looseFloat  `json:"rondas"`
	Reps        looseFloat  `json:"reps"`
	Peso        looseFloat  `json:"peso"`
	Tempo       looseText   `json:"tempo"`
	DistanciaKm looseFloat  `json:"distanciaKm"`
	Carga       looseFloat  `json:"carga"`
	Perc1RM     *looseFloat `json:"perc1rm"`
}

type legacyReservation struct {
	ID        string   `json:"id"`
	Data      string   `json:"data"`
	Hora      string   `json:"hora"`
	Tipo      string   `json:"tipo"`
	Nota      string   `json:"nota"`
	Inscritos []string `json:"inscritos"`
}

type legacyAttendance struct {
	ReservaID string `json:"reservaId"`
	Data      string `json:"data"`
	Hora      string `json:"hora"`
}

// looseFloat accepts a JSON number, a numeric string (comma or dot decimal)
// or null. Anything unparseable becomes zero.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = 0
		return nil
	}
	*f = looseFloat(v)
	return nil
}

// looseText accepts a JSON string or number.
type looseText string

func (t *looseText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = looseText(strings.TrimSpace(s))
		return nil
	}
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*t = ""
		return nil
	}
	*t = looseText(raw)
	return nil
}

func decodeLegacy(data []byte) (models.State, error) {
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.State{}, fmt.Errorf("%w: legacy document: %v", ErrInvalidFormat, err)
	}

	s := models.NewState()
	level, _ := models.NormalizeLevel(doc.Profile.Nivel)
	s.Profile = models.Profile{
		Name:         strings.TrimSpace(doc.Profile.Nome),
		Level:        level,
		Sex:          doc.Profile.Sexo,
		Age:          int(doc.Profile.Idade),
		HeightCm:     int(math.Round(float64(doc.Profile.Altura))),
		BodyWeightKg: float64(doc.Profile.Peso),
		Goal:         doc.Profile.Objetivo,
	}

	for ex, v := range doc.DataRM {
		if ex != "" && v > 0 {
			s.OneRepMax[ex] = float64(v)
		}
	}
	for ex, hist := range doc.RMHistory {
		for _, h := range hist {
			if h.Value > 0 {
				s.History[ex] = append(s.History[ex], models.HistoryEntry{Date: h.Date, Value: float64(h.Value)})
			}
		}
	}

	for _, t := range doc.Treinos {
		s.Entries = append(s.Entries, t.toEntry())
	}

	for _, r := range doc.Reservas {
		s.Reservations = append(s.Reservations, models.Reservation{
			ID:        r.ID,
			Date:      r.Data,
			Time:      r.Hora,
			ClassType: r.Tipo,
			Note:      r.Nota,
			Enrolled:  r.Inscritos,
		})
	}
	for _, p := range doc.Presencas {
		s.Attendance = append(s.Attendance, models.Attendance{
			ReservationID: p.ReservaID,
			Date:          p.Data,
			Time:          p.Hora,
		})
	}
	for date, label := range doc.WodResultado {
		if r, ok := models.NormalizeDayResult(label); ok {
			s.DayResults[date] = r
		}
	}
	return s, nil
}

func (t legacyEntry) toEntry() models.SessionEntry {
	category, _ := models.NormalizeCategory(t.Tipo)
	sets := int(t.Rondas)
	if sets <= 0 {
		sets = 1
	}
	e := models.SessionEntry{
		Date:        t.Date,
		Part:        t.Parte,
		Format:      t.Formato,
		ExerciseID:  strings.TrimSpace(t.Ex),
		Category:    category,
		Sets:        sets,
		Reps:        int(t.Reps),
		WeightKg:    float64(t.Peso),
		ElapsedTime: string(t.Tempo),
		DistanceKm:  float64(t.DistanciaKm),
	}
	// carga and perc1rm are derived; Decode recomputes them.
	return e
}
