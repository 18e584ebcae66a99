package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/storage"
)

// ReservationInput holds the fields of a new class booking.
type ReservationInput struct {
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	ClassType string   `json:"classType"`
	Note      string   `json:"note"`
	Enrolled  []string `json:"enrolled"`
}

// Reservations returns every booking, newest first.
func (t *Tracker) Reservations() []models.Reservation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Reservation, len(t.state.Reservations))
	for i, r := range t.state.Reservations {
		r.Enrolled = append([]string(nil), r.Enrolled...)
		out[i] = r
	}
	return out
}

// Attendance returns every attendance mark.
func (t *Tracker) Attendance() []models.Attendance {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Attendance(nil), t.state.Attendance...)
}

// AddReservation books a class. Date, time and class type are required.
func (t *Tracker) AddReservation(ctx context.Context, in ReservationInput) (models.Reservation, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.ClassType = strings.TrimSpace(in.ClassType)
	if in.Date == "" || in.Time == "" || in.ClassType == "" {
		return models.Reservation{}, fmt.Errorf("%w: date, time and class type are required", ErrInvalidEntry)
	}
	if _, err := time.Parse(models.DateLayout, in.Date); err != nil {
		return models.Reservation{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, in.Date)
	}
	if _, err := time.Parse("15:04", in.Time); err != nil {
		return models.Reservation{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidEntry, in.Time)
	}

	r := models.Reservation{
		ID:        uuid.NewString(),
		Date:      in.Date,
		Time:      in.Time,
		ClassType: in.ClassType,
		Note:      strings.TrimSpace(in.Note),
		Enrolled:  append([]string(nil), in.Enrolled...),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Reservations = append([]models.Reservation{r}, t.state.Reservations...)
	return r, t.persist(ctx, "reservation "+r.Date+" "+r.Time, storage.KeyReservations)
}

// DeleteReservation removes a booking and its attendance mark.
func (t *Tracker) DeleteReservation(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.reservationIndex(id)
	if idx < 0 {
		return fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	t.state.Reservations = append(t.state.Reservations[:idx:idx], t.state.Reservations[idx+1:]...)

	kept := t.state.Attendance[:0:0]
	for _, a := range t.state.Attendance {
		if a.ReservationID != id {
			kept = append(kept, a)
		}
	}
	t.state.Attendance = kept
	return t.persist(ctx, "reservation deleted", storage.KeyReservations, storage.KeyAttendance)
}

// MarkAttendance records that the booked class was attended. Marking the
// same reservation twice returns the existing mark with created=false.
func (t *Tracker) MarkAttendance(ctx context.Context, id string) (a models.Attendance, created bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.reservationIndex(id)
	if idx < 0 {
		return models.Attendance{}, false, fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	for _, existing := range t.state.Attendance {
		if existing.ReservationID == id {
			return existing, false, nil
		}
	}
	r := t.state.Reservations[idx]
	a = models.Attendance{ReservationID: id, Date: r.Date, Time: r.Time}
	t.state.Attendance = append(t.state.Attendance, a)
	return a, true, t.persist(ctx, "attendance "+r.Date, storage.KeyAttendance)
}

func (t *Tracker) reservationIndex(id string) int {
	for i, r := range t.state.Reservations {
		if r.ID == id {
			return i
		}
	}
	return -1
}
