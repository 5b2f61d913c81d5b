// Package reservation is the three-step seat booking flow: contact details,
// guests and preferences, then a summary that submits the booking.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/model"
)

// Step is a position in the flow.
type Step int

const (
	StepContact Step = iota + 1
	StepGuests
	StepSummary
)

// Label is the progress indicator caption.
func (s Step) Label() string {
	switch s {
	case StepContact:
		return "Contact"
	case StepGuests:
		return "Guests"
	case StepSummary:
		return "Confirm"
	}
	return ""
}

// Steps lists every step in order.
var Steps = []Step{StepContact, StepGuests, StepSummary}

var (
	ErrInvalidStep = errors.New("invalid step transition")
	ErrFullyBooked = errors.New("dinner is fully booked")
)

// PreferenceOptions are the dietary checkboxes of the guests step.
var PreferenceOptions = []string{"vegetarian", "vegan", "gluten-free", "dairy-free", "nut-allergy"}

var emailRE = regexp.MustCompile(`^([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*|".+")@(\[[0-9]{1,3}(\.[0-9]{1,3}){3}\]|([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,})$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRE.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// Poster stores reservations.
type Poster interface {
	CreateReservation(ctx context.Context, r model.Reservation) (*model.Reservation, error)
}

// Flow is the state of one booking in progress.
type Flow struct {
	DinnerID     model.ID
	Step         Step
	MaxSeats     int
	PricePerSeat float64
	GuestName    string
	Email        string
	Phone        string
	Seats        int
	Preferences  []string
	Notes        string
}

// Open starts a flow on the contact step. Remaining capacity is computed
// here once and bounds the seat count for the rest of the flow.
func Open(d model.Dinner, reservations []model.Reservation) (Flow, error) {
	remaining := model.Remaining(d.MaxGuests, model.ReservedSeats(reservations))
	if remaining == 0 {
		return Flow{}, ErrFullyBooked
	}
	return Flow{
		DinnerID:     d.ID,
		Step:         StepContact,
		MaxSeats:     remaining,
		PricePerSeat: d.Price,
		Seats:        1,
	}, nil
}

// Validate checks the fields gating the current step.
func (f *Flow) Validate() error {
	if f.Step != StepContact {
		return nil
	}
	return f.validateContact()
}

func (f *Flow) validateContact() error {
	fields := map[string]string{}
	if strings.TrimSpace(f.GuestName) == "" {
		fields["guestName"] = "Please enter your name"
	}
	switch email := strings.TrimSpace(f.Email); {
	case email == "":
		fields["email"] = "Please enter your email"
	case !ValidEmail(email):
		fields["email"] = "Please enter a valid email address"
	}
	if len(fields) > 0 {
		return &datastore.ValidationError{Fields: fields}
	}
	return nil
}

// Next advances one step after validating the current one.
func (f *Flow) Next() error {
	if f.Step >= StepSummary {
		return fmt.Errorf("next from step %d: %w", f.Step, ErrInvalidStep)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	f.Step++
	return nil
}

// Back returns one step.
func (f *Flow) Back() error {
	if f.Step <= StepContact {
		return fmt.Errorf("back from step %d: %w", f.Step, ErrInvalidStep)
	}
	f.Step--
	return nil
}

// SetSeats clamps n to [1, MaxSeats].
func (f *Flow) SetSeats(n int) {
	switch {
	case n > f.MaxSeats:
		n = f.MaxSeats
	case n < 1:
		n = 1
	}
	f.Seats = n
}

// LimitTo lowers the seat bound to capacity and re-clamps the seat count.
func (f *Flow) LimitTo(capacity int) {
	if capacity >= 1 && capacity < f.MaxSeats {
		f.MaxSeats = capacity
	}
	f.SetSeats(f.Seats)
}

func (f *Flow) Increment() { f.SetSeats(f.Seats + 1) }
func (f *Flow) Decrement() { f.SetSeats(f.Seats - 1) }

// Total is the price for all seats.
func (f *Flow) Total() float64 {
	return f.PricePerSeat * float64(f.Seats)
}

// PreferenceSummary joins the preferences for the summary step.
func (f *Flow) PreferenceSummary() string {
	if len(f.Preferences) == 0 {
		return "None specified"
	}
	return strings.Join(f.Preferences, ", ")
}

// NotesSummary is the notes text or "None".
func (f *Flow) NotesSummary() string {
	if strings.TrimSpace(f.Notes) == "" {
		return "None"
	}
	return f.Notes
}

// Reservation builds the record that Submit posts.
func (f *Flow) Reservation(now time.Time) model.Reservation {
	return model.Reservation{
		DinnerID:    f.DinnerID,
		GuestName:   strings.TrimSpace(f.GuestName),
		Email:       strings.TrimSpace(f.Email),
		Phone:       strings.TrimSpace(f.Phone),
		Seats:       f.Seats,
		Notes:       strings.TrimSpace(f.Notes),
		Preferences: f.Preferences,
		CreatedAt:   now.UTC(),
	}
}

// Submit posts the reservation. It is only allowed from the summary step.
// On failure the flow stays where it is so the guest can retry.
func (f *Flow) Submit(ctx context.Context, p Poster, now time.Time) (*model.Reservation, error) {
	if f.Step != StepSummary {
		return nil, fmt.Errorf("submit from step %d: %w", f.Step, ErrInvalidStep)
	}
	// Hidden fields can be edited between steps.
	if err := f.validateContact(); err != nil {
		return nil, err
	}

	created, err := p.CreateReservation(ctx, f.Reservation(now))
	if err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	return created, nil
}
