package view

import (
	"fmt"
	"html/template"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/model"
)

const (
	// ProgressAlertPercent turns the capacity bar red above this fill.
	ProgressAlertPercent = 75
	// CardLowSeats and DetailLowSeats trigger the "Only N left" badge.
	CardLowSeats   = 2
	DetailLowSeats = 3
	// MaxAttendees is how many guest avatars are shown before "+N more".
	MaxAttendees = 4
)

// Badge is a coloured availability label.
type Badge struct {
	Text  string
	Level string
}

// Capacity is the seat usage of one dinner.
type Capacity struct {
	Max         int
	Reserved    int
	Remaining   int
	PercentFull float64
}

// NewCapacity derives capacity from the reserved seat count.
func NewCapacity(maxGuests, reserved int) Capacity {
	return Capacity{
		Max:         maxGuests,
		Reserved:    reserved,
		Remaining:   model.Remaining(maxGuests, reserved),
		PercentFull: model.PercentFull(maxGuests, reserved),
	}
}

// ProgressClass is the bar colour.
func (c Capacity) ProgressClass() string {
	if c.PercentFull > ProgressAlertPercent {
		return "bg-danger"
	}
	return "bg-success"
}

// Badge returns the availability badge, or nil when seats are plentiful.
func (c Capacity) Badge(lowSeats int) *Badge {
	switch {
	case c.Remaining == 0:
		return &Badge{Text: "Fully booked", Level: "danger"}
	case c.Remaining <= lowSeats:
		return &Badge{Text: fmt.Sprintf("Only %d left!", c.Remaining), Level: "warning"}
	}
	return nil
}

// Card is one entry of the owned or discoverable list.
type Card struct {
	Dinner        model.Dinner
	Owned         bool
	Date          string
	Time          string
	Price         string
	CategoryClass string
	HostInitials  string
	Capacity      Capacity
	Badge         *Badge
	// Reservations counts bookings; shown on owned cards.
	Reservations int
}

// Cards builds list entries. reserved and bookings are keyed by dinner id.
func Cards(dinners []model.Dinner, reserved, bookings map[model.ID]int, owned bool, now time.Time) []Card {
	cards := make([]Card, 0, len(dinners))
	for _, d := range dinners {
		capacity := NewCapacity(d.MaxGuests, reserved[d.ID])
		cards = append(cards, Card{
			Dinner:        d,
			Owned:         owned,
			Date:          FormatDate(d.Date, now),
			Time:          FormatTime(d.Time),
			Price:         Price(d.Price),
			CategoryClass: CategoryClass(d),
			HostInitials:  Initials(d.HostName),
			Capacity:      capacity,
			Badge:         capacity.Badge(CardLowSeats),
			Reservations:  bookings[d.ID],
		})
	}
	return cards
}

// BookingsByDinner counts reservations per dinner.
func BookingsByDinner(reservations []model.Reservation) map[model.ID]int {
	counts := make(map[model.ID]int)
	for _, r := range reservations {
		counts[r.DinnerID]++
	}
	return counts
}

// CategoryClass colours veggie categories green.
func CategoryClass(d model.Dinner) string {
	if d.IsVeggie() {
		return "success"
	}
	return "secondary"
}

// Attendee is a guest avatar on the detail page.
type Attendee struct {
	Name     string
	Initials string
	Seats    int
	Hue      int
}

// AttendeeList is the visible guests plus the count of hidden ones.
type AttendeeList struct {
	Shown []Attendee
	More  int
}

// Empty reports whether nobody has joined.
func (a AttendeeList) Empty() bool { return len(a.Shown) == 0 }

// Attendees groups reservations by guest name, summing seats, in order of
// first booking.
func Attendees(reservations []model.Reservation) AttendeeList {
	var guests []Attendee
	index := make(map[string]int)
	for _, r := range reservations {
		if i, ok := index[r.GuestName]; ok {
			guests[i].Seats += r.Seats
			continue
		}
		index[r.GuestName] = len(guests)
		guests = append(guests, Attendee{Name: r.GuestName, Initials: Initials(r.GuestName), Seats: r.Seats})
	}

	list := AttendeeList{}
	for i, g := range guests {
		if i == MaxAttendees {
			list.More = len(guests) - MaxAttendees
			break
		}
		g.Hue = i * 60
		list.Shown = append(list.Shown, g)
	}
	return list
}

// Detail is the full page of one dinner.
type Detail struct {
	Dinner        model.Dinner
	Demo          bool
	Date          string
	TimeRange     string
	Relative      string
	Price         string
	CategoryClass string
	HostInitials  string
	Capacity      Capacity
	GuestBadge    *Badge
	Attendees     AttendeeList
	CanEdit       bool
	CanReserve    bool
	ReserveLabel  string
	DietaryNote   string
}

// NewDetail builds the detail page. owner says whether the current user
// hosts the dinner.
func NewDetail(d model.Dinner, reservations []model.Reservation, owner bool, now time.Time) Detail {
	capacity := NewCapacity(d.MaxGuests, model.ReservedSeats(reservations))
	return Detail{
		Dinner:        d,
		Date:          FormatDate(d.Date, now),
		TimeRange:     TimeRange(d.Time),
		Relative:      RelativeDate(d.Date, now),
		Price:         Price(d.Price),
		CategoryClass: CategoryClass(d),
		HostInitials:  Initials(d.HostName),
		Capacity:      capacity,
		GuestBadge:    capacity.Badge(DetailLowSeats),
		Attendees:     Attendees(reservations),
		CanEdit:       owner,
		CanReserve:    !owner && capacity.Remaining > 0,
		ReserveLabel:  "Reserve a Spot - " + Price(d.Price),
		DietaryNote:   DietaryNote(d),
	}
}

// DietaryNote explains the menu restrictions.
func DietaryNote(d model.Dinner) string {
	if d.IsVeggie() {
		return fmt.Sprintf("This is a %s dinner. All dishes will be %s.", d.Category, d.Category)
	}
	return "No specific dietary restrictions for this dinner. Contact the host for special accommodations."
}

// Funcs are the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"price":      Price,
		"initials":   Initials,
		"formatTime": FormatTime,
		"timeRange":  TimeRange,
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"plural": func(n int, word string) string {
			if n == 1 {
				return word
			}
			return word + "s"
		},
		"money": func(f float64) string { return fmt.Sprintf("$%.2f", f) },
		"contains": func(list []string, s string) bool {
			for _, v := range list {
				if v == s {
					return true
				}
			}
			return false
		},
	}
}
