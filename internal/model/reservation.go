package model

import "time"

// Reservation claims seats against one dinner's capacity.
type Reservation struct {
	ID          ID        `json:"id,omitempty"`
	DinnerID    ID        `json:"dinnerId"`
	GuestName   string    `json:"guestName"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Seats       int       `json:"seats"`
	Notes       string    `json:"notes,omitempty"`
	Preferences []string  `json:"preferences,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ReservedSeats sums the seats across reservations.
func ReservedSeats(reservations []Reservation) int {
	total := 0
	for _, r := range reservations {
		total += r.Seats
	}
	return total
}

// SeatsByDinner sums reserved seats per dinner id.
func SeatsByDinner(reservations []Reservation) map[ID]int {
	seats := make(map[ID]int)
	for _, r := range reservations {
		seats[r.DinnerID] += r.Seats
	}
	return seats
}

// Remaining returns the seats still open. Overbooked dinners report zero.
func Remaining(maxGuests, reserved int) int {
	if reserved >= maxGuests {
		return 0
	}
	return maxGuests - reserved
}

// PercentFull returns reserved/maxGuests as a percentage in [0, 100].
func PercentFull(maxGuests, reserved int) float64 {
	if maxGuests <= 0 || reserved >= maxGuests {
		return 100
	}
	if reserved <= 0 {
		return 0
	}
	return float64(reserved) / float64(maxGuests) * 100
}
