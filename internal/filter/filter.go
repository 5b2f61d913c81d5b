// Package filter narrows a dinner list to one of the browse chips.
package filter

import (
	"fmt"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/model"
)

// PriceThreshold is the exclusive upper bound of the under-20 chip.
const PriceThreshold = 20.0

// Key names a filter.
type Key string

const (
	All        Key = "all"
	Today      Key = "today"
	ThisWeek   Key = "this-week"
	Vegetarian Key = "vegetarian"
	Under20    Key = "under-20"
)

// Keys lists every filter in chip order.
var Keys = []Key{All, Today, ThisWeek, Vegetarian, Under20}

// Label is the chip caption.
func (k Key) Label() string {
	switch k {
	case Today:
		return "Today"
	case ThisWeek:
		return "This Week"
	case Vegetarian:
		return "Vegetarian"
	case Under20:
		return "Under $20"
	}
	return "All"
}

// ParseKey accepts one of Keys. The empty string selects All.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return All, nil
	}
	for _, k := range Keys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Apply returns the dinners matching k in input order. The input is not
// modified. Dates are compared as calendar days in now's location.
func Apply(dinners []model.Dinner, k Key, now time.Time) []model.Dinner {
	out := make([]model.Dinner, 0, len(dinners))
	m := matcher(k, now)
	for _, d := range dinners {
		if m(d) {
			out = append(out, d)
		}
	}
	return out
}

// Counts returns how many dinners each filter would keep.
func Counts(dinners []model.Dinner, now time.Time) map[Key]int {
	counts := make(map[Key]int, len(Keys))
	for _, k := range Keys {
		m := matcher(k, now)
		n := 0
		for _, d := range dinners {
			if m(d) {
				n++
			}
		}
		counts[k] = n
	}
	return counts
}

func matcher(k Key, now time.Time) func(model.Dinner) bool {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	weekEnd := today.AddDate(0, 0, 7)

	switch k {
	case Today:
		return func(d model.Dinner) bool {
			day, err := d.Day(loc)
			return err == nil && day.Equal(today)
		}
	case ThisWeek:
		return func(d model.Dinner) bool {
			day, err := d.Day(loc)
			return err == nil && !day.Before(today) && !day.After(weekEnd)
		}
	case Vegetarian:
		return model.Dinner.IsVeggie
	case Under20:
		return func(d model.Dinner) bool { return d.Price < PriceThreshold }
	}
	return func(model.Dinner) bool { return true }
}
