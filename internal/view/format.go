// Package view prepares dinners and reservations for the HTML templates.
package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/model"
)

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysUntil counts calendar days from now to date. ok is false when date
// does not parse.
func daysUntil(date string, now time.Time) (time.Time, int, bool) {
	day, err := time.ParseInLocation(model.DateLayout, date, now.Location())
	if err != nil {
		return time.Time{}, 0, false
	}
	today := startOfDay(now)
	// Round to absorb DST shifts between the two midnights.
	days := int(day.Sub(today).Round(24*time.Hour) / (24 * time.Hour))
	return day, days, true
}

// FormatDate renders "Today", "Tomorrow", "This Friday" within the coming
// week, otherwise "Friday, May 22".
func FormatDate(date string, now time.Time) string {
	day, days, ok := daysUntil(date, now)
	if !ok {
		return date
	}
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days > 1 && days < 7:
		return "This " + day.Weekday().String()
	}
	return day.Format("Monday, Jan 2")
}

// RelativeDate renders "today", "tomorrow", "in 3 days" or "on May 22".
func RelativeDate(date string, now time.Time) string {
	day, days, ok := daysUntil(date, now)
	if !ok {
		return date
	}
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days > 1 && days < 7:
		return fmt.Sprintf("in %d days", days)
	}
	return "on " + day.Format("Jan 2")
}

// FormatTime converts "18:30" to "6:30 PM".
func FormatTime(clock string) string {
	t, err := time.Parse(model.TimeLayout, clock)
	if err != nil {
		return clock
	}
	return t.Format("3:04 PM")
}

// EndTime is the start plus two hours, in 12-hour form.
func EndTime(clock string) string {
	t, err := time.Parse(model.TimeLayout, clock)
	if err != nil {
		return ""
	}
	return t.Add(2 * time.Hour).Format("3:04 PM")
}

// TimeRange renders "6:30 PM - 8:30 PM".
func TimeRange(clock string) string {
	end := EndTime(clock)
	if end == "" {
		return FormatTime(clock)
	}
	return FormatTime(clock) + " - " + end
}

// LongDate renders "Friday, May 22 at 19:00" for the reservation summary.
func LongDate(date, clock string, loc *time.Location) string {
	day, err := time.ParseInLocation(model.DateLayout, date, loc)
	if err != nil {
		return strings.TrimSpace(date + " at " + clock)
	}
	return day.Format("Monday, January 2") + " at " + clock
}

// Initials takes the first letter of each word in name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}

// Price renders whole amounts without decimals: "$25", "$12.50".
func Price(p float64) string {
	if p == float64(int64(p)) {
		return "$" + strconv.FormatInt(int64(p), 10)
	}
	return "$" + strconv.FormatFloat(p, 'f', 2, 64)
}
