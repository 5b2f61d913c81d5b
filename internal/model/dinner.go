package model

import (
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Dinner is a hostable gathering with a schedule, a price per seat and a
// guest capacity.
type Dinner struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Price       float64   `json:"price"`
	MaxGuests   int       `json:"maxGuests"`
	HostID      ID        `json:"hostId"`
	HostName    string    `json:"hostName"`
	Image       string    `json:"image"`
	Category    string    `json:"category"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Day parses the dinner's calendar date in loc.
func (d Dinner) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, d.Date, loc)
}

// IsVeggie reports whether the category is vegetarian or vegan, ignoring case.
func (d Dinner) IsVeggie() bool {
	switch strings.ToLower(strings.TrimSpace(d.Category)) {
	case "vegetarian", "vegan":
		return true
	}
	return false
}

// HostedBy reports whether userID hosts the dinner.
func (d Dinner) HostedBy(userID ID) bool {
	return d.HostID == userID
}

// DinnerPatch carries a partial update. Only non-nil fields are sent.
type DinnerPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Date        *string  `json:"date,omitempty"`
	Time        *string  `json:"time,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	MaxGuests   *int     `json:"maxGuests,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Category    *string  `json:"category,omitempty"`
	IsPublic    *bool    `json:"isPublic,omitempty"`
}

// Apply returns a copy of d with the patch's fields replaced.
func (p DinnerPatch) Apply(d Dinner) Dinner {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.Time != nil {
		d.Time = *p.Time
	}
	if p.Price != nil {
		d.Price = *p.Price
	}
	if p.MaxGuests != nil {
		d.MaxGuests = *p.MaxGuests
	}
	if p.Image != nil {
		d.Image = *p.Image
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.IsPublic != nil {
		d.IsPublic = *p.IsPublic
	}
	return d
}

// User is the person browsing the app.
type User struct {
	ID   ID
	Name string
}
