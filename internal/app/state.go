// Package app holds the browse state of the web app and the transitions
// between loads, demo data and filter changes.
package app

import (
	"fmt"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/filter"
	"github.com/repoeli/dinner-hoting-app/internal/mockdata"
	"github.com/repoeli/dinner-hoting-app/internal/model"
)

// Source says where the current dinners came from.
type Source int

const (
	SourceNone Source = iota
	SourceLive
	SourceDemo
)

func (s Source) String() string {
	switch s {
	case SourceLive:
		return "live"
	case SourceDemo:
		return "demo"
	}
	return "none"
}

// BannerKind picks the banner style.
type BannerKind string

const (
	BannerInfo    BannerKind = "info"
	BannerWarning BannerKind = "warning"
)

// Banner is the one-line notice above the lists with its single action.
type Banner struct {
	Kind    BannerKind
	Message string
	Action  string
	// Reasons lists the candidates that answered with an error.
	Reasons []string
}

// IsZero reports whether there is no banner.
func (b Banner) IsZero() bool { return b.Message == "" }

// Banner texts.
const (
	DemoBannerMessage = "Using demo data - API server not connected"
	DemoBannerAction  = "Try Reconnect"
	AltBannerAction   = "Reconnect"
)

// AlternateBanner names the non-primary URL that answered.
func AlternateBanner(url string) Banner {
	return Banner{
		Kind:    BannerInfo,
		Message: fmt.Sprintf("Connected via alternative API URL: %s", url),
		Action:  AltBannerAction,
	}
}

// LoadError describes a load that failed without exhausting the candidates.
type LoadError struct {
	Message         string
	Troubleshooting []string
}

// State is an immutable snapshot. Transitions return a new value.
type State struct {
	// Seq is the sequence number of the load that produced the dinners.
	Seq          uint64
	Source       Source
	BaseURL      string
	Owned        []model.Dinner
	Discoverable []model.Dinner
	Filter       filter.Key
	Banner       Banner
	LoadErr      *LoadError
	LoadedAt     time.Time
}

// Initial is the state before the first load.
func Initial() State {
	return State{Filter: filter.All, Owned: []model.Dinner{}, Discoverable: []model.Dinner{}}
}

// Loaded installs a live result. A non-primary winner sets the alternate
// URL banner; a primary winner clears any banner.
func (s State) Loaded(dinners []model.Dinner, baseURL string, primary bool, user model.User, opts PartitionOptions, at time.Time) State {
	s.Source = SourceLive
	s.BaseURL = baseURL
	s.Owned, s.Discoverable = Partition(dinners, user, opts)
	s.Banner = Banner{}
	if !primary {
		s.Banner = AlternateBanner(baseURL)
	}
	s.LoadErr = nil
	s.LoadedAt = at
	return s
}

// Demo installs the mock dataset with the demo warning banner.
func (s State) Demo(user model.User, opts PartitionOptions, at time.Time) State {
	s.Source = SourceDemo
	s.BaseURL = ""
	s.Owned, s.Discoverable = Partition(mockdata.Dinners(), user, opts)
	s.Banner = Banner{Kind: BannerWarning, Message: DemoBannerMessage, Action: DemoBannerAction}
	s.LoadErr = nil
	s.LoadedAt = at
	return s
}

// WithReasons attaches the server-side failure reasons to the banner.
func (s State) WithReasons(reasons []string) State {
	s.Banner.Reasons = reasons
	return s
}

// Failed records a load error and keeps whatever dinners were shown.
func (s State) Failed(e LoadError) State {
	s.LoadErr = &e
	return s
}

// WithFilter replaces the selected filter.
func (s State) WithFilter(k filter.Key) State {
	s.Filter = k
	return s
}

// ClearBanner removes the banner.
func (s State) ClearBanner() State {
	s.Banner = Banner{}
	return s
}

// All returns owned then discoverable dinners.
func (s State) All() []model.Dinner {
	all := make([]model.Dinner, 0, len(s.Owned)+len(s.Discoverable))
	all = append(all, s.Owned...)
	return append(all, s.Discoverable...)
}

// Visible returns the discoverable dinners that pass the current filter.
func (s State) Visible(now time.Time) []model.Dinner {
	return filter.Apply(s.Discoverable, s.Filter, now)
}

// Counts returns the filter chip counts over every dinner.
func (s State) Counts(now time.Time) map[filter.Key]int {
	return filter.Counts(s.All(), now)
}

// Find returns the loaded dinner with id.
func (s State) Find(id model.ID) (model.Dinner, bool) {
	for _, d := range s.All() {
		if d.ID == id {
			return d, true
		}
	}
	return model.Dinner{}, false
}
