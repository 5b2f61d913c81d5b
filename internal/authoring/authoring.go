// Package authoring turns the create/edit dinner form into records for the
// data store.
package authoring

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/model"
)

const (
	DefaultImage     = "https://images.unsplash.com/photo-1555939594-58d7cb561ad1?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&q=80&w=1080"
	DefaultCategory  = "casual"
	DefaultMaxGuests = 4
	DefaultHour      = 19

	// DateTimeLayout is the datetime-local input format.
	DateTimeLayout = "2006-01-02T15:04"

	// TempIDPrefix marks ids the data store will replace.
	TempIDPrefix = "tmp-"
)

// Field messages.
var (
	errInvalidDateTime = errors.New("Please enter a valid date and time")
	errInvalidPrice    = errors.New("Please enter a price of 0 or more")
	errInvalidGuests   = errors.New("Please allow at least 1 guest")
)

// Categories are the choices of the category select.
var Categories = []string{"casual", "gourmet", "vegetarian", "vegan", "bbq", "international"}

// Form field names.
const (
	FieldEditID      = "editId"
	FieldTitle       = "title"
	FieldDateTime    = "datetime"
	FieldPrice       = "price"
	FieldMaxGuests   = "maxGuests"
	FieldDescription = "description"
	FieldImage       = "image"
	FieldCategory    = "category"
	FieldIsPublic    = "isPublic"
)

// Mode is create or edit.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Form is the dinner form as rendered. EditID selects edit mode.
type Form struct {
	EditID      model.ID
	Title       string
	DateTime    string
	Price       string
	MaxGuests   string
	Description string
	Image       string
	Category    string
	IsPublic    bool
	Errors      map[string]string
}

// NewCreateForm returns an empty create-mode form.
func NewCreateForm() Form {
	return Form{Category: DefaultCategory, IsPublic: true}
}

// EditForm returns a form pre-populated from d.
func EditForm(d model.Dinner) Form {
	return Form{
		EditID:      d.ID,
		Title:       d.Title,
		DateTime:    joinDateTime(d.Date, d.Time),
		Price:       strconv.FormatFloat(d.Price, 'f', -1, 64),
		MaxGuests:   strconv.Itoa(d.MaxGuests),
		Description: d.Description,
		Image:       d.Image,
		Category:    d.Category,
		IsPublic:    d.IsPublic,
	}
}

// FormFromValues rebuilds a form from a submission, for re-rendering.
func FormFromValues(v url.Values) Form {
	f := Form{
		EditID:      model.ID(strings.TrimSpace(v.Get(FieldEditID))),
		Title:       v.Get(FieldTitle),
		DateTime:    v.Get(FieldDateTime),
		Price:       v.Get(FieldPrice),
		MaxGuests:   v.Get(FieldMaxGuests),
		Description: v.Get(FieldDescription),
		Image:       v.Get(FieldImage),
		Category:    v.Get(FieldCategory),
		IsPublic:    true,
	}
	if b, ok := boolValue(v, FieldIsPublic); ok {
		f.IsPublic = b
	}
	return f
}

// Mode reports whether the form creates or edits.
func (f Form) Mode() Mode {
	if f.EditID.IsZero() {
		return ModeCreate
	}
	return ModeEdit
}

// SubmitLabel is the caption of the submit button.
func (f Form) SubmitLabel() string {
	if f.Mode() == ModeEdit {
		return "Update Dinner"
	}
	return "Create Dinner"
}

// Reset returns a fresh create-mode form.
func (f Form) Reset() Form {
	return NewCreateForm()
}

// WithErrors attaches the field messages of err when it is a ValidationError.
func (f Form) WithErrors(err error) Form {
	var ve *datastore.ValidationError
	if errors.As(err, &ve) {
		f.Errors = ve.Fields
	}
	return f
}

// BuildDinner creates a new dinner from a create-mode submission. Only the
// title is required; everything else falls back to a default.
func BuildDinner(v url.Values, host model.User, now time.Time) (model.Dinner, error) {
	fields := map[string]string{}

	d := model.Dinner{
		ID:          model.ID(TempIDPrefix + uuid.NewString()),
		Title:       strings.TrimSpace(v.Get(FieldTitle)),
		Description: strings.TrimSpace(v.Get(FieldDescription)),
		MaxGuests:   DefaultMaxGuests,
		HostID:      host.ID,
		HostName:    host.Name,
		Image:       DefaultImage,
		Category:    DefaultCategory,
		IsPublic:    true,
		CreatedAt:   now.UTC(),
	}
	if d.Title == "" {
		fields[FieldTitle] = "Please enter a dinner title"
	}

	if raw := strings.TrimSpace(v.Get(FieldDateTime)); raw != "" {
		date, clock, err := splitDateTime(raw, now.Location())
		if err != nil {
			fields[FieldDateTime] = err.Error()
		}
		d.Date, d.Time = date, clock
	} else {
		tomorrow := now.AddDate(0, 0, 1)
		at := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), DefaultHour, 0, 0, 0, now.Location())
		d.Date, d.Time = at.Format(model.DateLayout), at.Format(model.TimeLayout)
	}

	if raw := strings.TrimSpace(v.Get(FieldPrice)); raw != "" {
		price, err := parsePrice(raw)
		if err != nil {
			fields[FieldPrice] = err.Error()
		}
		d.Price = price
	}
	if raw := strings.TrimSpace(v.Get(FieldMaxGuests)); raw != "" {
		n, err := parseMaxGuests(raw)
		if err != nil {
			fields[FieldMaxGuests] = err.Error()
		}
		d.MaxGuests = n
	}
	if img := strings.TrimSpace(v.Get(FieldImage)); img != "" {
		d.Image = img
	}
	if cat := strings.TrimSpace(v.Get(FieldCategory)); cat != "" {
		d.Category = cat
	}
	if b, ok := boolValue(v, FieldIsPublic); ok {
		d.IsPublic = b
	}

	if len(fields) > 0 {
		return model.Dinner{}, &datastore.ValidationError{Fields: fields}
	}
	return d, nil
}

// BuildPatch turns an edit-mode submission into a patch holding exactly the
// fields present in v. A present but blank image keeps the existing one.
func BuildPatch(v url.Values, existing model.Dinner) (model.DinnerPatch, error) {
	var p model.DinnerPatch
	fields := map[string]string{}

	if has(v, FieldTitle) {
		title := strings.TrimSpace(v.Get(FieldTitle))
		if title == "" {
			fields[FieldTitle] = "Please enter a dinner title"
		}
		p.Title = &title
	}
	if has(v, FieldDateTime) {
		if raw := strings.TrimSpace(v.Get(FieldDateTime)); raw != "" {
			date, clock, err := splitDateTime(raw, time.UTC)
			if err != nil {
				fields[FieldDateTime] = err.Error()
			}
			p.Date, p.Time = &date, &clock
		}
	}
	if has(v, FieldDescription) {
		desc := strings.TrimSpace(v.Get(FieldDescription))
		p.Description = &desc
	}
	if has(v, FieldPrice) {
		price, err := parsePrice(strings.TrimSpace(v.Get(FieldPrice)))
		if err != nil {
			fields[FieldPrice] = err.Error()
		}
		p.Price = &price
	}
	if has(v, FieldMaxGuests) {
		n, err := parseMaxGuests(strings.TrimSpace(v.Get(FieldMaxGuests)))
		if err != nil {
			fields[FieldMaxGuests] = err.Error()
		}
		p.MaxGuests = &n
	}
	if has(v, FieldImage) {
		img := strings.TrimSpace(v.Get(FieldImage))
		if img == "" {
			img = existing.Image
		}
		p.Image = &img
	}
	if has(v, FieldCategory) {
		cat := strings.TrimSpace(v.Get(FieldCategory))
		p.Category = &cat
	}
	if b, ok := boolValue(v, FieldIsPublic); ok {
		p.IsPublic = &b
	}

	if len(fields) > 0 {
		return model.DinnerPatch{}, &datastore.ValidationError{Fields: fields}
	}
	return p, nil
}

func has(v url.Values, key string) bool {
	_, ok := v[key]
	return ok
}

// boolValue reads a checkbox rendered after a hidden "false" input; the
// last value wins.
func boolValue(v url.Values, key string) (bool, bool) {
	vals, ok := v[key]
	if !ok || len(vals) == 0 {
		return false, false
	}
	switch strings.ToLower(vals[len(vals)-1]) {
	case "true", "on", "1", "yes":
		return true, true
	}
	return false, true
}

func splitDateTime(raw string, loc *time.Location) (string, string, error) {
	t, err := time.ParseInLocation(DateTimeLayout, raw, loc)
	if err != nil {
		return "", "", errInvalidDateTime
	}
	return t.Format(model.DateLayout), t.Format(model.TimeLayout), nil
}

func joinDateTime(date, clock string) string {
	if date == "" {
		return ""
	}
	if clock == "" {
		clock = "18:00"
	}
	return date + "T" + clock
}

func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errInvalidPrice
	}
	return price, nil
}

func parseMaxGuests(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errInvalidGuests
	}
	return n, nil
}
