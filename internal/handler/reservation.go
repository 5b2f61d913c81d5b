package handler

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/model"
	"github.com/repoeli/dinner-hoting-app/internal/reservation"
	ws "github.com/repoeli/dinner-hoting-app/internal/websocket"
)

type reservePanel struct {
	Title       string
	Flow        *reservation.Flow
	Steps       []reservation.Step
	Preferences []string
	Errors      map[string]string
	Alert       *alert
}

type reserveSuccess struct {
	Title       string
	Reservation model.Reservation
}

func newReservePanel(title string, f *reservation.Flow) reservePanel {
	return reservePanel{
		Title:       title,
		Flow:        f,
		Steps:       reservation.Steps,
		Preferences: reservation.PreferenceOptions,
	}
}

var errBadFlow = errors.New("invalid reservation form")

// flowFromValues restores a flow from the hidden fields of the step form.
func flowFromValues(v url.Values) (reservation.Flow, error) {
	step, err := strconv.Atoi(v.Get("step"))
	if err != nil || step < int(reservation.StepContact) || step > int(reservation.StepSummary) {
		return reservation.Flow{}, errBadFlow
	}
	maxSeats, err := strconv.Atoi(v.Get("maxSeats"))
	if err != nil || maxSeats < 1 {
		return reservation.Flow{}, errBadFlow
	}
	price, err := strconv.ParseFloat(v.Get("price"), 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return reservation.Flow{}, errBadFlow
	}
	id := model.ID(strings.TrimSpace(v.Get("dinnerId")))
	if id.IsZero() {
		return reservation.Flow{}, errBadFlow
	}

	var prefs []string
	for _, p := range v["preferences"] {
		if slices.Contains(reservation.PreferenceOptions, p) && !slices.Contains(prefs, p) {
			prefs = append(prefs, p)
		}
	}

	f := reservation.Flow{
		DinnerID:     id,
		Step:         reservation.Step(step),
		MaxSeats:     maxSeats,
		PricePerSeat: price,
		GuestName:    v.Get("guestName"),
		Email:        v.Get("email"),
		Phone:        v.Get("phone"),
		Preferences:  prefs,
		Notes:        v.Get("notes"),
	}
	seats, err := strconv.Atoi(v.Get("seats"))
	if err != nil {
		seats = 1
	}
	f.SetSeats(seats)
	return f, nil
}

// ReserveForm opens the booking flow on the contact step.
func (h *TemplateHandler) ReserveForm(w http.ResponseWriter, r *http.Request) {
	st := h.ensureLoaded(r.Context())
	d, reservations, err := h.lookupDinner(r.Context(), st, model.ID(r.PathValue("id")))
	if err != nil {
		_, baseURL := h.store(st)
		h.renderAlert(w, notFoundStatus(err), errorAlert("Failed to load dinner details.", err, baseURL))
		return
	}
	if det := h.detail(d, reservations, st); det.CanEdit {
		h.renderAlert(w, http.StatusConflict, &alert{Level: "info", Message: "You are hosting this dinner."})
		return
	}

	f, err := reservation.Open(d, reservations)
	if errors.Is(err, reservation.ErrFullyBooked) {
		h.renderAlert(w, http.StatusConflict, &alert{Level: "warning", Message: "This dinner is fully booked."})
		return
	}
	h.renderPartial(w, "reserve-form", newReservePanel(d.Title, &f))
}

// ReserveStep moves the flow one step or changes the seat count.
func (h *TemplateHandler) ReserveStep(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	f, err := flowFromValues(r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	panel := newReservePanel(r.PostForm.Get("title"), &f)

	switch r.PostForm.Get("action") {
	case "next":
		err = f.Next()
	case "back":
		err = f.Back()
	case "inc":
		f.Increment()
	case "dec":
		f.Decrement()
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	var ve *datastore.ValidationError
	switch {
	case errors.As(err, &ve):
		panel.Errors = ve.Fields
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.renderPartial(w, "reserve-form", panel)
}

// ReserveSubmit posts the reservation from the summary step.
func (h *TemplateHandler) ReserveSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	f, err := flowFromValues(r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	title := r.PostForm.Get("title")
	panel := newReservePanel(title, &f)

	st := h.session.State()
	client, baseURL := h.store(st)

	// The seat bound travels in the form; never let it exceed the dinner.
	if f.Step == reservation.StepSummary {
		d, _, err := h.lookupDinner(r.Context(), st, f.DinnerID)
		if err != nil {
			h.logger.Error("look up dinner for reservation", "dinner", f.DinnerID, "error", err)
			panel.Alert = errorAlert("Error creating reservation. Please try again.", err, baseURL)
			h.renderPartial(w, "reserve-form", panel)
			return
		}
		f.LimitTo(d.MaxGuests)
	}

	created, err := f.Submit(r.Context(), client, h.now())
	if err != nil {
		var ve *datastore.ValidationError
		switch {
		case errors.As(err, &ve):
			f.Step = reservation.StepContact
			panel.Errors = ve.Fields
		case errors.Is(err, reservation.ErrInvalidStep):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		default:
			h.logger.Error("create reservation", "dinner", f.DinnerID, "error", err)
			panel.Alert = errorAlert("Error creating reservation. Please try again.", err, baseURL)
		}
		h.renderPartial(w, "reserve-form", panel)
		return
	}

	h.metrics.ReservationsCreated.Inc()
	h.hub.Broadcast(ws.ReservationCreated(*created))
	h.logger.Info("reservation created", "dinner", created.DinnerID, "seats", created.Seats)

	changed(w)
	h.renderPartial(w, "reserve-success", reserveSuccess{Title: title, Reservation: *created})
}
