// Package api serves the dinners and reservations collections over a small
// json-server style REST interface backed by SQLite.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/repoeli/dinner-hoting-app/internal/middleware"
	"github.com/repoeli/dinner-hoting-app/internal/model"
	"github.com/repoeli/dinner-hoting-app/internal/store"
)

// Handler holds the HTTP handlers of the data store.
type Handler struct {
	dinners      *store.DinnerStore
	reservations *store.ReservationStore
	logger       *slog.Logger
}

func NewHandler(ds *store.DinnerStore, rs *store.ReservationStore, logger *slog.Logger) *Handler {
	return &Handler{dinners: ds, reservations: rs, logger: logger}
}

// Router builds the data store's routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(h.logger.With("component", "http")))
	r.Use(middleware.CORS)

	r.Get("/health", health)

	r.Route("/dinners", func(r chi.Router) {
		r.Get("/", h.ListDinners)
		r.Post("/", h.CreateDinner)
		r.Get("/{id}", h.GetDinner)
		r.Patch("/{id}", h.PatchDinner)
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", h.ListReservations)
		r.Post("/", h.CreateReservation)
	})

	return r
}

// ListDinners handles GET /dinners
func (h *Handler) ListDinners(w http.ResponseWriter, r *http.Request) {
	dinners, err := h.dinners.List()
	if err != nil {
		h.logger.Error("list dinners", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list dinners")
		return
	}
	if dinners == nil {
		dinners = []model.Dinner{}
	}
	writeJSON(w, http.StatusOK, dinners)
}

// GetDinner handles GET /dinners/{id}
func (h *Handler) GetDinner(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "dinner not found")
		return
	}

	dinner, err := h.dinners.GetByID(id)
	if err != nil {
		h.logger.Error("get dinner", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get dinner")
		return
	}
	if dinner == nil {
		writeError(w, http.StatusNotFound, "dinner not found")
		return
	}
	writeJSON(w, http.StatusOK, dinner)
}

// CreateDinner handles POST /dinners. A client-supplied id is replaced.
func (h *Handler) CreateDinner(w http.ResponseWriter, r *http.Request) {
	var d model.Dinner
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if d.MaxGuests <= 0 {
		writeError(w, http.StatusBadRequest, "maxGuests must be positive")
		return
	}

	created, err := h.dinners.Create(d)
	if err != nil {
		h.logger.Error("create dinner", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create dinner")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// PatchDinner handles PATCH /dinners/{id}
func (h *Handler) PatchDinner(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "dinner not found")
		return
	}

	var patch model.DinnerPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		writeError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	if patch.MaxGuests != nil && *patch.MaxGuests <= 0 {
		writeError(w, http.StatusBadRequest, "maxGuests must be positive")
		return
	}

	updated, err := h.dinners.Update(id, patch)
	if err != nil {
		h.logger.Error("patch dinner", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update dinner")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "dinner not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ListReservations handles GET /reservations, optionally filtered by ?dinnerId=
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	var dinnerID *int64
	if raw := r.URL.Query().Get("dinnerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Unknown ids match nothing, like an unmatched query filter.
			writeJSON(w, http.StatusOK, []model.Reservation{})
			return
		}
		dinnerID = &id
	}

	reservations, err := h.reservations.List(dinnerID)
	if err != nil {
		h.logger.Error("list reservations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, reservations)
}

// CreateReservation handles POST /reservations. Capacity is not enforced.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var res model.Reservation
	if err := decodeJSON(r, &res); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res.GuestName = strings.TrimSpace(res.GuestName)
	if res.GuestName == "" {
		writeError(w, http.StatusBadRequest, "guestName is required")
		return
	}
	if res.Seats <= 0 {
		writeError(w, http.StatusBadRequest, "seats must be positive")
		return
	}

	dinnerID, err := strconv.ParseInt(res.DinnerID.String(), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "dinnerId is invalid")
		return
	}
	dinner, err := h.dinners.GetByID(dinnerID)
	if err != nil {
		h.logger.Error("get dinner for reservation", "id", dinnerID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get dinner")
		return
	}
	if dinner == nil {
		writeError(w, http.StatusNotFound, "dinner not found")
		return
	}

	created, err := h.reservations.Create(dinnerID, res)
	if err != nil {
		h.logger.Error("create reservation", "dinner_id", dinnerID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reservation")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}
