package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoeli/dinner-hoting-app/internal/database"
	"github.com/repoeli/dinner-hoting-app/internal/model"
	"github.com/repoeli/dinner-hoting-app/internal/store"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(store.NewDinnerStore(db), store.NewReservationStore(db), logger)
	return h.Router()
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListDinners(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodGet, "/dinners", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var dinners []model.Dinner
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dinners))
	assert.Len(t, dinners, 3)
}

func TestGetDinner(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodGet, "/dinners/2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var d model.Dinner
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, model.ID("2"), d.ID)
	assert.Equal(t, "Tiffany Chen", d.HostName)
}

func TestGetDinner_NotFound(t *testing.T) {
	r := setupRouter(t)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/dinners/404", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/dinners/abc", nil).Code)
}

func TestCreateDinner_ReplacesTemporaryID(t *testing.T) {
	r := setupRouter(t)

	body := map[string]any{
		"id":        1716300000000,
		"title":     "Ramen Night",
		"date":      "2026-10-18",
		"time":      "19:00",
		"price":     18,
		"maxGuests": 6,
		"hostId":    1,
		"hostName":  "Demo User",
		"category":  "casual",
		"isPublic":  true,
	}
	w := do(t, r, http.MethodPost, "/dinners", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var d model.Dinner
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, model.ID("4"), d.ID)
	assert.Equal(t, model.ID("1"), d.HostID)
	assert.Equal(t, "Ramen Night", d.Title)
}

func TestCreateDinner_Validation(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPost, "/dinners", map[string]any{"title": "  ", "maxGuests": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/dinners", map[string]any{"title": "Soup", "maxGuests": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatchDinner(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPatch, "/dinners/3", map[string]any{"price": 19.5, "category": "vegetarian"})
	require.Equal(t, http.StatusOK, w.Code)

	var d model.Dinner
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, 19.5, d.Price)
	assert.Equal(t, "vegetarian", d.Category)
	assert.Equal(t, "Vegan Delight", d.Title)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPatch, "/dinners/99", map[string]any{"price": 1}).Code)
}

func TestReservations(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPost, "/reservations", map[string]any{
		"dinnerId":    2,
		"guestName":   "Ana Lopez",
		"email":       "ana@example.com",
		"seats":       2,
		"preferences": []string{"vegan"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodPost, "/reservations", map[string]any{"dinnerId": "3", "guestName": "Ben", "seats": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodGet, "/reservations?dinnerId=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res []model.Reservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res, 1)
	assert.Equal(t, "Ana Lopez", res[0].GuestName)
	assert.Equal(t, []string{"vegan"}, res[0].Preferences)

	w = do(t, r, http.MethodGet, "/reservations", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res, 2)
}

func TestCreateReservation_Errors(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing name", map[string]any{"dinnerId": 1, "seats": 1}, http.StatusBadRequest},
		{"zero seats", map[string]any{"dinnerId": 1, "guestName": "A", "seats": 0}, http.StatusBadRequest},
		{"bad dinner id", map[string]any{"dinnerId": "x", "guestName": "A", "seats": 1}, http.StatusBadRequest},
		{"unknown dinner", map[string]any{"dinnerId": 77, "guestName": "A", "seats": 1}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, r, http.MethodPost, "/reservations", tt.body).Code)
		})
	}
}

func TestPreflight(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodOptions, "/dinners", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
