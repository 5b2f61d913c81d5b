package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/api"
	"github.com/repoeli/dinner-hoting-app/internal/app"
	"github.com/repoeli/dinner-hoting-app/internal/database"
	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/imagesearch"
	"github.com/repoeli/dinner-hoting-app/internal/metrics"
	"github.com/repoeli/dinner-hoting-app/internal/mockdata"
	"github.com/repoeli/dinner-hoting-app/internal/model"
	"github.com/repoeli/dinner-hoting-app/internal/reservation"
	"github.com/repoeli/dinner-hoting-app/internal/resolver"
	"github.com/repoeli/dinner-hoting-app/internal/store"
	ws "github.com/repoeli/dinner-hoting-app/internal/websocket"
	"github.com/repoeli/dinner-hoting-app/web"
)

var testNow = time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type imageFunc func(ctx context.Context, q string) (imagesearch.Result, error)

func (f imageFunc) Search(ctx context.Context, q string) (imagesearch.Result, error) { return f(ctx, q) }

type fixture struct {
	h           *TemplateHandler
	url         string
	reservation *store.ReservationStore
}

// newFixture runs a seeded data store behind httptest. With live false the
// resolver only knows an unreachable URL, so loads fall back to demo data.
func newFixture(t *testing.T, live bool) *fixture {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rs := store.NewReservationStore(db)
	srv := httptest.NewServer(api.NewHandler(store.NewDinnerStore(db), rs, testLogger()).Router())
	t.Cleanup(srv.Close)

	candidate := srv.URL
	if !live {
		dead := httptest.NewServer(http.NotFoundHandler())
		candidate = dead.URL
		dead.Close()
	}

	res := resolver.New(resolver.Config{
		Candidates:     []resolver.Candidate{{Name: "direct", BaseURL: candidate}},
		RequestTimeout: time.Second,
	}, testLogger(), nil)
	session := app.NewSession(res, mockdata.DemoUser, app.PartitionOptions{OwnFirstDinner: true}, testLogger())

	tmpl, err := ParseTemplates(web.Templates)
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	dial := func(baseURL string) DataStore { return datastore.NewClient(baseURL) }
	images := imageFunc(func(ctx context.Context, q string) (imagesearch.Result, error) {
		if strings.TrimSpace(q) == "" {
			return imagesearch.Result{}, imagesearch.ErrEmptyQuery
		}
		return imagesearch.Result{Query: q, Images: imagesearch.SampleImages, Fallback: true}, nil
	})

	h := NewTemplateHandler(session, dial, candidate, images, ws.NewHub(testLogger()), metrics.New(), tmpl, testLogger())
	h.now = func() time.Time { return testNow }
	return &fixture{h: h, url: srv.URL, reservation: rs}
}

func get(t *testing.T, hf http.HandlerFunc, target string, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	rec := httptest.NewRecorder()
	hf(rec, req)
	return rec
}

func post(t *testing.T, hf http.HandlerFunc, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	hf(rec, req)
	return rec
}

func assertContains(t *testing.T, rec *httptest.ResponseRecorder, want ...string) {
	t.Helper()
	body := rec.Body.String()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("body missing %q", w)
		}
	}
}

func TestIndexLoadsLiveDinners(t *testing.T) {
	f := newFixture(t, true)

	rec := get(t, f.h.Index, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec, "My Dinners", "Pizza &amp; Jazz", "Discover Dinners", "Vegan Delight", "Tiffany Chen")
	if strings.Contains(rec.Body.String(), "Using demo data") {
		t.Error("live load should not show the demo banner")
	}
	if st := f.h.session.State(); st.Source != app.SourceLive || st.BaseURL != f.url {
		t.Errorf("state = %v %q", st.Source, st.BaseURL)
	}
}

func TestIndexFallsBackToDemo(t *testing.T) {
	f := newFixture(t, false)

	rec := get(t, f.h.Index, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec, app.DemoBannerMessage, app.DemoBannerAction, "Vegan Delight (Demo)")

	st := f.h.session.State()
	if len(st.Owned) != 1 || len(st.Discoverable) != 2 {
		t.Errorf("partition = %d owned / %d discoverable, want 1/2", len(st.Owned), len(st.Discoverable))
	}
}

func TestDinnerListFilter(t *testing.T) {
	f := newFixture(t, true)

	rec := get(t, f.h.DinnerList, "/partials/dinners?filter=vegetarian")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec, "Vegan Delight")
	if strings.Contains(rec.Body.String(), "Tiffany Chen") {
		t.Error("gourmet dinner should be filtered out")
	}
	if got := f.h.session.State().Filter; got != "vegetarian" {
		t.Errorf("filter = %q", got)
	}

	// Without a parameter the selected filter stays.
	rec = get(t, f.h.DinnerList, "/partials/dinners")
	if strings.Contains(rec.Body.String(), "Tiffany Chen") {
		t.Error("filter should persist across list refreshes")
	}

	rec = get(t, f.h.DinnerList, "/partials/dinners?filter=cheap")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown filter status = %d, want 400", rec.Code)
	}
}

func TestDinnerPage(t *testing.T) {
	f := newFixture(t, true)

	rec := get(t, f.h.DinnerPage, "/dinners/2", "id", "2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec, "Reserve a Spot - $35", "No guests yet", "No specific dietary restrictions")

	rec = get(t, f.h.DinnerPage, "/dinners/1", "id", "1")
	assertContains(t, rec, `hx-get="/partials/dinners/1/edit"`)
	if strings.Contains(rec.Body.String(), "Reserve a Spot") {
		t.Error("hosts cannot reserve their own dinner")
	}

	rec = get(t, f.h.DinnerPage, "/dinners/999", "id", "999")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing dinner status = %d, want 404", rec.Code)
	}
	assertContains(t, rec, "Failed to load dinner details.")
}

func TestDinnerDetailDemo(t *testing.T) {
	f := newFixture(t, false)
	f.h.session.UseDemo()

	rec := get(t, f.h.DinnerDetail, "/partials/dinners/3", "id", "3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec, "Vegan Delight (Demo)", "All dishes will be vegan", "Demo")
}

func flowValues(step int, extra url.Values) url.Values {
	v := url.Values{
		"dinnerId":  {"2"},
		"title":     {"Dinner @ Tiffany's"},
		"step":      {strconv.Itoa(step)},
		"maxSeats":  {"5"},
		"price":     {"35"},
		"guestName": {"Ada"},
		"email":     {"ada@example.com"},
		"seats":     {"1"},
	}
	for k, vals := range extra {
		v[k] = vals
	}
	return v
}

func TestReservationFlow(t *testing.T) {
	f := newFixture(t, true)
	get(t, f.h.Index, "/")

	rec := get(t, f.h.ReserveForm, "/partials/dinners/2/reserve", "id", "2")
	if rec.Code != http.StatusOK {
		t.Fatalf("open status = %d", rec.Code)
	}
	assertContains(t, rec, `name="step" value="1"`, `name="maxSeats" value="5"`)

	rec = post(t, f.h.ReserveStep, "/partials/reservations/step", flowValues(1, url.Values{
		"action": {"next"}, "guestName": {""}, "email": {"not-an-email"},
	}))
	assertContains(t, rec, "Please enter your name", "Please enter a valid email address", `name="step" value="1"`)

	rec = post(t, f.h.ReserveStep, "/partials/reservations/step", flowValues(1, url.Values{"action": {"next"}}))
	assertContains(t, rec, `name="step" value="2"`)

	rec = post(t, f.h.ReserveStep, "/partials/reservations/step", flowValues(2, url.Values{
		"action": {"inc"}, "seats": {"5"},
	}))
	assertContains(t, rec, `name="seats" value="5"`)

	rec = post(t, f.h.ReserveSubmit, "/partials/reservations", flowValues(3, url.Values{
		"seats": {"2"}, "preferences": {"vegan", "bogus"},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}
	assertContains(t, rec, "Your reservation has been confirmed!")
	if rec.Header().Get("HX-Trigger") != "dinners-changed" {
		t.Errorf("HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
	}

	reservations, err := datastore.NewClient(f.url).ListReservations(context.Background(), "2")
	if err != nil {
		t.Fatalf("list reservations: %v", err)
	}
	if len(reservations) != 1 || reservations[0].Seats != 2 || reservations[0].GuestName != "Ada" {
		t.Fatalf("reservations = %+v", reservations)
	}
	if got := reservations[0].Preferences; len(got) != 1 || got[0] != "vegan" {
		t.Errorf("preferences = %v", got)
	}
}

func TestReserveSubmitCapsSeatsAtCapacity(t *testing.T) {
	f := newFixture(t, true)
	get(t, f.h.Index, "/")

	rec := post(t, f.h.ReserveSubmit, "/partials/reservations", flowValues(3, url.Values{
		"maxSeats": {"50"}, "seats": {"50"},
	}))
	assertContains(t, rec, "Your reservation has been confirmed!")

	reservations, err := datastore.NewClient(f.url).ListReservations(context.Background(), "2")
	if err != nil {
		t.Fatalf("list reservations: %v", err)
	}
	if len(reservations) != 1 || reservations[0].Seats != 5 {
		t.Fatalf("reservations = %+v, want 5 seats", reservations)
	}
}

func TestReserveSubmitRequiresSummaryStep(t *testing.T) {
	f := newFixture(t, true)

	rec := post(t, f.h.ReserveSubmit, "/partials/reservations", flowValues(2, nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReserveSubmitFailureStaysOnSummary(t *testing.T) {
	f := newFixture(t, false)
	f.h.session.UseDemo()

	rec := post(t, f.h.ReserveSubmit, "/partials/reservations", flowValues(3, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec, "Error creating reservation. Please try again.", "No response received from server", `name="step" value="3"`)
}

func TestReserveFormFullyBooked(t *testing.T) {
	f := newFixture(t, true)
	get(t, f.h.Index, "/")

	if _, err := f.reservation.Create(2, model.Reservation{GuestName: "Big Party", Seats: 6}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	rec := get(t, f.h.ReserveForm, "/partials/dinners/2/reserve", "id", "2")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	assertContains(t, rec, "fully booked")

	rec = get(t, f.h.DinnerPage, "/dinners/2", "id", "2")
	assertContains(t, rec, "Fully booked", `aria-valuenow="100"`)
}

func TestCreateDinner(t *testing.T) {
	f := newFixture(t, true)
	get(t, f.h.Index, "/")

	rec := post(t, f.h.SaveDinner, "/partials/dinners", url.Values{"editId": {""}, "title": {"  "}})
	assertContains(t, rec, "Please enter a dinner title")

	rec = post(t, f.h.SaveDinner, "/partials/dinners", url.Values{
		"editId": {""}, "title": {"Taco Night"}, "isPublic": {"false", "true"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec, "Your dinner event has been created!", "Create Dinner")

	var created model.Dinner
	for _, d := range f.h.session.State().Owned {
		if d.Title == "Taco Night" {
			created = d
		}
	}
	if created.ID.IsZero() {
		t.Fatal("new dinner should be listed as owned after reload")
	}
	if strings.HasPrefix(string(created.ID), "tmp-") {
		t.Errorf("id = %q, want the store's id", created.ID)
	}
	if created.Date != "2025-05-16" || created.Time != "19:00" || created.MaxGuests != 4 || created.Category != "casual" {
		t.Errorf("defaults = %+v", created)
	}
}

func TestEditDinner(t *testing.T) {
	f := newFixture(t, true)
	get(t, f.h.Index, "/")

	rec := get(t, f.h.EditDinnerForm, "/partials/dinners/1/edit", "id", "1")
	assertContains(t, rec, `name="editId" value="1"`, "Update Dinner", `value="2025-05-20T18:00"`)

	rec = get(t, f.h.EditDinnerForm, "/partials/dinners/2/edit", "id", "2")
	if rec.Code != http.StatusForbidden {
		t.Errorf("editing another host's dinner status = %d, want 403", rec.Code)
	}

	rec = post(t, f.h.SaveDinner, "/partials/dinners", url.Values{
		"editId": {"1"}, "title": {"Pizza & Blues"}, "price": {"30"}, "image": {""},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec, "Dinner updated successfully!", "Create Dinner", `name="editId" value=""`)

	d, err := datastore.NewClient(f.url).GetDinner(context.Background(), "1")
	if err != nil {
		t.Fatalf("get dinner: %v", err)
	}
	if d.Title != "Pizza & Blues" || d.Price != 30 || d.MaxGuests != 12 {
		t.Errorf("updated = %+v", d)
	}
	if d.Image != "https://images.unsplash.com/photo-1513104890138-7c749659a591" {
		t.Errorf("blank image should keep the existing one, got %q", d.Image)
	}
}

func TestImageSearch(t *testing.T) {
	f := newFixture(t, true)

	rec := get(t, f.h.ImageSearch, "/partials/images?q=pasta")
	assertContains(t, rec, "Showing sample images.", imagesearch.SampleImages[0].Label)

	rec = get(t, f.h.ImageSearch, "/partials/images?q=")
	assertContains(t, rec, "Please enter a search term for images")
}

func TestDataSourceActions(t *testing.T) {
	f := newFixture(t, true)

	rec := post(t, f.h.UseDemo, "/demo", nil)
	assertContains(t, rec, app.DemoBannerMessage, "Pizza &amp; Jazz (Demo)")

	rec = post(t, f.h.Reconnect, "/reconnect", nil)
	if strings.Contains(rec.Body.String(), app.DemoBannerMessage) {
		t.Error("reconnect should clear the demo banner")
	}
	if f.h.session.State().Source != app.SourceLive {
		t.Error("reconnect should load live data")
	}

	f.h.session.UseDemo()
	rec = post(t, f.h.DismissBanner, "/banner/dismiss", nil)
	if strings.Contains(rec.Body.String(), app.DemoBannerMessage) {
		t.Error("dismissed banner still rendered")
	}
	assertContains(t, rec, "(Demo)")
}

func TestFlowFromValues(t *testing.T) {
	good := flowValues(2, url.Values{"seats": {"9"}, "preferences": {"vegan", "vegan", "nut-allergy"}})
	f, err := flowFromValues(good)
	if err != nil {
		t.Fatalf("flowFromValues: %v", err)
	}
	if f.Step != reservation.StepGuests || f.Seats != 5 || len(f.Preferences) != 2 {
		t.Errorf("flow = %+v", f)
	}

	bad := map[string]url.Values{
		"step":     flowValues(2, url.Values{"step": {"4"}}),
		"maxSeats": flowValues(2, url.Values{"maxSeats": {"0"}}),
		"price":    flowValues(2, url.Values{"price": {"free"}}),
		"NaN":      flowValues(2, url.Values{"price": {"NaN"}}),
		"Inf":      flowValues(2, url.Values{"price": {"+Inf"}}),
		"dinnerId": flowValues(2, url.Values{"dinnerId": {" "}}),
	}
	for name, v := range bad {
		if _, err := flowFromValues(v); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
