// Package handler renders the dinners web app: full pages, HTMX partials
// and the actions that reload or switch the data source.
package handler

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/app"
	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/filter"
	"github.com/repoeli/dinner-hoting-app/internal/imagesearch"
	"github.com/repoeli/dinner-hoting-app/internal/metrics"
	"github.com/repoeli/dinner-hoting-app/internal/mockdata"
	"github.com/repoeli/dinner-hoting-app/internal/model"
	"github.com/repoeli/dinner-hoting-app/internal/view"
	ws "github.com/repoeli/dinner-hoting-app/internal/websocket"
)

const appTitle = "Supper Club"

// DataStore is the part of the REST data store the pages use.
// *datastore.Client implements it.
type DataStore interface {
	ListDinners(ctx context.Context) ([]model.Dinner, error)
	GetDinner(ctx context.Context, id model.ID) (*model.Dinner, error)
	CreateDinner(ctx context.Context, d model.Dinner) (*model.Dinner, error)
	PatchDinner(ctx context.Context, id model.ID, patch model.DinnerPatch) (*model.Dinner, error)
	ListReservations(ctx context.Context, dinnerID model.ID) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, r model.Reservation) (*model.Reservation, error)
}

// Dialer returns a data store client rooted at baseURL.
type Dialer func(baseURL string) DataStore

// ImageSearcher finds pictures for the dinner form.
type ImageSearcher interface {
	Search(ctx context.Context, query string) (imagesearch.Result, error)
}

type TemplateHandler struct {
	session   *app.Session
	dial      Dialer
	primary   string
	images    ImageSearcher
	hub       *ws.Hub
	metrics   *metrics.Metrics
	templates *template.Template
	logger    *slog.Logger
	now       func() time.Time
}

// ParseTemplates parses every page and partial in fsys.
func ParseTemplates(fsys fs.FS) (*template.Template, error) {
	return template.New("").Funcs(view.Funcs()).ParseFS(fsys, "templates/*.html")
}

// NewTemplateHandler wires the handler. primary is the data store base URL
// that writes go to while demo data is shown.
func NewTemplateHandler(session *app.Session, dial Dialer, primary string, images ImageSearcher, hub *ws.Hub, m *metrics.Metrics, tmpl *template.Template, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{
		session:   session,
		dial:      dial,
		primary:   primary,
		images:    images,
		hub:       hub,
		metrics:   m,
		templates: tmpl,
		logger:    logger,
		now:       time.Now,
	}
}

// alert is the data of the "alert" partial.
type alert struct {
	Level   string
	Heading string
	Message string
	Steps   []string
}

func successAlert(msg string) *alert { return &alert{Level: "success", Message: msg} }

// errorAlert explains err. Connection and server failures carry the
// troubleshooting steps for baseURL.
func errorAlert(prefix string, err error, baseURL string) *alert {
	a := &alert{Level: "danger", Message: prefix + " " + datastore.Describe(err)}
	switch datastore.Classify(err) {
	case datastore.KindConnectivity, datastore.KindServer:
		a.Heading = "Connection Error"
		a.Steps = datastore.Troubleshooting(baseURL)
	}
	return a
}

type chip struct {
	Key    filter.Key
	Label  string
	Count  int
	Active bool
}

// listPage is the data of the index page and the "dinners" partial.
type listPage struct {
	Title    string
	User     model.User
	Banner   app.Banner
	LoadErr  *app.LoadError
	Demo     bool
	Owned    []view.Card
	Discover []view.Card
	Chips    []chip
}

type detailPage struct {
	Title  string
	User   model.User
	Detail view.Detail
	Alert  *alert
}

// ensureLoaded runs the first load when nothing has been loaded yet.
func (h *TemplateHandler) ensureLoaded(ctx context.Context) app.State {
	st := h.session.State()
	if st.Source == app.SourceNone && st.LoadErr == nil {
		st = h.session.Load(ctx)
	}
	return st
}

// store returns the client for writes and lookups: the URL that answered
// the last load, or the primary URL while demo data is shown.
func (h *TemplateHandler) store(st app.State) (DataStore, string) {
	baseURL := st.BaseURL
	if baseURL == "" {
		baseURL = h.primary
	}
	return h.dial(baseURL), baseURL
}

func (h *TemplateHandler) listPage(ctx context.Context, st app.State) listPage {
	now := h.now()

	var seats, bookings map[model.ID]int
	if st.Source == app.SourceLive {
		client, _ := h.store(st)
		reservations, err := client.ListReservations(ctx, "")
		if err != nil {
			h.logger.Warn("list reservations for cards", "error", err)
		}
		seats = model.SeatsByDinner(reservations)
		bookings = view.BookingsByDinner(reservations)
	}

	counts := st.Counts(now)
	chips := make([]chip, 0, len(filter.Keys))
	for _, k := range filter.Keys {
		chips = append(chips, chip{Key: k, Label: k.Label(), Count: counts[k], Active: k == st.Filter})
	}

	return listPage{
		Title:    appTitle,
		User:     h.session.User(),
		Banner:   st.Banner,
		LoadErr:  st.LoadErr,
		Demo:     st.Source == app.SourceDemo,
		Owned:    view.Cards(st.Owned, seats, bookings, true, now),
		Discover: view.Cards(st.Visible(now), seats, bookings, false, now),
		Chips:    chips,
	}
}

func dinnerNotFound(id model.ID) error {
	return fmt.Errorf("Dinner with ID %s %w", id, datastore.ErrNotFound)
}

// lookupDinner fetches one dinner and its reservations. A failed detail
// request falls back to listing every dinner. Demo data is read from the
// embedded dataset and has no reservations.
func (h *TemplateHandler) lookupDinner(ctx context.Context, st app.State, id model.ID) (model.Dinner, []model.Reservation, error) {
	if st.Source == app.SourceDemo {
		d, ok := mockdata.Dinner(id)
		if !ok {
			return model.Dinner{}, nil, dinnerNotFound(id)
		}
		return d, nil, nil
	}

	client, _ := h.store(st)
	d, err := client.GetDinner(ctx, id)
	if err != nil || d == nil {
		h.logger.Debug("dinner detail failed, listing all", "id", id, "error", err)
		all, listErr := client.ListDinners(ctx)
		if listErr != nil {
			return model.Dinner{}, nil, listErr
		}
		d = nil
		for i := range all {
			if all[i].ID == id {
				d = &all[i]
				break
			}
		}
		if d == nil {
			return model.Dinner{}, nil, dinnerNotFound(id)
		}
	}

	reservations, err := client.ListReservations(ctx, id)
	if err != nil {
		h.logger.Warn("list reservations", "dinner", id, "error", err)
		reservations = nil
	}
	return *d, reservations, nil
}

func (h *TemplateHandler) detail(d model.Dinner, reservations []model.Reservation, st app.State) view.Detail {
	owner := app.Owns(d, h.session.User(), h.session.Options())
	det := view.NewDetail(d, reservations, owner, h.now())
	det.Demo = st.Source == app.SourceDemo
	return det
}

func (h *TemplateHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (h *TemplateHandler) renderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
		fmt.Fprint(w, `<div class="alert alert-danger">Template error</div>`)
	}
}

func (h *TemplateHandler) renderAlert(w http.ResponseWriter, status int, a *alert) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "alert", a); err != nil {
		h.logger.Error("template error", "template", "alert", "error", err)
	}
}

// notFoundStatus maps lookup errors to a status code.
func notFoundStatus(err error) int {
	if errors.Is(err, datastore.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// changed asks open lists and details on this page to re-render.
func changed(w http.ResponseWriter) {
	w.Header().Set("HX-Trigger", "dinners-changed")
}
