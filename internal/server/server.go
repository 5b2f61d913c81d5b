package server

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/app"
	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/handler"
	"github.com/repoeli/dinner-hoting-app/internal/imagesearch"
	"github.com/repoeli/dinner-hoting-app/internal/metrics"
	"github.com/repoeli/dinner-hoting-app/internal/middleware"
	"github.com/repoeli/dinner-hoting-app/internal/mockdata"
	"github.com/repoeli/dinner-hoting-app/internal/proxy"
	"github.com/repoeli/dinner-hoting-app/internal/resolver"
	ws "github.com/repoeli/dinner-hoting-app/internal/websocket"
	"github.com/repoeli/dinner-hoting-app/web"
)

// Form posts allowed per client and minute.
const (
	formRateLimit  = 30
	formRatePeriod = time.Minute
)

// Config holds the web app settings the server needs.
type Config struct {
	Candidates     []resolver.Candidate
	RequestTimeout time.Duration
	OwnFirstDinner bool
	// DatastoreURL mounts an /api/ reverse proxy to the data store, which
	// makes the same-origin candidate reachable.
	DatastoreURL *url.URL
	Images       imagesearch.Config
}

type Server struct {
	hub             *ws.Hub
	session         *app.Session
	templateHandler *handler.TemplateHandler
	rateLimiter     *middleware.RateLimiter
	metrics         *metrics.Metrics
	proxyTarget     *url.URL
	logger          *slog.Logger
}

// New wires the resolver, session and handlers.
func New(cfg Config, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	tmpl, err := handler.ParseTemplates(web.Templates)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	res := resolver.New(resolver.Config{
		Candidates:     cfg.Candidates,
		RequestTimeout: cfg.RequestTimeout,
	}, logger, m)
	session := app.NewSession(res, mockdata.DemoUser, app.PartitionOptions{OwnFirstDinner: cfg.OwnFirstDinner}, logger)

	timeout := cfg.RequestTimeout
	dial := func(baseURL string) handler.DataStore {
		if timeout > 0 {
			return datastore.NewClient(baseURL, datastore.WithTimeout(timeout))
		}
		return datastore.NewClient(baseURL)
	}
	images := imagesearch.NewService(cfg.Images, logger)
	th := handler.NewTemplateHandler(session, dial, res.Primary().BaseURL, images, hub, m, tmpl, logger.With("component", "template"))

	return &Server{
		hub:             hub,
		session:         session,
		templateHandler: th,
		rateLimiter:     middleware.NewRateLimiter(formRateLimit, formRatePeriod),
		metrics:         m,
		proxyTarget:     cfg.DatastoreURL,
		logger:          logger,
	}, nil
}

// Session returns the shared browse state.
func (s *Server) Session() *app.Session {
	return s.session
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	th := s.templateHandler

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	if s.proxyTarget != nil {
		mux.Handle("/api/", middleware.CORS(proxy.New(s.proxyTarget, s.logger.With("component", "proxy"))))
	}

	// Pages
	mux.HandleFunc("GET /{$}", th.Index)
	mux.HandleFunc("GET /dinners/{id}", th.DinnerPage)

	// Lists and detail partials (HTMX)
	mux.HandleFunc("GET /partials/dinners", th.DinnerList)
	mux.HandleFunc("GET /partials/dinners/{id}", th.DinnerDetail)

	// Data source actions
	mux.HandleFunc("POST /reload", th.Reload)
	mux.HandleFunc("POST /demo", th.UseDemo)
	mux.HandleFunc("POST /reconnect", th.Reconnect)
	mux.HandleFunc("POST /banner/dismiss", th.DismissBanner)

	// Reservation flow partials
	mux.HandleFunc("GET /partials/dinners/{id}/reserve", th.ReserveForm)
	mux.HandleFunc("POST /partials/reservations/step", th.ReserveStep)
	mux.Handle("POST /partials/reservations", s.rateLimiter.Limit(http.HandlerFunc(th.ReserveSubmit)))

	// Authoring partials
	mux.HandleFunc("GET /partials/dinners/new", th.NewDinnerForm)
	mux.HandleFunc("GET /partials/dinners/{id}/edit", th.EditDinnerForm)
	mux.Handle("POST /partials/dinners", s.rateLimiter.Limit(http.HandlerFunc(th.SaveDinner)))
	mux.HandleFunc("GET /partials/images", th.ImageSearch)

	return middleware.RequestLogger(s.logger.With("component", "http"), s.metrics.ObserveRequest)(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	st := s.session.State()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"source":  st.Source.String(),
		"baseUrl": st.BaseURL,
	})
}
