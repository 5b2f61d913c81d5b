// Package proxy forwards /api requests to the data store with permissive
// CORS, for pages that cannot reach the data store directly.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/middleware"
)

// Prefix is stripped before forwarding.
const Prefix = "/api"

// New returns a reverse proxy to target that strips Prefix from the path
// and answers {"error":"Proxy error","message":...} with 500 when the
// target cannot be reached.
func New(target *url.URL, logger *slog.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = stripPrefix(pr.In.URL.Path)
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			// The proxy's own CORS headers win over the target's.
			resp.Header.Del("Access-Control-Allow-Origin")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("proxy error", "method", r.Method, "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "Proxy error",
				"message": err.Error(),
			})
		},
	}
}

func stripPrefix(p string) string {
	p = strings.TrimPrefix(p, Prefix)
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return p
}

// Router mounts the proxy under Prefix with CORS, request logging and a
// health endpoint.
func Router(target *url.URL, logger *slog.Logger, observers ...middleware.Observer) http.Handler {
	logger = logger.With("component", "proxy")

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger, observers...))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	p := New(target, logger)
	r.Handle(Prefix, p)
	r.Handle(Prefix+"/*", p)
	return r
}

// Check lists the target's dinners once and logs the outcome.
func Check(ctx context.Context, target *url.URL, logger *slog.Logger) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dinners, err := datastore.NewClient(target.String()).ListDinners(ctx)
	if err != nil {
		logger.Error("cannot reach data store", "target", target.String(), "error", err)
		return 0, err
	}
	logger.Info("connected to data store", "target", target.String(), "dinners", len(dinners))
	return len(dinners), nil
}
