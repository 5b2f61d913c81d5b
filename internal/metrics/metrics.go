package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the web app.
type Metrics struct {
	ResolverAttempts    *prometheus.CounterVec
	Resolutions         *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	DinnersCreated      prometheus.Counter
	DinnersUpdated      prometheus.Counter
	ReservationsCreated prometheus.Counter
	ImageSearches       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ResolverAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dinners_resolver_attempts_total",
			Help: "Data store connection attempts by candidate, strategy and outcome",
		}, []string{"candidate", "strategy", "outcome"}),

		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dinners_resolutions_total",
			Help: "Completed dinner loads by result (primary, alternate, exhausted)",
		}, []string{"result"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dinners_http_requests_total",
			Help: "HTTP requests served by method and status code",
		}, []string{"method", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dinners_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),

		DinnersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "dinners_created_total",
			Help: "Dinners created through the authoring form",
		}),

		DinnersUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "dinners_updated_total",
			Help: "Dinners edited through the authoring form",
		}),

		ReservationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "dinners_reservations_created_total",
			Help: "Reservations submitted through the reservation flow",
		}),

		ImageSearches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dinners_image_searches_total",
			Help: "Image searches by result source (provider, fallback)",
		}, []string{"source"}),

		gatherer: g,
	}
}

// ObserveRequest matches middleware.Observer.
func (m *Metrics) ObserveRequest(r *http.Request, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(r.Method).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
