package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/metrics"
	"github.com/repoeli/dinner-hoting-app/internal/model"
)

// ErrExhausted is matched by the error Resolve returns when no
// candidate/strategy pair succeeded.
var ErrExhausted = errors.New("no data store candidate reachable")

// Attempt records one candidate/strategy try.
type Attempt struct {
	Candidate Candidate
	Strategy  string
	Duration  time.Duration
	Err       error
}

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Dinners   []model.Dinner
	Candidate Candidate
	Strategy  string
	// Primary is true when the first configured candidate answered.
	Primary  bool
	Attempts []Attempt
}

// ExhaustedError carries every failed attempt.
type ExhaustedError struct {
	Attempts []Attempt
	err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrExhausted, e.err)
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

func (e *ExhaustedError) Unwrap() []error { return multierr.Errors(e.err) }

// Resolver discovers a reachable data store.
type Resolver struct {
	candidates []Candidate
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Config holds resolver settings.
type Config struct {
	Candidates []Candidate
	Strategies []Strategy
	// RequestTimeout is the primary strategy's timeout. The secondary
	// strategy waits twice as long, which also bounds each attempt.
	RequestTimeout time.Duration
}

// New creates a resolver. Missing settings fall back to the embedded
// candidates and the default strategies. m may be nil.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Resolver {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if len(cfg.Candidates) == 0 {
		cfg.Candidates = DefaultCandidates()
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = DefaultStrategies(cfg.RequestTimeout)
	}
	return &Resolver{
		candidates: cfg.Candidates,
		strategies: cfg.Strategies,
		timeout:    2 * cfg.RequestTimeout,
		logger:     logger.With("component", "resolver"),
		metrics:    m,
	}
}

// Candidates returns the configured candidates in order.
func (r *Resolver) Candidates() []Candidate {
	return append([]Candidate(nil), r.candidates...)
}

// Primary returns the first candidate.
func (r *Resolver) Primary() Candidate { return r.candidates[0] }

// Resolve tries each candidate in order and each strategy within it,
// stopping at the first success. Every call starts again from the top.
func (r *Resolver) Resolve(ctx context.Context) (*Resolution, error) {
	var (
		attempts []Attempt
		combined error
	)
	for i, c := range r.candidates {
		for _, s := range r.strategies {
			if err := ctx.Err(); err != nil {
				combined = multierr.Append(combined, err)
				return nil, r.exhausted(attempts, combined)
			}

			dinners, a := r.attempt(ctx, c, s)
			attempts = append(attempts, a)
			if a.Err == nil {
				r.logger.Debug("data store resolved", "candidate", c.Name, "url", c.BaseURL, "strategy", s.Name(), "dinners", len(dinners))
				r.observeResult(i == 0)
				return &Resolution{
					Dinners:   dinners,
					Candidate: c,
					Strategy:  s.Name(),
					Primary:   i == 0,
					Attempts:  attempts,
				}, nil
			}
			combined = multierr.Append(combined, fmt.Errorf("%s via %s: %w", c.Name, s.Name(), a.Err))
		}
	}
	return nil, r.exhausted(attempts, combined)
}

func (r *Resolver) attempt(ctx context.Context, c Candidate, s Strategy) ([]model.Dinner, Attempt) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	dinners, err := s.FetchDinners(ctx, c.BaseURL)
	a := Attempt{Candidate: c, Strategy: s.Name(), Duration: time.Since(start), Err: err}

	outcome := "success"
	if err != nil {
		outcome = datastore.Classify(err).String()
		r.logger.Warn("data store attempt failed",
			"candidate", c.Name,
			"url", c.BaseURL,
			"strategy", s.Name(),
			"kind", outcome,
			"duration", a.Duration,
			"error", err,
		)
	}
	if r.metrics != nil {
		r.metrics.ResolverAttempts.WithLabelValues(c.Name, s.Name(), outcome).Inc()
	}
	return dinners, a
}

func (r *Resolver) exhausted(attempts []Attempt, combined error) error {
	r.logger.Warn("all data store candidates failed", "attempts", len(attempts))
	if r.metrics != nil {
		r.metrics.Resolutions.WithLabelValues("exhausted").Inc()
	}
	return &ExhaustedError{Attempts: attempts, err: combined}
}

func (r *Resolver) observeResult(primary bool) {
	if r.metrics == nil {
		return
	}
	if primary {
		r.metrics.Resolutions.WithLabelValues("primary").Inc()
		return
	}
	r.metrics.Resolutions.WithLabelValues("alternate").Inc()
}
