package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/filter"
	"github.com/repoeli/dinner-hoting-app/internal/model"
	"github.com/repoeli/dinner-hoting-app/internal/resolver"
)

// Resolver finds a reachable data store and returns its dinners.
type Resolver interface {
	Resolve(ctx context.Context) (*resolver.Resolution, error)
}

// Session owns the shared browse state. Every load takes a sequence number
// when it starts; a result is committed only if no newer load has
// committed already, so the newest-started load wins.
type Session struct {
	state    atomic.Pointer[State]
	seq      atomic.Uint64
	resolver Resolver
	user     model.User
	opts     PartitionOptions
	logger   *slog.Logger
	now      func() time.Time
}

// NewSession creates a session in the initial state.
func NewSession(r Resolver, user model.User, opts PartitionOptions, logger *slog.Logger) *Session {
	s := &Session{
		resolver: r,
		user:     user,
		opts:     opts,
		logger:   logger.With("component", "session"),
		now:      time.Now,
	}
	initial := Initial()
	s.state.Store(&initial)
	return s
}

// User returns the current user.
func (s *Session) User() model.User { return s.user }

// Options returns the ownership options.
func (s *Session) Options() PartitionOptions { return s.opts }

// State returns the current snapshot.
func (s *Session) State() State { return *s.state.Load() }

// Load resolves the data store and installs the result. When every
// candidate fails the demo dataset is installed instead, and candidates
// that answered with an error are named on the banner. Any other error
// keeps the previous dinners and is recorded. A load whose context ends is
// not committed. A result superseded by a newer load is discarded and the
// newer state returned.
func (s *Session) Load(ctx context.Context) State {
	seq := s.seq.Add(1)
	res, err := s.resolver.Resolve(ctx)
	if ctx.Err() != nil {
		s.logger.Debug("load abandoned", "seq", seq, "error", ctx.Err())
		return s.State()
	}

	next, committed := s.commit(seq, func(cur State) State {
		if err == nil {
			return cur.Loaded(res.Dinners, res.Candidate.BaseURL, res.Primary, s.user, s.opts, s.now())
		}
		var ex *resolver.ExhaustedError
		if errors.As(err, &ex) {
			return cur.Demo(s.user, s.opts, s.now()).WithReasons(serverReasons(ex))
		}
		return cur.Failed(loadError(err, cur.BaseURL))
	})
	if !committed {
		s.logger.Debug("discarded superseded load", "seq", seq, "current", next.Seq)
		return next
	}
	if err != nil {
		s.logger.Warn("dinner load fell back", "seq", seq, "source", next.Source, "error", err)
	} else {
		s.logger.Info("dinners loaded", "seq", seq, "url", res.Candidate.BaseURL, "strategy", res.Strategy, "count", len(res.Dinners))
	}
	return next
}

// UseDemo installs the demo dataset. It supersedes loads in flight.
func (s *Session) UseDemo() State {
	seq := s.seq.Add(1)
	next, _ := s.commit(seq, func(cur State) State {
		return cur.Demo(s.user, s.opts, s.now())
	})
	return next
}

// Reconnect clears the banner and restarts a full resolution.
func (s *Session) Reconnect(ctx context.Context) State {
	s.update(State.ClearBanner)
	return s.Load(ctx)
}

// SetFilter selects k, replacing the previous filter.
func (s *Session) SetFilter(k filter.Key) State {
	return s.update(func(cur State) State { return cur.WithFilter(k) })
}

// DismissBanner removes the banner without reloading.
func (s *Session) DismissBanner() State {
	return s.update(State.ClearBanner)
}

func (s *Session) commit(seq uint64, fn func(State) State) (State, bool) {
	for {
		cur := s.state.Load()
		if cur.Seq > seq {
			return *cur, false
		}
		next := fn(*cur)
		next.Seq = seq
		if s.state.CompareAndSwap(cur, &next) {
			return next, true
		}
	}
}

func (s *Session) update(fn func(State) State) State {
	for {
		cur := s.state.Load()
		next := fn(*cur)
		if s.state.CompareAndSwap(cur, &next) {
			return next
		}
	}
}

// serverReasons describes the attempts that reached a server. Connectivity
// failures are left out; the demo banner already covers them.
func serverReasons(ex *resolver.ExhaustedError) []string {
	var reasons []string
	for _, a := range ex.Attempts {
		if datastore.Classify(a.Err) == datastore.KindConnectivity {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("%s (%s): %s", a.Candidate.BaseURL, a.Strategy, datastore.Describe(a.Err)))
	}
	return reasons
}

func loadError(err error, baseURL string) LoadError {
	le := LoadError{Message: "Unable to load dinners: " + datastore.Describe(err)}
	if baseURL != "" {
		le.Troubleshooting = datastore.Troubleshooting(baseURL)
	}
	return le
}
