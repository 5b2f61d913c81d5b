package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/metrics"
	"github.com/repoeli/dinner-hoting-app/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newServer(t *testing.T, status int, body string) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.hits.Add(1)
		if r.URL.Path != "/dinners" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

const twoDinners = `[{"id":"1","title":"A","maxGuests":4},{"id":2,"title":"B","maxGuests":6}]`

func TestResolveFirstCandidate(t *testing.T) {
	first := newServer(t, http.StatusOK, twoDinners)
	second := newServer(t, http.StatusOK, `[]`)

	r := New(Config{Candidates: []Candidate{
		{Name: "first", BaseURL: first.URL},
		{Name: "second", BaseURL: second.URL},
	}}, testLogger(), nil)

	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Primary || res.Candidate.Name != "first" || res.Strategy != "primary" {
		t.Errorf("resolution = %+v", res)
	}
	if len(res.Dinners) != 2 || res.Dinners[1].ID != model.ID("2") {
		t.Errorf("dinners = %+v", res.Dinners)
	}
	if second.hits.Load() != 0 {
		t.Errorf("later candidate was consulted %d times", second.hits.Load())
	}
}

func TestResolveShortCircuits(t *testing.T) {
	winner := newServer(t, http.StatusOK, twoDinners)
	after := newServer(t, http.StatusOK, twoDinners)

	m := metrics.New()
	r := New(Config{Candidates: []Candidate{
		{Name: "down", BaseURL: deadURL(t)},
		{Name: "up", BaseURL: winner.URL},
		{Name: "after", BaseURL: after.URL},
	}}, testLogger(), m)

	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Primary {
		t.Error("second candidate should not count as primary")
	}
	if res.Candidate.BaseURL != winner.URL {
		t.Errorf("candidate = %+v", res.Candidate)
	}
	// Both strategies fail on the dead candidate, then the first succeeds.
	if len(res.Attempts) != 3 {
		t.Errorf("attempts = %d, want 3", len(res.Attempts))
	}
	if after.hits.Load() != 0 {
		t.Errorf("candidate after the winner was consulted")
	}
}

func TestResolveFallsBackToSecondaryStrategy(t *testing.T) {
	// Rejects requests carrying the JSON Accept header of the primary strategy.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "" {
			http.Error(w, "unsupported", http.StatusNotAcceptable)
			return
		}
		fmt.Fprint(w, twoDinners)
	}))
	defer srv.Close()

	r := New(Config{Candidates: []Candidate{{Name: "picky", BaseURL: srv.URL}}}, testLogger(), nil)

	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Strategy != "secondary" || !res.Primary {
		t.Errorf("resolution = %+v", res)
	}
}

func TestResolveExhausted(t *testing.T) {
	broken := newServer(t, http.StatusInternalServerError, `boom`)
	garbage := newServer(t, http.StatusOK, `<html>`)

	r := New(Config{Candidates: []Candidate{
		{Name: "down", BaseURL: deadURL(t)},
		{Name: "broken", BaseURL: broken.URL},
		{Name: "garbage", BaseURL: garbage.URL},
	}}, testLogger(), nil)

	res, err := r.Resolve(context.Background())
	if res != nil {
		t.Fatalf("expected no resolution, got %+v", res)
	}
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}

	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("err is %T, want *ExhaustedError", err)
	}
	if len(ex.Attempts) != 6 {
		t.Errorf("attempts = %d, want 6", len(ex.Attempts))
	}
	if len(ex.Unwrap()) != 6 {
		t.Errorf("combined errors = %d, want 6", len(ex.Unwrap()))
	}
	if !strings.Contains(err.Error(), "broken via primary") {
		t.Errorf("error text %q lacks attempt detail", err.Error())
	}
}

func TestResolveRescansEveryCall(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer first.Close()
	second := newServer(t, http.StatusOK, `[]`)

	r := New(Config{Candidates: []Candidate{
		{Name: "first", BaseURL: first.URL},
		{Name: "second", BaseURL: second.URL},
	}}, testLogger(), nil)

	res, err := r.Resolve(context.Background())
	if err != nil || res.Candidate.Name != "second" {
		t.Fatalf("first resolve = %+v, %v", res, err)
	}

	fail.Store(false)
	res, err = r.Resolve(context.Background())
	if err != nil || res.Candidate.Name != "first" {
		t.Fatalf("second resolve = %+v, %v", res, err)
	}
}

func TestResolveAttemptTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		fmt.Fprint(w, `[]`)
	}))
	defer slow.Close()
	fast := newServer(t, http.StatusOK, twoDinners)

	r := New(Config{
		Candidates: []Candidate{
			{Name: "slow", BaseURL: slow.URL},
			{Name: "fast", BaseURL: fast.URL},
		},
		RequestTimeout: 25 * time.Millisecond,
	}, testLogger(), nil)

	start := time.Now()
	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Candidate.Name != "fast" {
		t.Errorf("candidate = %s", res.Candidate.Name)
	}
	if elapsed := time.Since(start); elapsed > 800*time.Millisecond {
		t.Errorf("resolve took %v, attempts were not bounded", elapsed)
	}
}

func TestResolveCancelledContext(t *testing.T) {
	srv := newServer(t, http.StatusOK, `[]`)
	r := New(Config{Candidates: []Candidate{{Name: "a", BaseURL: srv.URL}}}, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if srv.hits.Load() != 0 {
		t.Error("cancelled resolve should not hit the network")
	}
}
