package resolver

import (
	"context"
	"net/http"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/datastore"
	"github.com/repoeli/dinner-hoting-app/internal/model"
)

// Strategy is one way of fetching the dinner list from a base URL.
type Strategy interface {
	Name() string
	FetchDinners(ctx context.Context, baseURL string) ([]model.Dinner, error)
}

type clientStrategy struct {
	name string
	hc   *http.Client
	opts []datastore.Option
}

func (s *clientStrategy) Name() string { return s.name }

func (s *clientStrategy) FetchDinners(ctx context.Context, baseURL string) ([]model.Dinner, error) {
	opts := append([]datastore.Option{datastore.WithHTTPClient(s.hc)}, s.opts...)
	return datastore.NewClient(baseURL, opts...).ListDinners(ctx)
}

// PrimaryStrategy requests JSON explicitly over the shared transport.
func PrimaryStrategy(timeout time.Duration) Strategy {
	return &clientStrategy{
		name: "primary",
		hc:   &http.Client{Timeout: timeout},
	}
}

// SecondaryStrategy issues a bare GET on its own transport with keep-alives
// disabled, so a wedged pooled connection cannot fail both strategies.
func SecondaryStrategy(timeout time.Duration) Strategy {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DisableKeepAlives = true
	return &clientStrategy{
		name: "secondary",
		hc:   &http.Client{Timeout: timeout, Transport: tr},
		opts: []datastore.Option{datastore.WithPlainRequests()},
	}
}

// DefaultStrategies returns primary then secondary.
func DefaultStrategies(timeout time.Duration) []Strategy {
	return []Strategy{PrimaryStrategy(timeout), SecondaryStrategy(2 * timeout)}
}
