package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/model"
)

const maxErrorBody = 512

// Client talks to the dinners REST data store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	plain      bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithPlainRequests omits the JSON Accept and Content-Type headers on reads.
func WithPlainRequests() Option {
	return func(c *Client) { c.plain = true }
}

// NewClient creates a client for the data store rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// ListDinners returns every dinner in store order.
func (c *Client) ListDinners(ctx context.Context) ([]model.Dinner, error) {
	var dinners []model.Dinner
	if err := c.do(ctx, http.MethodGet, "/dinners", nil, &dinners); err != nil {
		return nil, err
	}
	if dinners == nil {
		dinners = []model.Dinner{}
	}
	return dinners, nil
}

// GetDinner fetches one dinner. A missing dinner yields an error matching ErrNotFound.
func (c *Client) GetDinner(ctx context.Context, id model.ID) (*model.Dinner, error) {
	var d model.Dinner
	if err := c.do(ctx, http.MethodGet, "/dinners/"+url.PathEscape(id.String()), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDinner posts a new dinner and returns the stored copy with its
// server-assigned id.
func (c *Client) CreateDinner(ctx context.Context, d model.Dinner) (*model.Dinner, error) {
	var created model.Dinner
	if err := c.do(ctx, http.MethodPost, "/dinners", d, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// PatchDinner sends only the fields set in patch.
func (c *Client) PatchDinner(ctx context.Context, id model.ID, patch model.DinnerPatch) (*model.Dinner, error) {
	var updated model.Dinner
	if err := c.do(ctx, http.MethodPatch, "/dinners/"+url.PathEscape(id.String()), patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListReservations returns reservations for dinnerID, or all of them when
// dinnerID is empty.
func (c *Client) ListReservations(ctx context.Context, dinnerID model.ID) ([]model.Reservation, error) {
	path := "/reservations"
	if !dinnerID.IsZero() {
		path += "?dinnerId=" + url.QueryEscape(dinnerID.String())
	}
	var reservations []model.Reservation
	if err := c.do(ctx, http.MethodGet, path, nil, &reservations); err != nil {
		return nil, err
	}
	if reservations == nil {
		reservations = []model.Reservation{}
	}
	return reservations, nil
}

// CreateReservation posts a reservation.
func (c *Client) CreateReservation(ctx context.Context, r model.Reservation) (*model.Reservation, error) {
	var created model.Reservation
	if err := c.do(ctx, http.MethodPost, "/reservations", r, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	target := c.baseURL + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !c.plain {
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{URL: target, Err: err}
	}
	return nil
}
