package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/datastore"
)

const (
	cacheTTL = 30 * time.Minute
	perPage  = 6
)

// ErrEmptyQuery is returned for a blank search term.
var ErrEmptyQuery = fmt.Errorf("Please enter a search term for images: %w", datastore.ErrValidation)

// Config holds image search configuration from environment variables.
type Config struct {
	AccessKey string
}

// Image is one selectable picture.
type Image struct {
	Thumb   string
	Regular string
	Label   string
}

// Result is what a search returns. Fallback is set when the images are the
// built-in samples rather than provider results.
type Result struct {
	Query    string
	Images   []Image
	Fallback bool
}

// SampleImages are offered when the provider is unavailable.
var SampleImages = []Image{
	sample("https://images.unsplash.com/photo-1555939594-58d7cb561ad1", "Food Plate"),
	sample("https://images.unsplash.com/photo-1565299624946-b28f40a0ae38", "Pizza"),
	sample("https://images.unsplash.com/photo-1513104890138-7c749659a591", "Pasta"),
	sample("https://images.unsplash.com/photo-1498837167922-ddd27525d352", "Salad"),
	sample("https://images.unsplash.com/photo-1504674900247-0877df9cc836", "Meals"),
}

func sample(u, label string) Image {
	return Image{Thumb: u + "?w=200&h=200", Regular: u, Label: label}
}

type cacheEntry struct {
	images  []Image
	fetched time.Time
}

// Service searches Unsplash for dinner pictures and caches results per query.
type Service struct {
	config  Config
	client  *http.Client
	baseURL string
	logger  *slog.Logger
	mu      sync.RWMutex
	cache   map[string]cacheEntry
}

// NewService creates a new image search service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	return &Service{
		config:  cfg,
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: "https://api.unsplash.com/search/photos",
		logger:  logger.With("component", "images"),
		cache:   make(map[string]cacheEntry),
	}
}

// Configured reports whether an access key is set.
func (s *Service) Configured() bool { return s.config.AccessKey != "" }

// Search returns provider results for query, or the samples with Fallback
// set when the provider fails, answers non-200 or finds nothing.
func (s *Service) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, ErrEmptyQuery
	}
	fallback := Result{Query: query, Images: SampleImages, Fallback: true}
	if !s.Configured() {
		return fallback, nil
	}

	key := strings.ToLower(query)

	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetched) < cacheTTL {
		return Result{Query: query, Images: entry.images}, nil
	}

	images, err := s.fetch(ctx, query)
	if err != nil {
		s.logger.Warn("image search failed, using samples", "query", query, "error", err)
		return fallback, nil
	}
	if len(images) == 0 {
		return fallback, nil
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{images: images, fetched: time.Now()}
	s.mu.Unlock()
	return Result{Query: query, Images: images}, nil
}

type apiResponse struct {
	Results []struct {
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Thumb   string `json:"thumb"`
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

func (s *Service) fetch(ctx context.Context, query string) ([]Image, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", fmt.Sprint(perPage))
	q.Set("client_id", s.config.AccessKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode image search response: %w", err)
	}

	images := make([]Image, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		if r.URLs.Regular == "" {
			continue
		}
		label := r.AltDescription
		if label == "" {
			label = r.Description
		}
		images = append(images, Image{Thumb: r.URLs.Thumb, Regular: r.URLs.Regular, Label: label})
	}
	return images, nil
}
