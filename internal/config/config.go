// Package config reads the settings of the three binaries from the
// environment. A .env file in the working directory is loaded first when
// present; variables already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/repoeli/dinner-hoting-app/internal/resolver"
)

// Web configures cmd/dinners.
type Web struct {
	Port           string
	LogLevel       string
	LogFormat      string
	Candidates     []resolver.Candidate
	RequestTimeout time.Duration
	UnsplashKey    string
	DatastoreURL   *url.URL // mount an /api/ proxy when set
	OwnFirstDinner bool
}

// Datastore configures cmd/datastore.
type Datastore struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
}

// Proxy configures cmd/proxy.
type Proxy struct {
	Port      string
	Target    *url.URL
	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadWeb reads the web application settings.
func LoadWeb() (Web, error) {
	cfg := Web{
		Port:        env("DINNERS_PORT", "8080"),
		LogLevel:    os.Getenv("DINNERS_LOG_LEVEL"),
		LogFormat:   os.Getenv("DINNERS_LOG_FORMAT"),
		Candidates:  resolver.DefaultCandidates(),
		UnsplashKey: os.Getenv("DINNERS_UNSPLASH_KEY"),
	}

	if raw := os.Getenv("DINNERS_API_URLS"); raw != "" {
		c, err := resolver.ParseCandidates(raw)
		if err != nil {
			return Web{}, fmt.Errorf("DINNERS_API_URLS: %w", err)
		}
		cfg.Candidates = c
	}

	var err error
	if cfg.RequestTimeout, err = duration("DINNERS_REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return Web{}, err
	}
	if cfg.OwnFirstDinner, err = boolean("DINNERS_OWN_FIRST_DINNER", true); err != nil {
		return Web{}, err
	}
	if raw := os.Getenv("DINNERS_DATASTORE_URL"); raw != "" {
		if cfg.DatastoreURL, err = httpURL("DINNERS_DATASTORE_URL", raw); err != nil {
			return Web{}, err
		}
	}
	return cfg, nil
}

// LoadDatastore reads the data store settings.
func LoadDatastore() Datastore {
	return Datastore{
		Port:      env("DATASTORE_PORT", "3000"),
		DBPath:    env("DATASTORE_DB_PATH", "dinners.db"),
		LogLevel:  os.Getenv("DATASTORE_LOG_LEVEL"),
		LogFormat: os.Getenv("DATASTORE_LOG_FORMAT"),
	}
}

// LoadProxy reads the reverse proxy settings.
func LoadProxy() (Proxy, error) {
	target, err := httpURL("PROXY_TARGET", env("PROXY_TARGET", "http://localhost:3000"))
	if err != nil {
		return Proxy{}, err
	}
	return Proxy{
		Port:      env("PROXY_PORT", "8090"),
		Target:    target,
		LogLevel:  os.Getenv("PROXY_LOG_LEVEL"),
		LogFormat: os.Getenv("PROXY_LOG_FORMAT"),
	}, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, raw)
	}
	return d, nil
}

func boolean(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func httpURL(key, raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%s: %q is not an http(s) URL", key, raw)
	}
	return u, nil
}
