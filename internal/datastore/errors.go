package datastore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
)

// ErrNotFound matches a 404 answer from the data store.
var ErrNotFound = errors.New("not found")

// ErrValidation marks input rejected before any request was made.
var ErrValidation = errors.New("validation failed")

// ValidationError maps form fields to messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Kind classifies a failure for presentation.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnectivity
	KindServer
	KindDecode
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: server returned status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: server returned status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// DecodeError wraps a malformed response payload.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Classify reports which kind of failure err is.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var statusErr *StatusError
	var decodeErr *DecodeError
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.As(err, &statusErr):
		return KindServer
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &urlErr), errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindConnectivity
	}
	return KindUnknown
}

// Describe renders a user-facing explanation of err.
func Describe(err error) string {
	var statusErr *StatusError
	switch Classify(err) {
	case KindConnectivity:
		return "No response received from server"
	case KindServer:
		errors.As(err, &statusErr)
		if statusErr.Body != "" {
			return fmt.Sprintf("Server returned status code %d: %s", statusErr.StatusCode, statusErr.Body)
		}
		return fmt.Sprintf("Server returned status code %d", statusErr.StatusCode)
	case KindDecode:
		return "Server sent a response that could not be read"
	case KindValidation:
		return err.Error()
	}
	return err.Error()
}

// Troubleshooting lists the steps shown next to connection failures.
func Troubleshooting(baseURL string) []string {
	return []string{
		"Make sure the data store is running (go run ./cmd/datastore)",
		"Or start the proxy in front of it (go run ./cmd/proxy)",
		fmt.Sprintf("Check that %s/dinners answers directly", baseURL),
	}
}
