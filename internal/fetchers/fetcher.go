// Package fetchers contains the per-provider API clients. Each fetcher
// authenticates against one provider and returns raw observations; it
// never writes to storage and never interprets payload contents beyond
// slicing an API response into (category, payload) pairs.
package fetchers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yuruhealth/yuruhealth/internal/models"
)

// ErrNotConfigured means the provider has no usable credentials; the
// batch skips the source instead of failing.
var ErrNotConfigured = errors.New("provider not configured")

// AuthError is a fatal authentication failure: retrying without
// re-authentication cannot succeed.
type AuthError struct {
	Source models.Source
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %v", e.Source, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Observation is one (category, payload) pair produced by a fetch.
// Payload keeps the provider's native response shape.
type Observation struct {
	Category string
	Payload  any
}

// Fetcher is the capability set every provider client implements.
type Fetcher interface {
	Source() models.Source

	// Authenticate verifies credentials are present and usable.
	// Returns ErrNotConfigured for a missing setup, or an *AuthError
	// for rejected credentials.
	Authenticate(ctx context.Context) error

	// FetchData returns the user's observations for the date range.
	// Transient network failures come back as plain errors; the batch
	// orchestrator decides whether to retry.
	FetchData(ctx context.Context, userID string, start, end time.Time) ([]Observation, error)
}

const defaultHTTPTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}
