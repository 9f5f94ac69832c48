package fetchers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yuruhealth/yuruhealth/internal/config"
	"github.com/yuruhealth/yuruhealth/internal/models"
	"github.com/yuruhealth/yuruhealth/internal/repository"
)

const googleFitBaseURL = "https://www.googleapis.com/fitness/v1"

// googleFitDataTypes maps aggregate data type names to dedup
// categories.
var googleFitDataTypes = []struct {
	dataType string
	category string
}{
	{"com.google.step_count.delta", "steps"},
	{"com.google.weight", "weight"},
	{"com.google.sleep.segment", "sleep"},
}

// GoogleFitFetcher aggregates steps, weight, and sleep buckets. The
// OAuth token is read from the token store; the browser consent flow
// that produced it is external.
type GoogleFitFetcher struct {
	cfg        config.GoogleFitConfig
	tokens     repository.TokenRepository
	baseURL    string
	httpClient *http.Client
}

// NewGoogleFitFetcher creates a Google Fit client.
func NewGoogleFitFetcher(cfg config.GoogleFitConfig, tokens repository.TokenRepository) *GoogleFitFetcher {
	return &GoogleFitFetcher{
		cfg:        cfg,
		tokens:     tokens,
		baseURL:    googleFitBaseURL,
		httpClient: newHTTPClient(),
	}
}

// Source implements Fetcher.
func (f *GoogleFitFetcher) Source() models.Source {
	return models.SourceGoogleFit
}

// Authenticate implements Fetcher.
func (f *GoogleFitFetcher) Authenticate(ctx context.Context) error {
	if f.cfg.ClientID == "" || f.cfg.ClientSecret == "" {
		return ErrNotConfigured
	}
	return nil
}

// FetchData returns one observation per daily aggregate bucket across
// the configured data types.
func (f *GoogleFitFetcher) FetchData(ctx context.Context, userID string, start, end time.Time) ([]Observation, error) {
	if err := f.Authenticate(ctx); err != nil {
		return nil, err
	}

	accessToken, err := f.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	observations := []Observation{}
	for _, dt := range googleFitDataTypes {
		buckets, err := f.aggregate(ctx, accessToken, dt.dataType, start, end)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", dt.dataType, err)
		}
		for _, bucket := range buckets {
			observations = append(observations, Observation{Category: dt.category, Payload: bucket})
		}
	}
	return observations, nil
}

func (f *GoogleFitFetcher) aggregate(ctx context.Context, accessToken, dataType string, start, end time.Time) ([]map[string]any, error) {
	reqBody := map[string]any{
		"aggregateBy":     []map[string]any{{"dataTypeName": dataType}},
		"bucketByTime":    map[string]any{"durationMillis": (24 * time.Hour).Milliseconds()},
		"startTimeMillis": start.UnixMilli(),
		"endTimeMillis":   end.UnixMilli(),
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.baseURL+"/users/me/dataset:aggregate", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Source: models.SourceGoogleFit, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Bucket []map[string]any `json:"bucket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body.Bucket, nil
}

func (f *GoogleFitFetcher) accessToken(ctx context.Context, userID string) (string, error) {
	token, err := f.tokens.GetToken(ctx, userID, string(models.SourceGoogleFit))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return "", ErrNotConfigured
		}
		return "", fmt.Errorf("load google fit token: %w", err)
	}

	access, _ := token.TokenData["access_token"].(string)
	if access == "" {
		return "", &AuthError{Source: models.SourceGoogleFit, Err: errors.New("stored token has no access_token")}
	}
	return access, nil
}
