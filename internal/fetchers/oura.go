package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yuruhealth/yuruhealth/internal/config"
	"github.com/yuruhealth/yuruhealth/internal/models"
)

const ouraBaseURL = "https://api.ouraring.com/v2/usercollection"

// ouraCollections maps API collection paths to dedup categories.
var ouraCollections = []struct {
	path     string
	category string
}{
	{"daily_activity", "activity"},
	{"daily_sleep", "sleep"},
	{"daily_readiness", "readiness"},
}

// OuraFetcher pulls daily activity, sleep, and readiness summaries
// using a personal access token.
type OuraFetcher struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewOuraFetcher creates an Oura client.
func NewOuraFetcher(cfg config.OuraConfig) *OuraFetcher {
	return &OuraFetcher{
		token:      cfg.PersonalToken,
		baseURL:    ouraBaseURL,
		httpClient: newHTTPClient(),
	}
}

// Source implements Fetcher.
func (f *OuraFetcher) Source() models.Source {
	return models.SourceOura
}

// Authenticate implements Fetcher.
func (f *OuraFetcher) Authenticate(ctx context.Context) error {
	if f.token == "" || f.token == "your_oura_personal_token" {
		return ErrNotConfigured
	}
	return nil
}

// FetchData returns one observation per daily record across the three
// Oura collections.
func (f *OuraFetcher) FetchData(ctx context.Context, userID string, start, end time.Time) ([]Observation, error) {
	if err := f.Authenticate(ctx); err != nil {
		return nil, err
	}

	observations := []Observation{}
	for _, coll := range ouraCollections {
		items, err := f.fetchCollection(ctx, coll.path, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", coll.path, err)
		}
		for _, item := range items {
			observations = append(observations, Observation{Category: coll.category, Payload: item})
		}
	}
	return observations, nil
}

func (f *OuraFetcher) fetchCollection(ctx context.Context, path string, start, end time.Time) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s?%s", f.baseURL, path, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Source: models.SourceOura, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body.Data, nil
}
