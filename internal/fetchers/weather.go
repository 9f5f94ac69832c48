package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yuruhealth/yuruhealth/internal/config"
	"github.com/yuruhealth/yuruhealth/internal/models"
)

const weatherBaseURL = "https://api.openweathermap.org/data/2.5"

// WeatherFetcher reads current conditions for the configured
// coordinates from OpenWeatherMap. The full response is kept as the
// payload; its "dt" field carries the observation time and its "cod"
// status echo is volatile.
type WeatherFetcher struct {
	cfg        config.WeatherConfig
	baseURL    string
	httpClient *http.Client
}

// NewWeatherFetcher creates an OpenWeatherMap client.
func NewWeatherFetcher(cfg config.WeatherConfig) *WeatherFetcher {
	return &WeatherFetcher{
		cfg:        cfg,
		baseURL:    weatherBaseURL,
		httpClient: newHTTPClient(),
	}
}

// Source implements Fetcher.
func (f *WeatherFetcher) Source() models.Source {
	return models.SourceWeather
}

// Authenticate implements Fetcher.
func (f *WeatherFetcher) Authenticate(ctx context.Context) error {
	if f.cfg.APIKey == "" {
		return ErrNotConfigured
	}
	if f.cfg.DefaultLat == 0 && f.cfg.DefaultLon == 0 {
		return ErrNotConfigured
	}
	return nil
}

// FetchData returns a single "current" observation.
func (f *WeatherFetcher) FetchData(ctx context.Context, userID string, start, end time.Time) ([]Observation, error) {
	if err := f.Authenticate(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(f.cfg.DefaultLat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(f.cfg.DefaultLon, 'f', -1, 64))
	params.Set("appid", f.cfg.APIKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		f.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Source: models.SourceWeather, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return []Observation{{Category: "current", Payload: payload}}, nil
}
