package fetchers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuruhealth/yuruhealth/internal/config"
)

func TestWeatherFetchData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "35.68", r.URL.Query().Get("lat"))
		assert.Equal(t, "139.69", r.URL.Query().Get("lon"))
		assert.Equal(t, "owm-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		json.NewEncoder(w).Encode(map[string]any{
			"dt":   1771400400,
			"cod":  200,
			"main": map[string]any{"temp": 8.2, "humidity": 40},
		})
	}))
	defer server.Close()

	f := NewWeatherFetcher(config.WeatherConfig{
		APIKey:     "owm-key",
		DefaultLat: 35.68,
		DefaultLon: 139.69,
	})
	f.baseURL = server.URL

	observations, err := f.FetchData(context.Background(), "u1", time.Now(), time.Now())
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "current", observations[0].Category)

	payload, ok := observations[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, payload, "dt")
	assert.Contains(t, payload, "main")
}

func TestWeatherNotConfigured(t *testing.T) {
	f := NewWeatherFetcher(config.WeatherConfig{APIKey: "key-only"})
	_, err := f.FetchData(context.Background(), "u1", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestWeatherRejectedKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	f := NewWeatherFetcher(config.WeatherConfig{APIKey: "bad", DefaultLat: 35.68, DefaultLon: 139.69})
	f.baseURL = server.URL

	_, err := f.FetchData(context.Background(), "u1", time.Now(), time.Now())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}
