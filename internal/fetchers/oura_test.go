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
	"github.com/yuruhealth/yuruhealth/internal/models"
)

func TestOuraFetchData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2026-02-11", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2026-02-18", r.URL.Query().Get("end_date"))

		var items []map[string]any
		switch r.URL.Path {
		case "/daily_activity":
			items = []map[string]any{{"day": "2026-02-17", "steps": 4200}}
		case "/daily_sleep":
			items = []map[string]any{
				{"day": "2026-02-16", "score": 78},
				{"day": "2026-02-17", "score": 82},
			}
		case "/daily_readiness":
			items = []map[string]any{}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": items})
	}))
	defer server.Close()

	f := NewOuraFetcher(config.OuraConfig{PersonalToken: "test-token"})
	f.baseURL = server.URL

	start := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	observations, err := f.FetchData(context.Background(), "u1", start, end)
	require.NoError(t, err)
	require.Len(t, observations, 3)

	categories := map[string]int{}
	for _, obs := range observations {
		categories[obs.Category]++
	}
	assert.Equal(t, 1, categories["activity"])
	assert.Equal(t, 2, categories["sleep"])
}

func TestOuraNotConfigured(t *testing.T) {
	f := NewOuraFetcher(config.OuraConfig{})
	_, err := f.FetchData(context.Background(), "u1", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrNotConfigured)

	// The placeholder from the sample config counts as unconfigured.
	f = NewOuraFetcher(config.OuraConfig{PersonalToken: "your_oura_personal_token"})
	assert.ErrorIs(t, f.Authenticate(context.Background()), ErrNotConfigured)
}

func TestOuraRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	f := NewOuraFetcher(config.OuraConfig{PersonalToken: "revoked"})
	f.baseURL = server.URL

	_, err := f.FetchData(context.Background(), "u1", time.Now(), time.Now())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.SourceOura, authErr.Source)
}
