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
	"github.com/yuruhealth/yuruhealth/internal/repository"
)

func googleFitRepo(t *testing.T) *repository.InMemoryRepository {
	t.Helper()
	repo := repository.NewInMemoryRepository()
	require.NoError(t, repo.SaveToken(context.Background(), &models.OAuthToken{
		UserID:    "u1",
		Provider:  string(models.SourceGoogleFit),
		TokenData: map[string]any{"access_token": "gf-token"},
	}))
	return repo
}

func TestGoogleFitFetchData(t *testing.T) {
	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/dataset:aggregate", r.URL.Path)
		assert.Equal(t, "Bearer gf-token", r.Header.Get("Authorization"))

		var reqBody struct {
			AggregateBy []map[string]string `json:"aggregateBy"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		require.Len(t, reqBody.AggregateBy, 1)
		requested = append(requested, reqBody.AggregateBy[0]["dataTypeName"])

		var buckets []map[string]any
		if reqBody.AggregateBy[0]["dataTypeName"] == "com.google.step_count.delta" {
			buckets = []map[string]any{
				{"startTimeMillis": "1771372800000", "dataset": []any{}},
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"bucket": buckets})
	}))
	defer server.Close()

	f := NewGoogleFitFetcher(config.GoogleFitConfig{ClientID: "cid", ClientSecret: "secret"}, googleFitRepo(t))
	f.baseURL = server.URL

	observations, err := f.FetchData(context.Background(), "u1", time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "steps", observations[0].Category)

	assert.ElementsMatch(t, []string{
		"com.google.step_count.delta",
		"com.google.weight",
		"com.google.sleep.segment",
	}, requested)
}

func TestGoogleFitMissingToken(t *testing.T) {
	f := NewGoogleFitFetcher(
		config.GoogleFitConfig{ClientID: "cid", ClientSecret: "secret"},
		repository.NewInMemoryRepository(),
	)
	_, err := f.FetchData(context.Background(), "u1", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGoogleFitRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewGoogleFitFetcher(config.GoogleFitConfig{ClientID: "cid", ClientSecret: "secret"}, googleFitRepo(t))
	f.baseURL = server.URL

	_, err := f.FetchData(context.Background(), "u1", time.Now(), time.Now())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.SourceGoogleFit, authErr.Source)
}
