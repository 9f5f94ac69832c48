package fetchers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yuruhealth/yuruhealth/internal/config"
	"github.com/yuruhealth/yuruhealth/internal/models"
	"github.com/yuruhealth/yuruhealth/internal/repository"
)

const withingsBaseURL = "https://wbsapi.withings.net"

// withingsMeasTypeWeight is the Withings measure type for body weight.
const withingsMeasTypeWeight = 1

// WithingsFetcher pulls weight measure groups. The OAuth access token
// is read from the token store; token refresh is handled by the
// external auth flow, not here.
type WithingsFetcher struct {
	cfg        config.WithingsConfig
	tokens     repository.TokenRepository
	baseURL    string
	httpClient *http.Client
}

// NewWithingsFetcher creates a Withings client.
func NewWithingsFetcher(cfg config.WithingsConfig, tokens repository.TokenRepository) *WithingsFetcher {
	return &WithingsFetcher{
		cfg:        cfg,
		tokens:     tokens,
		baseURL:    withingsBaseURL,
		httpClient: newHTTPClient(),
	}
}

// Source implements Fetcher.
func (f *WithingsFetcher) Source() models.Source {
	return models.SourceWithings
}

// Authenticate implements Fetcher.
func (f *WithingsFetcher) Authenticate(ctx context.Context) error {
	if f.cfg.ClientID == "" || f.cfg.ClientSecret == "" {
		return ErrNotConfigured
	}
	return nil
}

// FetchData returns one observation per measure group, category
// "weight".
func (f *WithingsFetcher) FetchData(ctx context.Context, userID string, start, end time.Time) ([]Observation, error) {
	if err := f.Authenticate(ctx); err != nil {
		return nil, err
	}

	accessToken, err := f.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("action", "getmeas")
	params.Set("meastype", strconv.Itoa(withingsMeasTypeWeight))
	params.Set("category", "1")
	params.Set("startdate", strconv.FormatInt(start.Unix(), 10))
	params.Set("enddate", strconv.FormatInt(end.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.baseURL+"/measure", strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Status int `json:"status"`
		Body   struct {
			MeasureGroups []map[string]any `json:"measuregrps"`
		} `json:"body"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Withings signals auth problems in-band: 401 invalid token,
	// 2555-range for expired sessions.
	if body.Status == 401 {
		return nil, &AuthError{Source: models.SourceWithings, Err: fmt.Errorf("api status %d", body.Status)}
	}
	if body.Status != 0 {
		return nil, fmt.Errorf("api status %d", body.Status)
	}

	observations := make([]Observation, 0, len(body.Body.MeasureGroups))
	for _, grp := range body.Body.MeasureGroups {
		observations = append(observations, Observation{Category: "weight", Payload: grp})
	}
	return observations, nil
}

func (f *WithingsFetcher) accessToken(ctx context.Context, userID string) (string, error) {
	token, err := f.tokens.GetToken(ctx, userID, string(models.SourceWithings))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return "", ErrNotConfigured
		}
		return "", fmt.Errorf("load withings token: %w", err)
	}

	access, _ := token.TokenData["access_token"].(string)
	if access == "" {
		return "", &AuthError{Source: models.SourceWithings, Err: errors.New("stored token has no access_token")}
	}
	return access, nil
}
