package fetchers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yuruhealth/yuruhealth/internal/config"
	"github.com/yuruhealth/yuruhealth/internal/models"
)

const switchbotBaseURL = "https://api.switch-bot.com/v1.1"

// switchbotStatusOK is the in-band success code of the SwitchBot API.
const switchbotStatusOK = 100

// SwitchBotFetcher reads the current environment status (temperature,
// humidity, CO2) of one meter device using the v1.1 signed-header
// scheme.
type SwitchBotFetcher struct {
	cfg        config.SwitchBotConfig
	baseURL    string
	httpClient *http.Client
}

// NewSwitchBotFetcher creates a SwitchBot client.
func NewSwitchBotFetcher(cfg config.SwitchBotConfig) *SwitchBotFetcher {
	return &SwitchBotFetcher{
		cfg:        cfg,
		baseURL:    switchbotBaseURL,
		httpClient: newHTTPClient(),
	}
}

// Source implements Fetcher.
func (f *SwitchBotFetcher) Source() models.Source {
	return models.SourceSwitchBot
}

// Authenticate implements Fetcher.
func (f *SwitchBotFetcher) Authenticate(ctx context.Context) error {
	if f.cfg.Token == "" || f.cfg.Secret == "" || f.cfg.DeviceID == "" {
		return ErrNotConfigured
	}
	return nil
}

// FetchData returns a single "environment" observation with the device
// status body. SwitchBot has no history endpoint; each poll is one
// point-in-time reading, which is exactly what the dedup layer guards.
func (f *SwitchBotFetcher) FetchData(ctx context.Context, userID string, start, end time.Time) ([]Observation, error) {
	if err := f.Authenticate(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/devices/%s/status", f.baseURL, f.cfg.DeviceID), nil)
	if err != nil {
		return nil, err
	}
	f.signRequest(req)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Source: models.SourceSwitchBot, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		StatusCode int            `json:"statusCode"`
		Message    string         `json:"message"`
		Body       map[string]any `json:"body"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.StatusCode != switchbotStatusOK {
		return nil, fmt.Errorf("api status %d: %s", body.StatusCode, body.Message)
	}

	return []Observation{{Category: "environment", Payload: body.Body}}, nil
}

// signRequest builds the SwitchBot v1.1 authentication headers:
// sign = base64(hmac-sha256(secret, token + t + nonce)).
func (f *SwitchBotFetcher) signRequest(req *http.Request) {
	t := strconv.FormatInt(time.Now().UnixMilli(), 10)
	nonce := uuid.New().String()

	mac := hmac.New(sha256.New, []byte(f.cfg.Secret))
	mac.Write([]byte(f.cfg.Token + t + nonce))
	sign := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req.Header.Set("Authorization", f.cfg.Token)
	req.Header.Set("sign", sign)
	req.Header.Set("t", t)
	req.Header.Set("nonce", nonce)
	req.Header.Set("Content-Type", "application/json")
}
