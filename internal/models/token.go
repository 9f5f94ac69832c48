package models

import "time"

// OAuthToken stores a provider credential blob for a user. The token
// contents are opaque to the aggregator; fetchers interpret them.
type OAuthToken struct {
	UserID    string         `json:"user_id"`
	Provider  string         `json:"provider"`
	TokenData map[string]any `json:"token_data"`
	UpdatedAt time.Time      `json:"updated_at"`
}
