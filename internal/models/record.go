package models

import (
	"fmt"
	"time"
)

// Source identifies a data provider.
type Source string

const (
	SourceOura      Source = "oura"
	SourceWithings  Source = "withings"
	SourceGoogleFit Source = "google_fit"
	SourceSwitchBot Source = "switchbot"
	SourceWeather   Source = "weather"
)

// Sources lists every known provider in display order.
var Sources = []Source{
	SourceOura,
	SourceWithings,
	SourceGoogleFit,
	SourceSwitchBot,
	SourceWeather,
}

// Valid reports whether s is a known provider.
func (s Source) Valid() bool {
	switch s {
	case SourceOura, SourceWithings, SourceGoogleFit, SourceSwitchBot, SourceWeather:
		return true
	}
	return false
}

// Partition identifies an independent stream of observations with its
// own duplicate-detection history.
type Partition struct {
	UserID   string
	Source   Source
	Category string
}

// Key returns a stable string form usable as a lock/map key.
func (p Partition) Key() string {
	return fmt.Sprintf("%s/%s/%s", p.UserID, p.Source, p.Category)
}

// RawRecord is a single observation appended to the raw data lake.
// Payload keeps the provider's native response shape unmodified,
// volatile fields included; Digest is computed over the filtered
// payload and drives duplicate detection for the next poll.
type RawRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Source     Source    `json:"source"`
	Category   string    `json:"category"`
	Payload    any       `json:"payload"`
	Digest     string    `json:"digest"`
	RecordedAt time.Time `json:"recorded_at"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Partition returns the dedup partition this record belongs to.
func (r *RawRecord) Partition() Partition {
	return Partition{UserID: r.UserID, Source: r.Source, Category: r.Category}
}
