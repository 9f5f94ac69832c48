// Package seeder generates plausible provider payloads for local
// development and demos. Generated payloads go through the real
// ingestion path, so seeded data exercises the dedup gate the same way
// live polling does.
package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/yuruhealth/yuruhealth/internal/ingest"
	"github.com/yuruhealth/yuruhealth/internal/models"
)

// Seeder feeds generated observations into an ingestor.
type Seeder struct {
	ingestor *ingest.Ingestor
	faker    *gofakeit.Faker
	loc      *time.Location
	clock    func() time.Time
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithClock overrides the wall-clock source.
func WithClock(clock func() time.Time) Option {
	return func(s *Seeder) { s.clock = clock }
}

// New creates a Seeder. A fixed seed makes runs reproducible.
func New(ingestor *ingest.Ingestor, seed uint64, loc *time.Location, opts ...Option) *Seeder {
	s := &Seeder{
		ingestor: ingestor,
		faker:    gofakeit.New(int64(seed)),
		loc:      loc,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Counts summarizes a seed run.
type Counts struct {
	Persisted int
	Skipped   int
	Failed    int
}

// Seed generates days of history for every source and ingests it.
func (s *Seeder) Seed(ctx context.Context, userID string, days int) (Counts, error) {
	var counts Counts
	today := s.clock().In(s.loc)

	for offset := days - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		date := day.Format("2006-01-02")

		batch := []struct {
			source   models.Source
			category string
			payload  map[string]any
		}{
			{models.SourceOura, "sleep", s.ouraDaily(date, "sleep")},
			{models.SourceOura, "activity", s.ouraDaily(date, "activity")},
			{models.SourceOura, "readiness", s.ouraDaily(date, "readiness")},
			{models.SourceWithings, "weight", s.withingsWeight(day)},
			{models.SourceSwitchBot, "environment", s.switchbotEnv(day)},
			{models.SourceWeather, "current", s.weatherCurrent(day)},
			{models.SourceGoogleFit, "steps", s.googleFitSteps(date)},
		}

		for _, item := range batch {
			res := s.ingestor.Ingest(ctx, userID, item.source, item.category, item.payload)
			switch res.Status {
			case ingest.StatusPersisted:
				counts.Persisted++
			case ingest.StatusSkipped:
				counts.Skipped++
			case ingest.StatusFailed:
				counts.Failed++
				return counts, fmt.Errorf("seed %s/%s: %w", item.source, item.category, res.Err)
			}
		}
	}
	return counts, nil
}

func (s *Seeder) ouraDaily(date, category string) map[string]any {
	payload := map[string]any{
		"id":        s.faker.UUID(),
		"day":       date,
		"score":     s.faker.Number(55, 95),
		"timestamp": date + "T04:00:00+09:00",
	}
	if category == "sleep" {
		payload["total_sleep_duration"] = s.faker.Number(5*3600, 9*3600)
	}
	if category == "activity" {
		payload["steps"] = s.faker.Number(2000, 15000)
	}
	return payload
}

func (s *Seeder) withingsWeight(day time.Time) map[string]any {
	// value*10^unit encoding, e.g. 68400 * 10^-3 = 68.4 kg
	grams := s.faker.Number(58000, 78000)
	return map[string]any{
		"grpid": s.faker.Number(1_000_000, 9_999_999),
		"date":  day.Unix(),
		"measures": []any{
			map[string]any{"value": grams, "type": 1, "unit": -3},
		},
	}
}

func (s *Seeder) switchbotEnv(day time.Time) map[string]any {
	return map[string]any{
		"deviceId":    "MINI-METER-01",
		"deviceType":  "MeterPro(CO2)",
		"temperature": s.faker.Float64Range(18, 28),
		"humidity":    s.faker.Number(30, 70),
		"CO2":         s.faker.Number(400, 1400),
		"time":        day.UnixMilli(),
	}
}

func (s *Seeder) weatherCurrent(day time.Time) map[string]any {
	return map[string]any{
		"dt":   day.Unix(),
		"name": s.faker.City(),
		"main": map[string]any{
			"temp":     s.faker.Float64Range(-2, 35),
			"humidity": s.faker.Number(25, 95),
			"pressure": s.faker.Number(990, 1030),
		},
		"weather": []any{
			map[string]any{"description": s.faker.RandomString([]string{"clear sky", "few clouds", "light rain", "overcast clouds"})},
		},
		"cod": 200,
	}
}

func (s *Seeder) googleFitSteps(date string) map[string]any {
	return map[string]any{
		"date":  date,
		"value": s.faker.Number(2000, 16000),
	}
}
