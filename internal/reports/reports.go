// Package reports builds the read-side views over the raw data lake:
// data-arrival history, per-day source summaries, and the sleep-score
// versus room-environment correlation join. It only reads; writes go
// through the ingest package.
package reports

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yuruhealth/yuruhealth/internal/database"
	"github.com/yuruhealth/yuruhealth/internal/models"
	"github.com/yuruhealth/yuruhealth/internal/repository"
)

// Service answers read queries over the raw data lake.
type Service struct {
	repo repository.Repository
	loc  *time.Location
}

// NewService creates a reports service. Dates in all views are
// expressed in loc, the store's canonical zone.
func NewService(repo repository.Repository, loc *time.Location) *Service {
	return &Service{repo: repo, loc: loc}
}

// Arrival is one (source, date) pair with data present.
type Arrival struct {
	Source models.Source `json:"source"`
	Date   string        `json:"date"`
}

// ArrivalHistory returns the distinct (source, date) pairs seen over
// the past days, newest first.
func (s *Service) ArrivalHistory(ctx context.Context, days int) ([]Arrival, error) {
	records, err := s.recordsSince(ctx, days, "", "")
	if err != nil {
		return nil, err
	}

	seen := map[Arrival]struct{}{}
	out := []Arrival{}
	for _, rec := range records {
		a := Arrival{Source: rec.Source, Date: rec.FetchedAt.In(s.loc).Format("2006-01-02")}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

// EnvPoint is one hourly environment reading.
type EnvPoint struct {
	Hour     int      `json:"hour"`
	Temp     *float64 `json:"temp,omitempty"`
	Humidity *float64 `json:"humidity,omitempty"`
	CO2      *float64 `json:"co2,omitempty"`
	Pressure *float64 `json:"pressure,omitempty"`
}

// DayDetail summarizes one source on one date. Timeseries and Summary
// are set for environment sources (switchbot, weather); Badge for the
// score/weight sources.
type DayDetail struct {
	Source     models.Source      `json:"source"`
	Date       string             `json:"date"`
	Timeseries []EnvPoint         `json:"timeseries,omitempty"`
	Summary    map[string]float64 `json:"summary,omitempty"`
	Badge      map[string]any     `json:"badge,omitempty"`
}

// ArrivalDetail returns per source-and-date summaries for the past
// days: hourly environment timeseries with min/avg/max stats for
// switchbot and weather, representative score badges for oura,
// withings, and google_fit.
func (s *Service) ArrivalDetail(ctx context.Context, days int) ([]DayDetail, error) {
	records, err := s.recordsSince(ctx, days, "", "")
	if err != nil {
		return nil, err
	}

	type bucketKey struct {
		source models.Source
		date   string
	}
	buckets := map[bucketKey][]*models.RawRecord{}
	order := []bucketKey{}
	for _, rec := range records {
		key := bucketKey{rec.Source, rec.FetchedAt.In(s.loc).Format("2006-01-02")}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], rec)
	}

	out := make([]DayDetail, 0, len(order))
	for _, key := range order {
		detail := DayDetail{Source: key.source, Date: key.date}
		rows := buckets[key]

		switch key.source {
		case models.SourceSwitchBot, models.SourceWeather:
			detail.Timeseries, detail.Summary = s.buildTimeseries(key.source, rows)
		case models.SourceOura:
			detail.Badge = buildOuraBadge(rows)
		case models.SourceWithings:
			detail.Badge = buildWithingsBadge(rows)
		case models.SourceGoogleFit:
			detail.Badge = buildGoogleFitBadge(rows)
		}
		out = append(out, detail)
	}
	return out, nil
}

// CorrelationRow joins one date's Oura sleep score with the SwitchBot
// environment daily averages. Environment columns are nil on dates
// without readings.
type CorrelationRow struct {
	Date        string   `json:"date"`
	SleepScore  int      `json:"sleep_score"`
	CO2Avg      *float64 `json:"co2_avg"`
	TempAvg     *float64 `json:"temp_avg"`
	HumidityAvg *float64 `json:"humidity_avg"`
}

// CorrelationData returns one row per date that has an Oura sleep
// score, joined with same-date SwitchBot environment averages. The
// sleep date comes from payload "day" with recorded_at as fallback;
// multiple scores on one date keep the latest.
func (s *Service) CorrelationData(ctx context.Context, days int) ([]CorrelationRow, error) {
	sleepRecs, err := s.recordsSince(ctx, days, models.SourceOura, "sleep")
	if err != nil {
		return nil, err
	}
	envRecs, err := s.recordsSince(ctx, days, models.SourceSwitchBot, "environment")
	if err != nil {
		return nil, err
	}

	// Latest sleep score per date. recordsSince returns newest first,
	// so the first hit per date wins.
	scores := map[string]int{}
	for _, rec := range sleepRecs {
		payload, ok := rec.Payload.(map[string]any)
		if !ok {
			continue
		}
		score, ok := asFloat(payload["score"])
		if !ok {
			continue
		}
		date, _ := payload["day"].(string)
		if len(date) < 10 {
			date = rec.RecordedAt.In(s.loc).Format("2006-01-02")
		}
		date = date[:10]
		if _, exists := scores[date]; !exists {
			scores[date] = int(score)
		}
	}
	if len(scores) == 0 {
		return []CorrelationRow{}, nil
	}

	type envAgg struct {
		co2, temp, humidity    float64
		co2N, tempN, humidityN int
	}
	envByDate := map[string]*envAgg{}
	for _, rec := range envRecs {
		payload, ok := rec.Payload.(map[string]any)
		if !ok {
			continue
		}
		date := rec.FetchedAt.In(s.loc).Format("2006-01-02")
		agg, ok := envByDate[date]
		if !ok {
			agg = &envAgg{}
			envByDate[date] = agg
		}
		if v, ok := asFloat(payload["CO2"]); ok {
			agg.co2 += v
			agg.co2N++
		}
		if v, ok := asFloat(payload["temperature"]); ok {
			agg.temp += v
			agg.tempN++
		}
		if v, ok := asFloat(payload["humidity"]); ok {
			agg.humidity += v
			agg.humidityN++
		}
	}

	rows := make([]CorrelationRow, 0, len(scores))
	for date, score := range scores {
		row := CorrelationRow{Date: date, SleepScore: score}
		if agg, ok := envByDate[date]; ok {
			row.CO2Avg = avg(agg.co2, agg.co2N)
			row.TempAvg = avg(agg.temp, agg.tempN)
			row.HumidityAvg = avg(agg.humidity, agg.humidityN)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows, nil
}

// Recent returns the latest raw rows for inspection.
func (s *Service) Recent(ctx context.Context, limit int) ([]*models.RawRecord, error) {
	queryCtx, cancel := database.BulkContext(ctx)
	defer cancel()
	return s.repo.Recent(queryCtx, limit)
}

func (s *Service) recordsSince(ctx context.Context, days int, source models.Source, category string) ([]*models.RawRecord, error) {
	since := time.Now().In(s.loc).AddDate(0, 0, -days)
	queryCtx, cancel := database.BulkContext(ctx)
	defer cancel()

	records, err := s.repo.FetchedSince(queryCtx, since, source, category)
	if err != nil {
		return nil, fmt.Errorf("query records since %s: %w", since.Format("2006-01-02"), err)
	}
	return records, nil
}

func (s *Service) buildTimeseries(source models.Source, rows []*models.RawRecord) ([]EnvPoint, map[string]float64) {
	points := []EnvPoint{}
	for _, rec := range rows {
		payload, ok := rec.Payload.(map[string]any)
		if !ok {
			continue
		}
		point := EnvPoint{Hour: rec.FetchedAt.In(s.loc).Hour()}

		switch source {
		case models.SourceSwitchBot:
			point.Temp = floatPtr(payload["temperature"])
			point.Humidity = floatPtr(payload["humidity"])
			point.CO2 = floatPtr(payload["CO2"])
		case models.SourceWeather:
			if main, ok := payload["main"].(map[string]any); ok {
				point.Temp = floatPtr(main["temp"])
				point.Humidity = floatPtr(main["humidity"])
				point.Pressure = floatPtr(main["pressure"])
			}
		}
		points = append(points, point)
	}

	summary := map[string]float64{}
	addStats := func(field string, pick func(EnvPoint) *float64) {
		vals := []float64{}
		for _, p := range points {
			if v := pick(p); v != nil {
				vals = append(vals, *v)
			}
		}
		if len(vals) == 0 {
			return
		}
		sum, min, max := 0.0, vals[0], vals[0]
		for _, v := range vals {
			sum += v
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
		summary[field+"_avg"] = round1(sum / float64(len(vals)))
		summary[field+"_min"] = round1(min)
		summary[field+"_max"] = round1(max)
	}
	addStats("temp", func(p EnvPoint) *float64 { return p.Temp })
	addStats("humidity", func(p EnvPoint) *float64 { return p.Humidity })
	addStats("co2", func(p EnvPoint) *float64 { return p.CO2 })
	addStats("pressure", func(p EnvPoint) *float64 { return p.Pressure })

	return points, summary
}

func buildOuraBadge(rows []*models.RawRecord) map[string]any {
	badge := map[string]any{}
	for _, rec := range rows {
		payload, ok := rec.Payload.(map[string]any)
		if !ok {
			continue
		}
		if score, ok := asFloat(payload["score"]); ok {
			switch rec.Category {
			case "sleep":
				badge["sleep_score"] = int(score)
			case "activity":
				badge["activity_score"] = int(score)
			case "readiness":
				badge["readiness_score"] = int(score)
			}
		}
		if steps, ok := asFloat(payload["steps"]); ok {
			badge["steps"] = int(steps)
		}
	}
	return badge
}

func buildWithingsBadge(rows []*models.RawRecord) map[string]any {
	weights := []float64{}
	for _, rec := range rows {
		payload, ok := rec.Payload.(map[string]any)
		if !ok {
			continue
		}
		if w, ok := asFloat(payload["weight"]); ok {
			weights = append(weights, w)
		}
		// Weight inside the measures array arrives as value*10^unit.
		measures, _ := payload["measures"].([]any)
		for _, m := range measures {
			measure, ok := m.(map[string]any)
			if !ok {
				continue
			}
			mtype, _ := asFloat(measure["type"])
			if int(mtype) != 1 {
				continue
			}
			value, _ := asFloat(measure["value"])
			unit, _ := asFloat(measure["unit"])
			if kg := value * math.Pow(10, unit); kg > 0 {
				weights = append(weights, round1(kg))
			}
		}
	}
	if len(weights) == 0 {
		return map[string]any{}
	}
	return map[string]any{"weight_kg": round1(weights[len(weights)-1])}
}

func buildGoogleFitBadge(rows []*models.RawRecord) map[string]any {
	badge := map[string]any{}
	for _, rec := range rows {
		payload, ok := rec.Payload.(map[string]any)
		if !ok {
			continue
		}
		value, ok := asFloat(payload["value"])
		if !ok {
			continue
		}
		switch rec.Category {
		case "steps":
			badge["steps"] = int(value)
		case "weight":
			badge["weight_kg"] = round1(value)
		case "sleep":
			badge["sleep_min"] = int(value)
		}
	}
	return badge
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case interface{ Float64() (float64, error) }: // json.Number
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func floatPtr(v any) *float64 {
	if f, ok := asFloat(v); ok {
		return &f
	}
	return nil
}

func avg(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := round1(sum / float64(n))
	return &v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
