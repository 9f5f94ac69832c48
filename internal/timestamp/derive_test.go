package timestamp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuruhealth/yuruhealth/internal/models"
)

var jst = time.FixedZone("JST", 9*3600)

func TestDerive_PriorityOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, jst)

	testCases := []struct {
		name       string
		candidates map[string]any
		want       time.Time
		wantOK     bool
	}{
		{
			name: "dt wins over timestamp",
			candidates: map[string]any{
				"dt":        "2026-02-18T08:00:00Z",
				"timestamp": "2026-02-17T00:00:00Z",
			},
			want:   time.Date(2026, 2, 18, 8, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name: "timestamp wins over date",
			candidates: map[string]any{
				"timestamp": "2026-02-17T00:00:00Z",
				"date":      "2026-02-10",
			},
			want:   time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:       "unparseable dt falls through to timestamp",
			candidates: map[string]any{"dt": "not-a-time", "timestamp": "2026-02-17T00:00:00Z"},
			want:       time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC),
			wantOK:     true,
		},
		{
			name:       "no candidates falls back to now",
			candidates: map[string]any{},
			want:       now,
			wantOK:     false,
		},
		{
			name:       "nothing parseable falls back to now",
			candidates: map[string]any{"dt": "garbage", "timestamp": true, "date": ""},
			want:       now,
			wantOK:     false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Derive(tc.candidates, jst, now)
			assert.Equal(t, tc.wantOK, ok)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestDerive_EpochValues(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, jst)

	testCases := []struct {
		name  string
		value any
		want  time.Time
	}{
		{
			name:  "epoch seconds float",
			value: float64(1771400400),
			want:  time.Unix(1771400400, 0),
		},
		{
			name:  "epoch milliseconds",
			value: float64(1771400400000),
			want:  time.UnixMilli(1771400400000),
		},
		{
			name:  "json number epoch",
			value: json.Number("1771400400"),
			want:  time.Unix(1771400400, 0),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Derive(map[string]any{"dt": tc.value}, jst, now)
			require.True(t, ok)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
			assert.Equal(t, "JST", got.Location().String())
		})
	}
}

func TestDerive_RejectsImplausiblySmallEpochs(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, jst)

	got, ok := Derive(map[string]any{"dt": float64(3)}, jst, now)
	assert.False(t, ok)
	assert.True(t, now.Equal(got))
}

func TestDerive_BareDateAnchoredInCanonicalZone(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, jst)

	got, ok := Derive(map[string]any{"date": "2026-02-11"}, jst, now)
	require.True(t, ok)
	assert.True(t, time.Date(2026, 2, 11, 0, 0, 0, 0, jst).Equal(got))
}

func TestDerive_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, jst)
	candidates := map[string]any{"dt": "2026-02-18T08:00:00+09:00"}

	first, ok := Derive(candidates, jst, now)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := Derive(candidates, jst, now)
		require.True(t, ok)
		assert.True(t, first.Equal(again))
	}
}

func TestExtractors(t *testing.T) {
	testCases := []struct {
		name    string
		source  models.Source
		payload map[string]any
		want    map[string]any
	}{
		{
			name:    "oura maps day to date",
			source:  models.SourceOura,
			payload: map[string]any{"day": "2026-02-18", "score": 81},
			want:    map[string]any{"date": "2026-02-18"},
		},
		{
			name:    "switchbot maps time to timestamp",
			source:  models.SourceSwitchBot,
			payload: map[string]any{"time": float64(1771400400000), "CO2": 800},
			want:    map[string]any{"timestamp": float64(1771400400000)},
		},
		{
			name:    "google fit maps startTimeMillis to timestamp",
			source:  models.SourceGoogleFit,
			payload: map[string]any{"startTimeMillis": float64(1771400400000)},
			want:    map[string]any{"timestamp": float64(1771400400000)},
		},
		{
			name:    "weather passes dt through",
			source:  models.SourceWeather,
			payload: map[string]any{"dt": float64(1771400400), "cod": 200},
			want:    map[string]any{"dt": float64(1771400400)},
		},
		{
			name:    "unknown source gets passthrough",
			source:  models.Source("unknown"),
			payload: map[string]any{"timestamp": "2026-02-18T08:00:00Z"},
			want:    map[string]any{"timestamp": "2026-02-18T08:00:00Z"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ForSource(tc.source)(tc.payload)
			assert.Equal(t, tc.want, got)
		})
	}
}
