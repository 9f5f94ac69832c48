package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrip_RemovesVolatileKeysRecursively(t *testing.T) {
	filter := NewFilter(DefaultKeySet())

	payload := map[string]any{
		"steps":       4200,
		"server_time": "2026-02-18T07:00:03Z",
		"summary": map[string]any{
			"score":      81,
			"updated_at": "2026-02-18T07:00:03Z",
			"contributors": map[string]any{
				"deep_sleep": 70,
				"timestamp":  "2026-02-18T07:00:03Z",
			},
		},
		"samples": []any{
			map[string]any{"value": 1.5, "ts": 1760000000},
			map[string]any{"value": 2.5, "ts": 1760000060},
		},
	}

	got := filter.Strip(payload)

	want := map[string]any{
		"steps": 4200,
		"summary": map[string]any{
			"score": 81,
			"contributors": map[string]any{
				"deep_sleep": 70,
			},
		},
		"samples": []any{
			map[string]any{"value": 1.5},
			map[string]any{"value": 2.5},
		},
	}
	assert.Equal(t, want, got)
}

func TestStrip_DoesNotMutateInput(t *testing.T) {
	filter := NewFilter(DefaultKeySet())

	payload := map[string]any{
		"steps": 4200,
		"dt":    1760000000,
		"nested": map[string]any{
			"cod": 200,
			"val": "keep",
		},
	}

	_ = filter.Strip(payload)

	assert.Equal(t, 1760000000, payload["dt"])
	nested := payload["nested"].(map[string]any)
	assert.Equal(t, 200, nested["cod"])
}

func TestStrip_NonMappingTopLevel(t *testing.T) {
	filter := NewFilter(DefaultKeySet())

	testCases := []struct {
		name    string
		payload any
		want    any
	}{
		{
			name:    "scalar passes through",
			payload: 42,
			want:    42,
		},
		{
			name:    "nil passes through",
			payload: nil,
			want:    nil,
		},
		{
			name: "list with nested mappings still filtered",
			payload: []any{
				map[string]any{"score": 80, "timestamp": "x"},
				"plain",
			},
			want: []any{
				map[string]any{"score": 80},
				"plain",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, filter.Strip(tc.payload))
		})
	}
}

func TestDigest_VolatileFieldInsensitivity(t *testing.T) {
	filter := NewFilter(DefaultKeySet())

	first := map[string]any{
		"dt":          "2026-02-18T07:00:00Z",
		"steps":       4200,
		"server_time": "2026-02-18T07:00:03Z",
	}
	second := map[string]any{
		"dt":          "2026-02-19T09:30:00Z",
		"steps":       4200,
		"server_time": "2026-02-18T07:15:03Z",
	}

	d1, err := filter.Digest(first)
	require.NoError(t, err)
	d2, err := filter.Digest(second)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
}

func TestDigest_NonVolatileSensitivity(t *testing.T) {
	filter := NewFilter(DefaultKeySet())

	first := map[string]any{"steps": 4200, "server_time": "a"}
	second := map[string]any{"steps": 4300, "server_time": "a"}

	d1, err := filter.Digest(first)
	require.NoError(t, err)
	d2, err := filter.Digest(second)
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}

func TestDigest_EmptyPayload(t *testing.T) {
	filter := NewFilter(DefaultKeySet())

	digest, err := filter.Digest(map[string]any{})
	require.NoError(t, err)
	assert.Len(t, digest, 64)
}

func TestCanonical_StableKeyOrdering(t *testing.T) {
	filter := NewFilter(DefaultKeySet())

	payload := map[string]any{"b": 2, "a": 1, "c": map[string]any{"z": 1, "y": 2}}

	first, err := filter.Canonical(payload)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := filter.Canonical(payload)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
	assert.JSONEq(t, `{"a":1,"b":2,"c":{"y":2,"z":1}}`, string(first))
}

func TestNormalize_EquivalentShapesShareDigest(t *testing.T) {
	filter := NewFilter(DefaultKeySet())

	type weather struct {
		Temp  float64 `json:"temp"`
		Humid int     `json:"humid"`
	}

	fromStruct, err := Normalize(weather{Temp: 21.5, Humid: 40})
	require.NoError(t, err)
	fromMap, err := Normalize(map[string]any{"temp": 21.5, "humid": 40})
	require.NoError(t, err)

	d1, err := filter.Digest(fromStruct)
	require.NoError(t, err)
	d2, err := filter.Digest(fromMap)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestNormalize_RejectsUnrepresentableValues(t *testing.T) {
	_, err := Normalize(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestKeySet_Extend(t *testing.T) {
	base := DefaultKeySet()
	extended := base.Extend("v2+local", []string{"request_id"})

	assert.True(t, extended.Contains("dt"))
	assert.True(t, extended.Contains("request_id"))
	assert.False(t, base.Contains("request_id"))
	assert.Equal(t, "v2+local", extended.Version())
	assert.Equal(t, DefaultKeySetVersion, base.Version())
}
