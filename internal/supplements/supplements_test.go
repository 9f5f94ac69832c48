package supplements_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuruhealth/yuruhealth/internal/supplements"
)

const masterYAML = `
items:
  vitamin_c:
    name: Vitamin C 1000
    ingredients:
      vitamin_c_mg: 1000
  magnesium:
    name: Magnesium Glycinate
    ingredients:
      magnesium_mg: 200
      vitamin_b6_mg: 2
presets:
  morning:
    default_items: [vitamin_c, magnesium]
    default_scale: 1.0
  light:
    default_items: [vitamin_c]
`

func writeMaster(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supplements.yaml")
	require.NoError(t, os.WriteFile(path, []byte(masterYAML), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	m, err := supplements.Load(writeMaster(t))
	require.NoError(t, err)

	assert.Len(t, m.Items, 2)
	assert.Equal(t, "Vitamin C 1000", m.Items["vitamin_c"].Name)
	assert.Equal(t, 1000.0, m.Items["vitamin_c"].Ingredients["vitamin_c_mg"])
}

func TestLoadMissingFile(t *testing.T) {
	m, err := supplements.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, m.Items)
	assert.Empty(t, m.Presets)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items: [not a map"), 0o644))

	_, err := supplements.Load(path)
	assert.Error(t, err)
}

func TestScenePreset(t *testing.T) {
	m, err := supplements.Load(writeMaster(t))
	require.NoError(t, err)

	morning := m.ScenePreset("morning")
	assert.Equal(t, []string{"vitamin_c", "magnesium"}, morning.DefaultItems)
	assert.Equal(t, 1.0, morning.DefaultScale)

	// A preset without a scale defaults to 1.0.
	light := m.ScenePreset("light")
	assert.Equal(t, 1.0, light.DefaultScale)

	unknown := m.ScenePreset("midnight")
	assert.Empty(t, unknown.DefaultItems)
	assert.Equal(t, 1.0, unknown.DefaultScale)
}

func TestBuildSnapshot(t *testing.T) {
	m, err := supplements.Load(writeMaster(t))
	require.NoError(t, err)

	snapshot := m.BuildSnapshot(map[string]float64{
		"vitamin_c": 0.5,
		"magnesium": 1.0,
		"unknown":   1.0,
	})

	require.Len(t, snapshot.Items, 2)
	// Items sort by ID for a deterministic snapshot.
	assert.Equal(t, "magnesium", snapshot.Items[0].ItemID)
	assert.Equal(t, "vitamin_c", snapshot.Items[1].ItemID)

	assert.Equal(t, 500.0, snapshot.Items[1].Ingredients["vitamin_c_mg"])
	assert.Equal(t, 500.0, snapshot.TotalNutrients["vitamin_c_mg"])
	assert.Equal(t, 200.0, snapshot.TotalNutrients["magnesium_mg"])
	assert.Equal(t, 2.0, snapshot.TotalNutrients["vitamin_b6_mg"])
}

func TestBuildSnapshotClampsScale(t *testing.T) {
	m, err := supplements.Load(writeMaster(t))
	require.NoError(t, err)

	snapshot := m.BuildSnapshot(map[string]float64{"vitamin_c": 4.0})
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 1.5, snapshot.Items[0].Scale)
	assert.Equal(t, 1500.0, snapshot.Items[0].Ingredients["vitamin_c_mg"])

	snapshot = m.BuildSnapshot(map[string]float64{"vitamin_c": 0.1})
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 0.5, snapshot.Items[0].Scale)
}

func TestFormatNutrientLabel(t *testing.T) {
	testCases := []struct {
		key  string
		want string
	}{
		{"vitamin_c_mg", "vitamin_c (mg)"},
		{"vitamin_d_iu", "vitamin_d (iu)"},
		{"zinc_mg", "zinc (mg)"},
		{"caffeine", "caffeine"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, supplements.FormatNutrientLabel(tc.key))
	}
}
