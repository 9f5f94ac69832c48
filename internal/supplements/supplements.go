// Package supplements loads the supplements master file and builds
// immutable intake snapshots from it. The master file is hand-edited
// YAML listing supplement items with their per-dose ingredients, plus
// named scene presets.
package supplements

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item is one supplement with its per-dose nutrient amounts. Nutrient
// keys carry the unit as a suffix, e.g. "vitamin_c_mg".
type Item struct {
	Name        string             `yaml:"name"`
	Ingredients map[string]float64 `yaml:"ingredients"`
}

// Preset is a named default selection for a scene ("morning",
// "post_workout", ...).
type Preset struct {
	DefaultItems []string `yaml:"default_items"`
	DefaultScale float64  `yaml:"default_scale"`
}

// Master is the parsed supplements file.
type Master struct {
	Items   map[string]Item   `yaml:"items"`
	Presets map[string]Preset `yaml:"presets"`
}

// Load reads the master YAML at path. A missing file yields an empty
// master rather than an error, so a fresh deployment works before the
// file is written.
func Load(path string) (*Master, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Master{Items: map[string]Item{}, Presets: map[string]Preset{}}, nil
		}
		return nil, fmt.Errorf("read supplements file: %w", err)
	}

	var m Master
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse supplements file: %w", err)
	}
	if m.Items == nil {
		m.Items = map[string]Item{}
	}
	if m.Presets == nil {
		m.Presets = map[string]Preset{}
	}
	return &m, nil
}

// ScenePreset returns the preset for a scene, with safe defaults when
// the scene is unknown.
func (m *Master) ScenePreset(scene string) Preset {
	preset, ok := m.Presets[scene]
	if !ok {
		return Preset{DefaultItems: []string{}, DefaultScale: 1.0}
	}
	if preset.DefaultItems == nil {
		preset.DefaultItems = []string{}
	}
	if preset.DefaultScale == 0 {
		preset.DefaultScale = 1.0
	}
	return preset
}

// SnapshotItem is one taken supplement inside a snapshot, with its
// ingredients scaled to the actual dose.
type SnapshotItem struct {
	ItemID      string             `json:"item_id"`
	Name        string             `json:"name"`
	Scale       float64            `json:"scale"`
	Ingredients map[string]float64 `json:"ingredients"`
}

// Snapshot is an immutable record of one intake: the items taken and
// the nutrient totals across them.
type Snapshot struct {
	Items          []SnapshotItem     `json:"items"`
	TotalNutrients map[string]float64 `json:"total_nutrients"`
}

// scale bounds: a dose can be halved or taken 1.5x, nothing beyond.
const (
	minScale = 0.5
	maxScale = 1.5
)

// BuildSnapshot builds an intake snapshot from selected item scales.
// Unknown item IDs are ignored; scales clamp to [0.5, 1.5]. Items are
// ordered by ID so the snapshot serializes deterministically.
func (m *Master) BuildSnapshot(selected map[string]float64) Snapshot {
	ids := make([]string, 0, len(selected))
	for id := range selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snapshot := Snapshot{Items: []SnapshotItem{}, TotalNutrients: map[string]float64{}}
	for _, id := range ids {
		item, ok := m.Items[id]
		if !ok {
			continue
		}
		ratio := math.Max(minScale, math.Min(maxScale, selected[id]))

		scaled := make(map[string]float64, len(item.Ingredients))
		for nutrient, amount := range item.Ingredients {
			v := roundAmount(amount * ratio)
			scaled[nutrient] = v
			snapshot.TotalNutrients[nutrient] = roundAmount(snapshot.TotalNutrients[nutrient] + v)
		}

		name := item.Name
		if name == "" {
			name = id
		}
		snapshot.Items = append(snapshot.Items, SnapshotItem{
			ItemID:      id,
			Name:        name,
			Scale:       ratio,
			Ingredients: scaled,
		})
	}
	return snapshot
}

// FormatNutrientLabel turns "vitamin_c_mg" into "vitamin_c (mg)".
// Keys without a unit suffix pass through unchanged.
func FormatNutrientLabel(key string) string {
	idx := strings.LastIndex(key, "_")
	if idx < 0 {
		return key
	}
	return fmt.Sprintf("%s (%s)", key[:idx], key[idx+1:])
}

func roundAmount(v float64) float64 {
	return math.Round(v*10000) / 10000
}
