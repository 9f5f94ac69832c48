package dedup

import "sort"

// KeySet is a versioned set of volatile payload keys. Volatile keys are
// fields whose values change between polls without indicating new
// underlying data (server-rendered timestamps, request echo fields) and
// are therefore excluded from identity comparison. The set is fixed at
// startup; extending it changes which historical rows compare equal, so
// bumps should come with a version bump.
type KeySet struct {
	version string
	keys    map[string]struct{}
}

// Keys known to vary between otherwise-identical provider responses.
// "cod" is an OpenWeatherMap internal status code.
var defaultVolatileKeys = []string{
	"dt", "t", "time", "timestamp", "ts", "server_time",
	"fetched_at", "recorded_at", "updated_at", "created_at",
	"cod",
}

// DefaultKeySetVersion tracks the deployed volatile-key list. It must
// change whenever defaultVolatileKeys changes.
const DefaultKeySetVersion = "v2"

// DefaultKeySet returns the built-in volatile key set.
func DefaultKeySet() KeySet {
	return NewKeySet(DefaultKeySetVersion, defaultVolatileKeys)
}

// NewKeySet builds a key set from an explicit list.
func NewKeySet(version string, keys []string) KeySet {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return KeySet{version: version, keys: m}
}

// Extend returns a new KeySet containing the receiver's keys plus
// extra, under a new version. The receiver is not modified.
func (s KeySet) Extend(version string, extra []string) KeySet {
	merged := make([]string, 0, len(s.keys)+len(extra))
	for k := range s.keys {
		merged = append(merged, k)
	}
	merged = append(merged, extra...)
	return NewKeySet(version, merged)
}

// Contains reports whether key is volatile.
func (s KeySet) Contains(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Version returns the key set version label.
func (s KeySet) Version() string {
	return s.version
}

// Members returns the sorted key list, for logging and diagnostics.
func (s KeySet) Members() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
