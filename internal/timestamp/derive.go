// Package timestamp derives the canonical "recorded time" of an
// observation from heterogeneous provider payload shapes. The shared
// derivation policy is deterministic and provider-agnostic; per-source
// quirks are isolated in extractors that map a provider payload onto
// the normalized candidate set before the policy runs.
package timestamp

import (
	"encoding/json"
	"time"

	"github.com/araddon/dateparse"
)

// Candidate field names, in priority order. The first one present and
// parseable wins.
var candidateKeys = [...]string{"dt", "timestamp", "date"}

// epochMillisFloor separates second-resolution epochs from
// millisecond-resolution ones.
const epochMillisFloor = 1e12

// Derive resolves the recorded time from a candidate map. Numeric
// candidates are Unix epochs (seconds, or milliseconds above
// epochMillisFloor); string candidates are parsed with dateparse and
// cover ISO timestamps as well as bare YYYY-MM-DD dates. The result is
// expressed in loc. When no candidate parses, Derive falls back to now
// and returns ok=false, so callers can log the fallback without
// treating it as an error.
func Derive(candidates map[string]any, loc *time.Location, now time.Time) (time.Time, bool) {
	for _, key := range candidateKeys {
		val, present := candidates[key]
		if !present || val == nil {
			continue
		}
		if ts, ok := parseValue(val, loc); ok {
			return ts, true
		}
	}
	return now.In(loc), false
}

func parseValue(val any, loc *time.Location) (time.Time, bool) {
	switch v := val.(type) {
	case time.Time:
		return v.In(loc), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return fromEpoch(f, loc)
		}
		return parseString(v.String(), loc)
	case float64:
		return fromEpoch(v, loc)
	case int:
		return fromEpoch(float64(v), loc)
	case int64:
		return fromEpoch(float64(v), loc)
	case string:
		return parseString(v, loc)
	default:
		return time.Time{}, false
	}
}

func fromEpoch(epoch float64, loc *time.Location) (time.Time, bool) {
	// Reject implausibly small values so fields like {"dt": 3} never
	// resolve to 1970.
	if epoch < 1_000_000_000 {
		return time.Time{}, false
	}
	sec := int64(epoch)
	if epoch >= epochMillisFloor {
		ms := int64(epoch)
		return time.UnixMilli(ms).In(loc), true
	}
	nsec := int64((epoch - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).In(loc), true
}

func parseString(s string, loc *time.Location) (time.Time, bool) {
	if len(s) < 8 {
		return time.Time{}, false
	}
	// Bare dates have no zone information; anchor them in the
	// canonical zone rather than UTC.
	if len(s) == 10 {
		if ts, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
			return ts, true
		}
	}
	ts, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts.In(loc), true
}
