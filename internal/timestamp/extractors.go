package timestamp

import "github.com/yuruhealth/yuruhealth/internal/models"

// Extractor maps a provider payload onto the normalized candidate set
// {dt, timestamp, date} consumed by Derive. Provider quirks (where a
// source nests or names its observation time) live here, not in the
// derivation policy.
type Extractor func(payload map[string]any) map[string]any

// passthrough picks the candidate keys straight off the top level.
func passthrough(payload map[string]any) map[string]any {
	out := make(map[string]any, len(candidateKeys))
	for _, key := range candidateKeys {
		if v, ok := payload[key]; ok {
			out[key] = v
		}
	}
	return out
}

// ouraExtractor: Oura daily records carry the observation date in
// "day" ("2026-02-18") plus an ISO "timestamp" on some collections.
func ouraExtractor(payload map[string]any) map[string]any {
	out := passthrough(payload)
	if _, ok := out["date"]; !ok {
		if day, ok := payload["day"]; ok {
			out["date"] = day
		}
	}
	return out
}

// switchbotExtractor: SwitchBot status bodies expose a millisecond
// epoch under "time".
func switchbotExtractor(payload map[string]any) map[string]any {
	out := passthrough(payload)
	if _, ok := out["timestamp"]; !ok {
		if t, ok := payload["time"]; ok {
			out["timestamp"] = t
		}
	}
	return out
}

// googleFitExtractor: aggregate buckets carry "startTimeMillis" as a
// stringified millisecond epoch; per-point rows carry "date".
func googleFitExtractor(payload map[string]any) map[string]any {
	out := passthrough(payload)
	if _, ok := out["timestamp"]; !ok {
		if ms, ok := payload["startTimeMillis"]; ok {
			out["timestamp"] = ms
		}
	}
	return out
}

var extractors = map[models.Source]Extractor{
	models.SourceOura:      ouraExtractor,
	models.SourceSwitchBot: switchbotExtractor,
	models.SourceGoogleFit: googleFitExtractor,
	// withings and weather carry "date" / "dt" at the top level, which
	// passthrough already handles.
}

// ForSource returns the candidate extractor for a provider. Unknown
// sources get the passthrough extractor.
func ForSource(source models.Source) Extractor {
	if ex, ok := extractors[source]; ok {
		return ex
	}
	return passthrough
}
