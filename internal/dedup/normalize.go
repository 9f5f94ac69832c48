package dedup

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Normalize round-trips v through JSON so that equivalent payloads
// compare equal regardless of how the caller typed them (struct vs
// map, int vs float64). The result is built from map[string]any,
// []any, and JSON scalars only. A value that cannot be represented as
// JSON is rejected as malformed.
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("payload is not JSON-representable: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode normalized payload: %w", err)
	}
	return out, nil
}
