// Package dedup implements the content-addressed hash guard used by the
// ingestion layer: a volatility filter that projects a payload onto its
// comparison-stable subset, and a digest over the filtered form.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Filter produces comparison-stable projections of provider payloads.
type Filter struct {
	keys KeySet
}

// NewFilter creates a filter over the given volatile key set.
func NewFilter(keys KeySet) *Filter {
	return &Filter{keys: keys}
}

// KeySet returns the filter's volatile key set.
func (f *Filter) KeySet() KeySet {
	return f.keys
}

// Strip returns a structurally equivalent copy of v with every mapping
// key in the volatile set removed, at every nesting depth. The input is
// never mutated; the persisted payload keeps its volatile fields. A
// non-mapping top level passes through with nested mappings still
// filtered.
func (f *Filter) Strip(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if f.keys.Contains(k) {
				continue
			}
			out[k] = f.Strip(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = f.Strip(child)
		}
		return out
	default:
		return v
	}
}

// Canonical serializes the filtered projection of v deterministically:
// encoding/json sorts map keys, so semantically identical payloads
// produce byte-identical output across runs.
func (f *Filter) Canonical(v any) ([]byte, error) {
	b, err := json.Marshal(f.Strip(v))
	if err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	return b, nil
}

// Digest returns the SHA-256 hex digest of the filtered canonical form
// of v. Two payloads that differ only in volatile-field values share a
// digest. The cryptographic strength matters only for keeping
// accidental collisions negligible across large historical volumes.
func (f *Filter) Digest(v any) (string, error) {
	canonical, err := f.Canonical(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
