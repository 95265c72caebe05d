package types

import (
	"encoding/json"
	"strings"
)

// Variants is the selected option per attribute for a line item, e.g. {"size":"M"}.
type Variants map[string]string

// Normalize trims keys and values and drops empty entries. It never returns nil.
func (v Variants) Normalize() Variants {
	out := Variants{}
	for key, value := range v {
		k := strings.TrimSpace(key)
		val := strings.TrimSpace(value)
		if k == "" || val == "" {
			continue
		}
		out[k] = val
	}
	return out
}

// Key returns a canonical representation used to merge cart lines.
// encoding/json sorts map keys, so equal selections always produce equal keys.
func (v Variants) Key() string {
	normalized := v.Normalize()
	if len(normalized) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Equal reports whether both selections resolve to the same key.
func (v Variants) Equal(other Variants) bool {
	return v.Key() == other.Key()
}
