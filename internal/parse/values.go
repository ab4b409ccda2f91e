package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// Values holds the fields recovered from a response
type Values map[string]any

// Has reports whether a field was recovered
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Missing returns the names that were not recovered, in order
func (v Values) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if !v.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// String returns a field rendered as text
func (v Values) String(name string) (string, bool) {
	raw, ok := v[name]
	if !ok || raw == nil {
		return "", false
	}
	switch val := raw.(type) {
	case string:
		return val, true
	default:
		return fmt.Sprint(val), true
	}
}

// Strings returns a list field. A list that could not be decoded is
// returned as a single raw element.
func (v Values) Strings(name string) ([]string, bool) {
	raw, ok := v[name]
	if !ok || raw == nil {
		return nil, false
	}
	switch val := raw.(type) {
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out, true
	case string:
		return []string{val}, true
	default:
		return []string{fmt.Sprint(val)}, true
	}
}

// Number returns a numeric field. Quoted numbers are accepted.
func (v Values) Number(name string) (float64, bool) {
	raw, ok := v[name]
	if !ok || raw == nil {
		return 0, false
	}
	switch val := raw.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
