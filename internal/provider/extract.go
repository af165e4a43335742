package provider

import "strconv"

// ExtractValue normalizes a stat value from the shapes providers send.
//
// SportMonks wraps values in objects like {"total": 15, "goals": 12},
// BallDontLie sends flat numbers, and both occasionally send numeric
// strings. Returns the scalar value and ok=false when nothing numeric can
// be extracted.
func ExtractValue(val interface{}) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
		return 0, false
	case map[string]interface{}:
		// Nested objects: prefer the aggregate field.
		for _, key := range []string{"total", "all", "count", "average"} {
			if inner, exists := v[key]; exists && inner != nil {
				return ExtractValue(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}
}
