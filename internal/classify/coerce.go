package classify

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Sensors disagree on numeric encodings: some send integers, some floats,
// some stringified numbers. These coercions accept all three and report
// failure instead of raising: a malformed field is simply absent.

// tryInt coerces v to an integer. Floats qualify only when whole-valued.
func tryInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		return 0, false
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
		return 0, false
	}
	return 0, false
}

// tryFloat coerces v to a float.
func tryFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
		return 0, false
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
		return 0, false
	}
	return 0, false
}

// stringField returns the lower-cased string under key, or "".
func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return strings.ToLower(s)
}

// rawString returns the string under key without case folding.
func rawString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
