package matching

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

// MatchJSONPath evaluates JSONPath conditions against a JSON request
// body. Every condition must hold for the match to succeed. A body that
// is empty or not valid JSON never matches (that is not an error, the
// route is simply skipped).
//
// An expected value of the form {"exists": true|false} is a presence
// check rather than an equality check.
func MatchJSONPath(conditions map[string]any, body []byte) bool {
	if len(conditions) == 0 {
		return true
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return false
	}

	for path, expected := range conditions {
		if !matchOnePath(path, expected, data) {
			return false
		}
	}
	return true
}

func matchOnePath(path string, expected, data any) bool {
	x, err := jp.ParseString(path)
	if err != nil {
		// Invalid expressions are rejected at load time; treat any that
		// slip through as non-matching.
		return false
	}

	results := x.Get(data)

	if exists, ok := existenceCheck(expected); ok {
		return exists == (len(results) > 0)
	}

	// Wildcard paths can return several results; any equal value matches.
	for _, result := range results {
		if looselyEqual(result, expected) {
			return true
		}
	}
	return false
}

// existenceCheck reports whether expected is a {"exists": bool} object
// and, if so, the bool it carries.
func existenceCheck(expected any) (bool, bool) {
	m, ok := expected.(map[string]any)
	if !ok || len(m) != 1 {
		return false, false
	}
	b, ok := m["exists"].(bool)
	return b, ok
}

// looselyEqual compares two JSON values, coercing numeric types so a
// YAML int condition matches a JSON float64 body value.
func looselyEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if reflect.DeepEqual(actual, expected) {
		return true
	}

	an, aok := toFloat64(actual)
	en, eok := toFloat64(expected)
	if aok && eok {
		return an == en
	}
	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// ValidateJSONPath validates a JSONPath expression at load time.
func ValidateJSONPath(path string) error {
	if _, err := jp.ParseString(path); err != nil {
		return fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	return nil
}
