// Package rawval reads loosely-typed values decoded from marketplace payloads.
// Every accessor reports false instead of failing on an unexpected shape.
package rawval

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Present mirrors JavaScript truthiness: nil, "", false and 0 are absent.
// Empty arrays and objects count as present.
func Present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case json.Number:
		return t != "" && t != "0"
	}
	return true
}

// Lookup returns the first present value among keys.
func Lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && Present(v) {
			return v, true
		}
	}
	return nil, false
}

// String converts strings and numbers to a trimmed, non-empty string.
func String(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), t != ""
	}
	return "", false
}

// LookupString is Lookup followed by String.
func LookupString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && Present(v) {
			if s, ok := String(v); ok {
				return s, true
			}
		}
	}
	return "", false
}

// Float converts numbers and numeric strings. Strings may carry a currency
// sign or describe a range ("12.5-15.0"); the first number wins.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		m := leadingNumber.FindString(t)
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		return f, err == nil
	}
	return 0, false
}

// Int converts integral numbers and numeric strings.
func Int(v any) (int, bool) {
	f, ok := Float(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Map asserts a JSON object.
func Map(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// Slice asserts a JSON array.
func Slice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}
