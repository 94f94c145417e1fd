package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Row is an open field map returned by the upstream widget API. There is no
// fixed schema; consumers read fields through ordered fallback chains.
type Row map[string]any

// PickFirst returns the first non-nil, non-empty value among the candidate
// keys, in order. Empty strings do not count as present.
func (r Row) PickFirst(keys ...string) any {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// String resolves the first present candidate key as a trimmed string
func (r Row) String(keys ...string) string {
	v := r.PickFirst(keys...)
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	}
	return ""
}

// Float resolves the first present candidate key as a float64, returning 0
// when no candidate holds a numeric value
func (r Row) Float(keys ...string) float64 {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if f, numeric := CoerceFloat(v); numeric {
			return f
		}
	}
	return 0
}

// CoerceFloat converts the loosely-typed values JSON decoding produces into
// a float64. Non-numeric strings report false.
func CoerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// CoerceInt converts city-like identifier values to int, reporting false for
// anything non-numeric
func CoerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// DateKey returns the row's date bucket key, empty when absent
func (r Row) DateKey() string {
	return r.String("date", "day", "date_key")
}
