package transformer

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// parseFloat converts the loose types produced by json.Unmarshal (and numeric
// strings) into a finite float64.
func parseFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// validHours parses v and reports whether it is a usable hours figure:
// a finite number in [0, MaxReasonableHours].
func validHours(v any) (float64, bool) {
	f, ok := parseFloat(v)
	if !ok {
		return 0, false
	}
	if f < 0 || f > MaxReasonableHours {
		return 0, false
	}
	return f, true
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// stringField returns the string under key, nil when absent or empty.
func stringField(raw map[string]any, key string) *string {
	s := stringValue(raw[key])
	if s == "" {
		return nil
	}
	return &s
}

func mapField(raw map[string]any, key string) map[string]any {
	m, _ := raw[key].(map[string]any)
	return m
}

// sliceField returns the list of objects under key. Non-object entries are
// skipped rather than failing the record.
func sliceField(raw map[string]any, key string) []map[string]any {
	list, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}

// normalizeDate parses v against the given layouts and renders the canonical
// "2006-01-02" form. Unparsable input yields nil, never an error.
func normalizeDate(v any, layouts ...string) *string {
	s := stringValue(v)
	if s == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			formatted := t.Format("2006-01-02")
			return &formatted
		}
	}
	return nil
}

// computeHours applies the hours reconciliation rule: the top-level figure
// wins when valid, otherwise the total of valid line-item hours. When neither
// source yields a figure the result is nil, not zero.
func computeHours(topLevel any, lines []map[string]any, hoursKey string) *float64 {
	if f, ok := validHours(topLevel); ok {
		return &f
	}
	var total float64
	found := false
	for _, line := range lines {
		if f, ok := validHours(line[hoursKey]); ok {
			total += f
			found = true
		}
	}
	if !found {
		return nil
	}
	return &total
}

// hoursByCategory groups line-item hours by category label, summing within
// each group. Computed independently of which source fed the hours field.
func hoursByCategory(lines []map[string]any, categoryKey, hoursKey string) map[string]float64 {
	byCategory := make(map[string]float64)
	for _, line := range lines {
		hours, ok := validHours(line[hoursKey])
		if !ok || hours <= 0 {
			continue
		}
		category := stringValue(line[categoryKey])
		if category == "" {
			continue
		}
		byCategory[category] += hours
	}
	return byCategory
}
