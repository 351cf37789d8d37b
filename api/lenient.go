package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Request fields are decoded leniently: a value of the wrong JSON type is
// read as the zero value of the field instead of failing the request.

func decodeValue(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// decodeString reads any JSON scalar as a string. ok is false for null,
// objects and arrays.
func decodeString(raw json.RawMessage) (s string, ok bool) {
	switch v := decodeValue(raw).(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// decodeInt reads a JSON number or numeric string. Fractions are truncated,
// values outside the int32 range are rejected.
func decodeInt(raw json.RawMessage) (n int, ok bool) {
	var f float64
	switch v := decodeValue(raw).(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

// decodeStrings reads an array, skipping entries that are not scalars
func decodeStrings(raw json.RawMessage) []string {
	items, ok := decodeArray(raw)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := decodeString(item); ok {
			values = append(values, s)
		}
	}
	return values
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, true
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
