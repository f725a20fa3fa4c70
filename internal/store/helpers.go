package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// marshalData converts node data to JSON text for storage.
func marshalData(data map[string]any) (string, error) {
	if len(data) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal node data: %w", err)
	}
	return string(b), nil
}

// unmarshalData converts stored JSON text back to a map.
func unmarshalData(s string) (map[string]any, error) {
	if s == "" || s == "null" {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, fmt.Errorf("unmarshal node data: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// sqlValue normalizes a scanned column value to a JSON-friendly Go value.
func sqlValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return val
	}
}
