package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// marshalValues converts an exchange array to JSON TEXT for storage.
// Non-finite values, which JSON numbers cannot hold, are stored as the
// strings "NaN", "+Inf" and "-Inf".
func marshalValues(values []float64) (string, error) {
	items := make([]any, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			items[i] = strconv.FormatFloat(v, 'g', -1, 64)
			continue
		}
		items[i] = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// unmarshalValues reverses marshalValues.
func unmarshalValues(data string) ([]float64, error) {
	var items []any
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}

	values := make([]float64, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case float64:
			values[i] = v
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("unmarshal values: item %d: %w", i, err)
			}
			values[i] = f
		default:
			return nil, fmt.Errorf("unmarshal values: item %d: unexpected %T", i, item)
		}
	}
	return values, nil
}
