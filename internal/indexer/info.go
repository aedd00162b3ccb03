package indexer

import "encoding/json"

// encodeInfo serializes caller-supplied extra fields for the info column.
// Nil maps become the empty object so the column is always valid JSON.
func encodeInfo(extra map[string]any) (string, error) {
	if len(extra) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
