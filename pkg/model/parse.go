package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseStats reports how many elements were read and how many were dropped
type ParseStats struct {
	Total   int
	Dropped int
}

// ParseList decodes a json array element by element.
// Elements that fail to decode or to validate are dropped.
// An error is returned only if data is not a json array.
func ParseList[T any](data []byte) ([]T, ParseStats, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ParseStats{}, fmt.Errorf("expected json array: %w", err)
	}
	stats := ParseStats{Total: len(raw)}
	ret := make([]T, 0, len(raw))
	for _, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			stats.Dropped++
			continue
		}
		if err := Validate(&item); err != nil {
			stats.Dropped++
			continue
		}
		ret = append(ret, item)
	}
	return ret, stats, nil
}

// Validate checks the validate tags of a struct
func Validate(v any) error {
	return validate.Struct(v)
}
