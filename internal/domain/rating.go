package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RatingKind tags the shape a raw rating arrived in.
type RatingKind int

const (
	// NumericRating is a bare number (or numeric string).
	NumericRating RatingKind = iota
	// ObjectRating is an object whose score field name varies.
	ObjectRating
)

// RawRating is an entry of Product.Ratings as sent by the API. Exactly one
// of Number or Fields is meaningful, selected by Kind.
type RawRating struct {
	Kind   RatingKind
	Number float64
	Fields map[string]any
}

// NewNumericRating builds a bare numeric rating.
func NewNumericRating(v float64) RawRating {
	return RawRating{Kind: NumericRating, Number: v}
}

// NewObjectRating builds an object rating.
func NewObjectRating(fields map[string]any) RawRating {
	return RawRating{Kind: ObjectRating, Fields: fields}
}

// UnmarshalJSON decodes numbers and numeric strings as NumericRating and
// everything else as ObjectRating. Non-object shapes become an empty object.
func (r *RawRating) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*r = NewObjectRating(nil)
		return nil
	}

	var n float64
	if json.Unmarshal(trimmed, &n) == nil {
		*r = NewNumericRating(n)
		return nil
	}

	var s string
	if json.Unmarshal(trimmed, &s) == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*r = NewNumericRating(v)
			return nil
		}
		*r = NewObjectRating(nil)
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		*r = NewObjectRating(nil)
		return nil
	}
	*r = NewObjectRating(fields)
	return nil
}

// MarshalJSON writes the rating back in its original shape.
func (r RawRating) MarshalJSON() ([]byte, error) {
	if r.Kind == NumericRating {
		return json.Marshal(r.Number)
	}
	if r.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Fields)
}

// MarshalYAML mirrors MarshalJSON for YAML output.
func (r RawRating) MarshalYAML() (any, error) {
	if r.Kind == NumericRating {
		return r.Number, nil
	}
	if r.Fields == nil {
		return map[string]any{}, nil
	}
	return r.Fields, nil
}
