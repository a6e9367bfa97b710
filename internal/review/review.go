// Package review merges a product's rich reviews and bare ratings into one
// displayable list.
package review

import (
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/utafrali/storefront/internal/domain"
)

const anonymous = "anonymous"

// scoreFields is the order in which an object rating's score is looked up.
var scoreFields = []string{"value", "rate", "rating"}

// Aggregate returns one entry per review followed by one entry per rating,
// each group in input order.
func Aggregate(reviews []domain.Review, ratings []domain.RawRating) []domain.ReviewEntry {
	entries := make([]domain.ReviewEntry, 0, len(reviews)+len(ratings))

	for _, r := range reviews {
		first := strings.TrimSpace(r.FirstName)
		if first == "" {
			first = anonymous
		}
		entries = append(entries, domain.ReviewEntry{
			ReviewerLabel: strings.TrimSpace(first + " " + r.LastName),
			Score:         r.Rating,
			Comment:       r.Comment,
			AvatarURL:     r.Avatar,
		})
	}

	for i, r := range ratings {
		entries = append(entries, fromRating(i, r))
	}

	return entries
}

func fromRating(idx int, r domain.RawRating) domain.ReviewEntry {
	label := fmt.Sprintf("reviewer %d", idx+1)

	if r.Kind == domain.NumericRating {
		return domain.ReviewEntry{ReviewerLabel: label, Score: r.Number}
	}

	var score float64
	for _, field := range scoreFields {
		if v, ok := numericField(r.Fields, field); ok {
			score = v
			break
		}
	}

	var userID string
	if raw, ok := r.Fields["userId"]; ok && raw != nil && decodeWeak(raw, &userID) == nil && userID != "" {
		label = "reviewer " + prefix(userID, 6) + "..."
	}

	return domain.ReviewEntry{ReviewerLabel: label, Score: score}
}

// numericField decodes fields[name] as a number, accepting numeric strings.
func numericField(fields map[string]any, name string) (float64, bool) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return 0, false
	}
	var v float64
	if err := decodeWeak(raw, &v); err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func decodeWeak(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Stars rounds a score to whole stars in [0, 5].
func Stars(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	s := int(math.Round(score))
	switch {
	case s < 0:
		return 0
	case s > 5:
		return 5
	default:
		return s
	}
}

// StarString renders a score as five filled or empty stars.
func StarString(score float64) string {
	n := Stars(score)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
