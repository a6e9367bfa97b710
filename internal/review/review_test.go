package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

func obj(fields map[string]any) domain.RawRating { return domain.NewObjectRating(fields) }

func scores(entries []domain.ReviewEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Score
	}
	return out
}

func TestAggregate_FieldPrecedence(t *testing.T) {
	ratings := []domain.RawRating{
		obj(map[string]any{"value": 4.0}),
		obj(map[string]any{"rate": 2.0}),
		obj(map[string]any{}),
	}

	entries := Aggregate(nil, ratings)

	assert.Equal(t, []float64{4, 2, 0}, scores(entries))
}

func TestAggregate_ReviewsFirst(t *testing.T) {
	reviews := []domain.Review{
		{FirstName: "Nino", LastName: "Beridze", Rating: 5, Comment: "great", Avatar: "https://a.b/c.png"},
		{Rating: 3.5},
	}
	ratings := []domain.RawRating{obj(map[string]any{"value": 4.0}), obj(map[string]any{"rate": 2.0}), obj(nil)}

	entries := Aggregate(reviews, ratings)

	require.Len(t, entries, 5)
	assert.Equal(t, []float64{5, 3.5, 4, 2, 0}, scores(entries))
	assert.Equal(t, "Nino Beridze", entries[0].ReviewerLabel)
	assert.Equal(t, "great", entries[0].Comment)
	assert.Equal(t, "https://a.b/c.png", entries[0].AvatarURL)
	assert.Equal(t, "anonymous", entries[1].ReviewerLabel)
}

func TestAggregate_ValueWinsOverRateAndRating(t *testing.T) {
	entries := Aggregate(nil, []domain.RawRating{
		obj(map[string]any{"rating": 1.0, "rate": 2.0, "value": 3.0}),
		obj(map[string]any{"rating": 1.0, "rate": 2.0}),
		obj(map[string]any{"rating": 1.0}),
	})

	assert.Equal(t, []float64{3, 2, 1}, scores(entries))
}

func TestAggregate_NumericStringsAndBareNumbers(t *testing.T) {
	entries := Aggregate(nil, []domain.RawRating{
		domain.NewNumericRating(4.5),
		obj(map[string]any{"value": "3"}),
		obj(map[string]any{"value": "n/a", "rate": 2.0}),
		obj(map[string]any{"value": nil, "rating": "1.5"}),
	})

	assert.Equal(t, []float64{4.5, 3, 2, 1.5}, scores(entries))
}

func TestAggregate_RawScorePreserved(t *testing.T) {
	entries := Aggregate(nil, []domain.RawRating{obj(map[string]any{"value": 4.37})})
	assert.Equal(t, 4.37, entries[0].Score)
}

func TestAggregate_ReviewerLabels(t *testing.T) {
	entries := Aggregate(nil, []domain.RawRating{
		obj(map[string]any{"value": 4.0, "userId": "65f1a2b3c4d5"}),
		obj(map[string]any{"value": 4.0, "userId": ""}),
		domain.NewNumericRating(2),
		obj(map[string]any{"value": 4.0, "userId": "abc"}),
	})

	assert.Equal(t, "reviewer 65f1a2...", entries[0].ReviewerLabel)
	assert.Equal(t, "reviewer 2", entries[1].ReviewerLabel)
	assert.Equal(t, "reviewer 3", entries[2].ReviewerLabel)
	assert.Equal(t, "reviewer abc...", entries[3].ReviewerLabel)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, nil))
}

func TestStars(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{0, 0}, {2.4, 2}, {2.5, 3}, {4.37, 4}, {5, 5}, {7, 5}, {-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stars(tt.score), "score %v", tt.score)
	}
	assert.Equal(t, "★★★☆☆", StarString(3.2))
}
