package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// Session
// ============================================================================

func TestSession_AccessValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{AccessToken: "tok", AccessExpiry: now.Add(time.Hour)}

	assert.True(t, s.AccessValid(now))
	assert.False(t, s.AccessValid(now.Add(time.Hour)))
	assert.False(t, s.AccessValid(now.Add(2*time.Hour)))
}

func TestSession_AccessValid_NoToken(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.AccessValid(time.Now()))
	assert.False(t, (&Session{AccessExpiry: time.Now().Add(time.Hour)}).AccessValid(time.Now()))
}

// ============================================================================
// Cart
// ============================================================================

func TestCart_Line(t *testing.T) {
	c := &Cart{Lines: []CartLine{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 1}}}

	line, ok := c.Line("b")
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)

	_, ok = c.Line("z")
	assert.False(t, ok)
}

func TestCart_NilIsEmpty(t *testing.T) {
	var c *Cart
	assert.True(t, c.Empty())
	_, ok := c.Line("a")
	assert.False(t, ok)
	assert.True(t, (&Cart{}).Empty())
}

// ============================================================================
// Product
// ============================================================================

func TestProduct_UnmarshalUnderscoreID(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"abc","title":"Phone","stock":4,"price":{"current":99.5,"beforeDiscount":120}}`), &p))
	assert.Equal(t, "abc", p.ID)
	assert.Equal(t, "Phone", p.Title)
	assert.Equal(t, 4, p.Stock)
	assert.Equal(t, 99.5, p.Price.Current)
	assert.Equal(t, 120.0, p.Price.BeforeDiscount)
}

func TestProduct_UnmarshalPlainID(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":"xyz"}`), &p))
	assert.Equal(t, "xyz", p.ID)
}

// ============================================================================
// RawRating
// ============================================================================

func TestRawRating_Unmarshal(t *testing.T) {
	var ratings []RawRating
	raw := `[4, "3.5", {"value": 5, "userId": "u1"}, {}, "n/a", [1]]`
	require.NoError(t, json.Unmarshal([]byte(raw), &ratings))
	require.Len(t, ratings, 6)

	assert.Equal(t, NewNumericRating(4), ratings[0])
	assert.Equal(t, NewNumericRating(3.5), ratings[1])
	assert.Equal(t, ObjectRating, ratings[2].Kind)
	assert.Equal(t, float64(5), ratings[2].Fields["value"])
	assert.Equal(t, ObjectRating, ratings[3].Kind)
	assert.Empty(t, ratings[3].Fields)
	assert.Equal(t, ObjectRating, ratings[4].Kind)
	assert.Equal(t, ObjectRating, ratings[5].Kind)
}

func TestRawRating_MarshalKeepsShape(t *testing.T) {
	out, err := json.Marshal([]RawRating{NewNumericRating(2), NewObjectRating(map[string]any{"rate": 1}), NewObjectRating(nil)})
	require.NoError(t, err)
	assert.JSONEq(t, `[2, {"rate": 1}, {}]`, string(out))
}

func TestRawRating_MarshalYAMLKeepsShape(t *testing.T) {
	out, err := yaml.Marshal([]RawRating{NewNumericRating(2.5), NewObjectRating(map[string]any{"rate": 1})})
	require.NoError(t, err)
	assert.Equal(t, "- 2.5\n- rate: 1\n", string(out))
}
