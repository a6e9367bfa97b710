package catalog

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

func TestBuildQuery_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		mode   domain.CatalogMode
	}{
		{"search beats category", url.Values{"q": {"x"}, "cat": {"c"}}, domain.ModeSearch},
		{"search beats brand", url.Values{"q": {"x"}, "brand": {"acme"}}, domain.ModeSearch},
		{"category beats brand", url.Values{"cat": {"c"}, "brand": {"acme"}}, domain.ModeCategory},
		{"brand", url.Values{"brand": {"acme"}}, domain.ModeBrand},
		{"blank search ignored", url.Values{"q": {"   "}, "brand": {"acme"}}, domain.ModeBrand},
		{"nothing", url.Values{}, domain.ModeAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.mode, BuildQuery(tt.values).Mode)
		})
	}
}

func TestBuildQuery_Defaults(t *testing.T) {
	q := BuildQuery(url.Values{
		"minPrice": {"abc"},
		"maxPrice": {"0"},
		"rating":   {"-2"},
		"page":     {"0"},
	})
	assert.Equal(t, 0.0, q.MinPrice)
	assert.True(t, math.IsInf(q.MaxPrice, 1))
	assert.Equal(t, 0.0, q.RatingFloor)
	assert.Equal(t, 1, q.PageIndex)
}

func TestBuildQuery_ParsesBounds(t *testing.T) {
	q := BuildQuery(url.Values{
		"minPrice": {"10"},
		"maxPrice": {"99.5"},
		"rating":   {"4"},
		"page":     {"3"},
	})
	assert.Equal(t, 10.0, q.MinPrice)
	assert.Equal(t, 99.5, q.MaxPrice)
	assert.Equal(t, 4.0, q.RatingFloor)
	assert.Equal(t, 3, q.PageIndex)
}

func TestValues_RoundTrip(t *testing.T) {
	in := url.Values{"cat": {"2"}, "minPrice": {"10"}, "maxPrice": {"99.5"}, "rating": {"4"}, "page": {"3"}}
	q := BuildQuery(in)
	assert.Equal(t, in, Values(q))
	assert.Equal(t, q, BuildQuery(Values(q)))
}

func TestValues_OmitsNeutral(t *testing.T) {
	assert.Empty(t, Values(BuildQuery(url.Values{})))
}

func TestPageValues(t *testing.T) {
	q := BuildQuery(url.Values{"brand": {"acme"}})
	v := PageValues(q, 2)
	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "acme", v.Get("brand"))
	assert.Empty(t, PageValues(q, 0).Get("page"))
}

func TestWithFilters_ResetsPage(t *testing.T) {
	q := BuildQuery(url.Values{"q": {"phone"}, "page": {"4"}})
	q = WithFilters(q, 50, 0, 3)
	assert.Equal(t, 1, q.PageIndex)
	assert.Equal(t, 50.0, q.MinPrice)
	assert.True(t, math.IsInf(q.MaxPrice, 1))
	assert.Equal(t, 3.0, q.RatingFloor)
	assert.Equal(t, "phone", q.Keywords)
}

func TestResolve_Endpoints(t *testing.T) {
	tests := []struct {
		values url.Values
		path   string
		params url.Values
	}{
		{url.Values{}, "/shop/products/all", url.Values{"page_index": {"1"}}},
		{url.Values{"q": {"red phone"}, "cat": {"1"}, "page": {"2"}}, "/shop/products/search",
			url.Values{"page_index": {"2"}, "keywords": {"red phone"}}},
		{url.Values{"cat": {"1"}}, "/shop/products/category/1", url.Values{"page_index": {"1"}}},
		{url.Values{"brand": {"black & white"}}, "/shop/products/brand/black%20&%20white", url.Values{"page_index": {"1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			path, params, _ := Resolve(BuildQuery(tt.values))
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestResolve_ZeroQuery(t *testing.T) {
	path, params, pred := Resolve(domain.CatalogQuery{})
	assert.Equal(t, "/shop/products/all", path)
	assert.Equal(t, "1", params.Get("page_index"))
	assert.False(t, pred.Active())
}

func products() []domain.Product {
	return []domain.Product{
		{ID: "a", Price: domain.Price{Current: 5}, Rating: 4.5},
		{ID: "b", Price: domain.Price{Current: 20}, Rating: 2},
		{ID: "c", Price: domain.Price{Current: 50}, Rating: 5},
		{ID: "d", Price: domain.Price{Current: 150}, Rating: 3.9},
	}
}

func TestPredicate_InactiveReturnsInput(t *testing.T) {
	_, _, pred := Resolve(BuildQuery(url.Values{}))
	in := products()
	assert.False(t, pred.Active())
	assert.Equal(t, in, pred.Apply(in))
}

func TestPredicate_AllBoundsHold(t *testing.T) {
	bounds := []url.Values{
		{"minPrice": {"10"}},
		{"maxPrice": {"60"}},
		{"rating": {"4"}},
		{"minPrice": {"10"}, "maxPrice": {"100"}, "rating": {"3"}},
	}
	for _, b := range bounds {
		t.Run(b.Encode(), func(t *testing.T) {
			_, _, pred := Resolve(BuildQuery(b))
			require.True(t, pred.Active())
			out := pred.Apply(products())
			for _, p := range out {
				assert.GreaterOrEqual(t, p.Price.Current, pred.MinPrice)
				assert.LessOrEqual(t, p.Price.Current, pred.MaxPrice)
				assert.GreaterOrEqual(t, p.Rating, pred.RatingFloor)
			}
			for _, p := range products() {
				if pred.Match(p) {
					assert.Contains(t, out, p)
				}
			}
		})
	}
}

func TestPredicate_Inclusive(t *testing.T) {
	_, _, pred := Resolve(BuildQuery(url.Values{"minPrice": {"20"}, "maxPrice": {"50"}}))
	ids := []string{}
	for _, p := range pred.Apply(products()) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"b", "c"}, ids)
}
