// Package catalog turns user-selected filters into commerce API listing
// queries and derives pagination from what the server answers.
package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
)

// URL parameter names carrying catalog state.
const (
	ParamSearch   = "q"
	ParamCategory = "cat"
	ParamBrand    = "brand"
	ParamMinPrice = "minPrice"
	ParamMaxPrice = "maxPrice"
	ParamRating   = "rating"
	ParamPage     = "page"
)

// BuildQuery reads catalog state from URL parameters. Missing, unparseable
// or non-positive bounds fall back to their neutral value and the page index
// is never below 1. The server-side filter is chosen by precedence: search,
// then category, then brand, then all products.
func BuildQuery(v url.Values) domain.CatalogQuery {
	q := domain.CatalogQuery{
		Keywords:    strings.TrimSpace(v.Get(ParamSearch)),
		CategoryID:  strings.TrimSpace(v.Get(ParamCategory)),
		BrandName:   strings.TrimSpace(v.Get(ParamBrand)),
		MinPrice:    positiveOr(v.Get(ParamMinPrice), 0),
		MaxPrice:    positiveOr(v.Get(ParamMaxPrice), domain.NoMaxPrice),
		RatingFloor: positiveOr(v.Get(ParamRating), 0),
		PageIndex:   1,
	}

	if page, err := strconv.Atoi(strings.TrimSpace(v.Get(ParamPage))); err == nil && page > 1 {
		q.PageIndex = page
	}

	q.Mode = modeOf(q)
	return q
}

func modeOf(q domain.CatalogQuery) domain.CatalogMode {
	switch {
	case q.Keywords != "":
		return domain.ModeSearch
	case q.CategoryID != "":
		return domain.ModeCategory
	case q.BrandName != "":
		return domain.ModeBrand
	default:
		return domain.ModeAll
	}
}

func positiveOr(raw string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

// Values encodes q back into URL parameters. Neutral bounds and page 1 are
// left out so that BuildQuery(Values(q)) yields q again.
func Values(q domain.CatalogQuery) url.Values {
	v := url.Values{}
	if q.Keywords != "" {
		v.Set(ParamSearch, q.Keywords)
	}
	if q.CategoryID != "" {
		v.Set(ParamCategory, q.CategoryID)
	}
	if q.BrandName != "" {
		v.Set(ParamBrand, q.BrandName)
	}
	if q.MinPrice > 0 {
		v.Set(ParamMinPrice, formatFloat(q.MinPrice))
	}
	if q.MaxPrice > 0 && !math.IsInf(q.MaxPrice, 1) {
		v.Set(ParamMaxPrice, formatFloat(q.MaxPrice))
	}
	if q.RatingFloor > 0 {
		v.Set(ParamRating, formatFloat(q.RatingFloor))
	}
	if q.PageIndex > 1 {
		v.Set(ParamPage, strconv.Itoa(q.PageIndex))
	}
	return v
}

// PageValues returns the URL parameters of q moved to page.
func PageValues(q domain.CatalogQuery, page int) url.Values {
	if page < 1 {
		page = 1
	}
	q.PageIndex = page
	return Values(q)
}

// WithFilters returns q with new price and rating bounds, back on page 1.
// Non-positive bounds clear the corresponding filter.
func WithFilters(q domain.CatalogQuery, minPrice, maxPrice, ratingFloor float64) domain.CatalogQuery {
	q.MinPrice = 0
	if minPrice > 0 {
		q.MinPrice = minPrice
	}
	q.MaxPrice = domain.NoMaxPrice
	if maxPrice > 0 {
		q.MaxPrice = maxPrice
	}
	q.RatingFloor = 0
	if ratingFloor > 0 {
		q.RatingFloor = ratingFloor
	}
	q.PageIndex = 1
	return q
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
