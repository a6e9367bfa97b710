package catalog

import (
	"math"
	"net/url"
	"strconv"

	"github.com/utafrali/storefront/internal/domain"
)

// Listing endpoints.
const (
	pathAll      = "/shop/products/all"
	pathSearch   = "/shop/products/search"
	pathCategory = "/shop/products/category/"
	pathBrand    = "/shop/products/brand/"
)

// Predicate holds the price and rating bounds applied to a page after it is
// fetched.
type Predicate struct {
	MinPrice    float64
	MaxPrice    float64
	RatingFloor float64
}

// Active reports whether any bound narrows the result.
func (p Predicate) Active() bool {
	return p.MinPrice > 0 || p.MaxPrice < math.Inf(1) || p.RatingFloor > 0
}

// Match reports whether product satisfies every bound.
func (p Predicate) Match(product domain.Product) bool {
	price := product.Price.Current
	if price < p.MinPrice || price > p.MaxPrice {
		return false
	}
	return product.Rating >= p.RatingFloor
}

// Apply returns the products that match. An inactive predicate returns the
// input unchanged.
func (p Predicate) Apply(products []domain.Product) []domain.Product {
	if !p.Active() {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if p.Match(product) {
			out = append(out, product)
		}
	}
	return out
}

// Resolve maps q to exactly one listing endpoint and its query parameters,
// plus the predicate to apply to the returned page.
func Resolve(q domain.CatalogQuery) (string, url.Values, Predicate) {
	page := q.PageIndex
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page_index", strconv.Itoa(page))

	var path string
	switch modeOf(q) {
	case domain.ModeSearch:
		path = pathSearch
		params.Set("keywords", q.Keywords)
	case domain.ModeCategory:
		path = pathCategory + url.PathEscape(q.CategoryID)
	case domain.ModeBrand:
		path = pathBrand + url.PathEscape(q.BrandName)
	default:
		path = pathAll
	}

	maxPrice := q.MaxPrice
	if maxPrice <= 0 {
		maxPrice = domain.NoMaxPrice
	}
	pred := Predicate{
		MinPrice:    math.Max(q.MinPrice, 0),
		MaxPrice:    maxPrice,
		RatingFloor: math.Max(q.RatingFloor, 0),
	}
	return path, params, pred
}
