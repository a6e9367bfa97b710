package domain

import (
	"math"

	"github.com/utafrali/storefront/pkg/pagination"
)

// CatalogMode selects which server-side narrowing filter a query uses.
type CatalogMode string

const (
	ModeAll      CatalogMode = "all"
	ModeSearch   CatalogMode = "search"
	ModeCategory CatalogMode = "category"
	ModeBrand    CatalogMode = "brand"
)

// CatalogQuery describes one catalog page request. Only one of Keywords,
// CategoryID and BrandName narrows the server query, chosen by Mode. The
// price and rating bounds are applied to the returned page only.
type CatalogQuery struct {
	Mode        CatalogMode
	PageIndex   int
	Keywords    string
	CategoryID  string
	BrandName   string
	MinPrice    float64
	MaxPrice    float64
	RatingFloor float64
}

// NoMaxPrice is the MaxPrice of a query without an upper price bound.
var NoMaxPrice = math.Inf(1)

// PageState is derived from server totals on every fetch and never stored.
type PageState = pagination.State

// Category is a product category as listed by the API.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}
