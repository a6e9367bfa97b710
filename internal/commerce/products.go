package commerce

import (
	"context"
	"net/http"
	"net/url"

	"github.com/utafrali/storefront/internal/domain"
)

// ProductPage is one page of a product listing as returned by the API.
// Total and Limit are zero when the server omits them.
type ProductPage struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Page     int              `json:"page"`
}

// ListProducts fetches a listing endpoint such as /shop/products/all.
func (c *Client) ListProducts(ctx context.Context, path string, params url.Values) (*ProductPage, error) {
	var page ProductPage
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     path,
		query:    params,
		fallback: "could not load products",
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/shop/products/id/" + url.PathEscape(id),
		fallback: "product not found",
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Categories lists all product categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/shop/products/categories",
		fallback: "could not load categories",
	}, &cats)
	return cats, err
}

// Brands lists all brand names.
func (c *Client) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/shop/products/brands",
		fallback: "could not load brands",
	}, &brands)
	return brands, err
}

// RateProduct submits a star rating for a product.
func (c *Client) RateProduct(ctx context.Context, token, productID string, rate int) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/shop/products/rate",
		token:  token,
		body: struct {
			ProductID string `json:"productId"`
			Rate      int    `json:"rate"`
		}{productID, rate},
		fallback: "rating failed",
	}, nil)
}

// Ping checks that the API answers a cheap read.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Brands(ctx)
	return err
}
