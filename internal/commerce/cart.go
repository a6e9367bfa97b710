package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

type cartDTO struct {
	Products []struct {
		ProductID        string  `json:"productId"`
		Quantity         int     `json:"quantity"`
		PricePerQuantity float64 `json:"pricePerQuantity"`
	} `json:"products"`
	Total struct {
		Quantity int `json:"quantity"`
		Price    struct {
			Current float64 `json:"current"`
		} `json:"price"`
	} `json:"total"`
}

func (d cartDTO) toDomain() *domain.Cart {
	cart := &domain.Cart{
		Lines: make([]domain.CartLine, 0, len(d.Products)),
		Total: domain.CartTotal{Quantity: d.Total.Quantity, Price: d.Total.Price.Current},
	}
	for _, p := range d.Products {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID:    p.ProductID,
			Quantity:     p.Quantity,
			PricePerUnit: p.PricePerQuantity,
		})
	}
	return cart
}

type lineBody struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity,omitempty"`
}

// GetCart reads the user's cart. A non-2xx answer means the user has no cart
// resource yet and is reported as (nil, false, nil).
func (c *Client) GetCart(ctx context.Context, token string) (*domain.Cart, bool, error) {
	resp, err := c.send(ctx, call{method: http.MethodGet, path: "/shop/cart", token: token})
	if err != nil {
		return nil, false, err
	}
	defer drainAndClose(resp.Body)

	if !httpclient.IsSuccess(resp.StatusCode) {
		c.logger.DebugContext(ctx, "no cart resource", slog.Int("status", resp.StatusCode))
		return nil, false, nil
	}

	var dto cartDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, false, apperrors.RemoteUnreachable(fmt.Errorf("decode cart: %w", err))
	}
	return dto.toDomain(), true, nil
}

// CreateCart creates the cart resource with its first line.
func (c *Client) CreateCart(ctx context.Context, token, productID string, quantity int) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/shop/cart/product",
		token:    token,
		body:     lineBody{ID: productID, Quantity: quantity},
		fallback: "could not add to cart",
	}, nil)
}

// SetLineQuantity sets a line's quantity in an existing cart, creating the
// line when absent.
func (c *Client) SetLineQuantity(ctx context.Context, token, productID string, quantity int) error {
	return c.do(ctx, call{
		method:   http.MethodPatch,
		path:     "/shop/cart/product",
		token:    token,
		body:     lineBody{ID: productID, Quantity: quantity},
		fallback: "could not update cart",
	}, nil)
}

// DeleteLine removes a line from the cart.
func (c *Client) DeleteLine(ctx context.Context, token, productID string) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		path:     "/shop/cart/product",
		token:    token,
		body:     lineBody{ID: productID},
		fallback: "could not remove from cart",
	}, nil)
}

// ClearCart deletes the whole cart resource.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		path:     "/shop/cart",
		token:    token,
		fallback: "could not clear cart",
	}, nil)
}

// Checkout settles the cart.
func (c *Client) Checkout(ctx context.Context, token string) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/shop/cart/checkout",
		token:    token,
		fallback: "checkout failed",
	}, nil)
}
