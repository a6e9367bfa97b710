// Package cart reconciles cart mutations against the server's cart and
// stock. Every decision is made on a fresh read; nothing is cached.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/activity"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// maxProductFetches bounds concurrent product reads while building a view.
const maxProductFetches = 4

// API is the slice of the commerce client the engine needs.
type API interface {
	GetCart(ctx context.Context, token string) (*domain.Cart, bool, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateCart(ctx context.Context, token, productID string, quantity int) error
	SetLineQuantity(ctx context.Context, token, productID string, quantity int) error
	DeleteLine(ctx context.Context, token, productID string) error
	ClearCart(ctx context.Context, token string) error
	Checkout(ctx context.Context, token string) error
}

// TokenSource yields the current access token, or "" without a session.
type TokenSource interface {
	CurrentAccessToken(ctx context.Context) (string, error)
}

// Result is the server's cart after a successful mutation.
type Result struct {
	Cart  *domain.Cart `json:"cart" yaml:"cart"`
	Badge int          `json:"badge" yaml:"badge"`
}

// Engine performs cart mutations for the signed-in user.
type Engine struct {
	api    API
	tokens TokenSource
	events activity.Publisher
	logger *slog.Logger
}

// NewEngine creates a cart engine.
func NewEngine(api API, tokens TokenSource, events activity.Publisher, logger *slog.Logger) *Engine {
	if events == nil {
		events = activity.Nop{}
	}
	return &Engine{api: api, tokens: tokens, events: events, logger: logger}
}

func (e *Engine) token(ctx context.Context) (string, error) {
	token, err := e.tokens.CurrentAccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	if token == "" {
		return "", apperrors.AuthRequired("sign in to use the cart")
	}
	return token, nil
}

func productID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.InvalidInput("product id is required")
	}
	return id, nil
}

// Add puts n more units of a product into the cart, creating the cart when
// the user has none.
func (e *Engine) Add(ctx context.Context, id string, n int) (*Result, error) {
	token, err := e.token(ctx)
	if err != nil {
		return nil, err
	}
	if id, err = productID(id); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	cart, exists, err := e.api.GetCart(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	product, err := e.api.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read product %s: %w", id, err)
	}

	line, _ := cart.Line(id)
	step, err := Plan(State{ProductID: id, CartExists: exists, Quantity: line.Quantity}, product.Stock, n)
	if err != nil {
		return nil, err
	}

	if err := e.apply(ctx, token, id, step); err != nil {
		return nil, err
	}
	return e.finish(ctx, token, activity.Event{Kind: activity.LineAdded, ProductID: id, Quantity: step.Quantity})
}

// Increment adds one unit to a line already in the cart.
func (e *Engine) Increment(ctx context.Context, id string) (*Result, error) {
	token, err := e.token(ctx)
	if err != nil {
		return nil, err
	}
	if id, err = productID(id); err != nil {
		return nil, err
	}

	line, err := e.line(ctx, token, id)
	if err != nil {
		return nil, err
	}
	product, err := e.api.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read product %s: %w", id, err)
	}

	step, err := Plan(State{ProductID: id, CartExists: true, Quantity: line.Quantity}, product.Stock, 1)
	if err != nil {
		return nil, err
	}
	if err := e.apply(ctx, token, id, step); err != nil {
		return nil, err
	}
	return e.finish(ctx, token, activity.Event{Kind: activity.LineUpdated, ProductID: id, Quantity: step.Quantity})
}

// Decrement takes one unit off a line, removing it at one unit.
func (e *Engine) Decrement(ctx context.Context, id string) (*Result, error) {
	token, err := e.token(ctx)
	if err != nil {
		return nil, err
	}
	if id, err = productID(id); err != nil {
		return nil, err
	}

	line, err := e.line(ctx, token, id)
	if err != nil {
		return nil, err
	}

	step := PlanDecrement(line.Quantity)
	if err := e.apply(ctx, token, id, step); err != nil {
		return nil, err
	}

	kind := activity.LineUpdated
	if step.Action == ActionDelete {
		kind = activity.LineRemoved
	}
	return e.finish(ctx, token, activity.Event{Kind: kind, ProductID: id, Quantity: step.Quantity})
}

// Remove deletes a line whatever its quantity.
func (e *Engine) Remove(ctx context.Context, id string) (*Result, error) {
	token, err := e.token(ctx)
	if err != nil {
		return nil, err
	}
	if id, err = productID(id); err != nil {
		return nil, err
	}

	if err := e.apply(ctx, token, id, Step{Action: ActionDelete}); err != nil {
		return nil, err
	}
	return e.finish(ctx, token, activity.Event{Kind: activity.LineRemoved, ProductID: id})
}

// Clear empties the cart. It refuses to run unless confirmed.
func (e *Engine) Clear(ctx context.Context, confirmed bool) (*Result, error) {
	token, err := e.token(ctx)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, apperrors.InvalidInput("clearing the cart must be confirmed")
	}

	if err := e.api.ClearCart(ctx, token); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	return e.finish(ctx, token, activity.Event{Kind: activity.CartCleared})
}

// Checkout places an order for the current cart.
func (e *Engine) Checkout(ctx context.Context) (*Result, error) {
	token, err := e.token(ctx)
	if err != nil {
		return nil, err
	}

	cart, _, err := e.api.GetCart(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if cart.Empty() {
		return nil, apperrors.InvalidInput("your cart is empty")
	}

	if err := e.api.Checkout(ctx, token); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	e.logger.InfoContext(ctx, "checkout completed",
		slog.Int("lines", len(cart.Lines)),
		slog.Int("quantity", cart.Total.Quantity),
	)
	return e.finish(ctx, token, activity.Event{Kind: activity.CheckedOut, Quantity: cart.Total.Quantity})
}

// Badge returns the server's total quantity, or 0 without a session or cart.
func (e *Engine) Badge(ctx context.Context) (int, error) {
	token, err := e.tokens.CurrentAccessToken(ctx)
	if err != nil {
		return 0, fmt.Errorf("read session: %w", err)
	}
	if token == "" {
		return 0, nil
	}
	cart, exists, err := e.api.GetCart(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("read cart: %w", err)
	}
	if !exists {
		return 0, nil
	}
	return cart.Total.Quantity, nil
}

// View returns the cart with each line's product. Products are fetched
// concurrently; lines whose product cannot be read are left out.
func (e *Engine) View(ctx context.Context) (*domain.CartView, error) {
	token, err := e.token(ctx)
	if err != nil {
		return nil, err
	}

	cart, exists, err := e.api.GetCart(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	view := &domain.CartView{Items: []domain.CartItem{}}
	if !exists {
		return view, nil
	}
	view.Total = cart.Total

	fetched := make([]*domain.Product, len(cart.Lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProductFetches)
	for i, l := range cart.Lines {
		g.Go(func() error {
			p, err := e.api.GetProduct(gctx, l.ProductID)
			if err != nil {
				e.logger.WarnContext(ctx, "dropping cart line without product",
					slog.String("product_id", l.ProductID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			fetched[i] = p
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	for i, l := range cart.Lines {
		p := fetched[i]
		if p == nil {
			continue
		}
		view.Items = append(view.Items, domain.CartItem{
			CartLine:     l,
			Product:      p,
			CanIncrement: l.Quantity < p.Stock,
		})
	}
	return view, nil
}

// line reads the cart and returns the line for id.
func (e *Engine) line(ctx context.Context, token, id string) (domain.CartLine, error) {
	cart, _, err := e.api.GetCart(ctx, token)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("read cart: %w", err)
	}
	line, ok := cart.Line(id)
	if !ok {
		return domain.CartLine{}, apperrors.NotFound("cart line", id)
	}
	return line, nil
}

func (e *Engine) apply(ctx context.Context, token, id string, step Step) error {
	var err error
	switch step.Action {
	case ActionCreate:
		err = e.api.CreateCart(ctx, token, id, step.Quantity)
	case ActionUpdate:
		err = e.api.SetLineQuantity(ctx, token, id, step.Quantity)
	case ActionDelete:
		err = e.api.DeleteLine(ctx, token, id)
	default:
		return apperrors.Internal(fmt.Errorf("unknown cart action %q", step.Action))
	}
	if err != nil {
		return fmt.Errorf("%s line %s: %w", step.Action, id, err)
	}
	e.logger.InfoContext(ctx, "cart line written",
		slog.String("action", string(step.Action)),
		slog.String("product_id", id),
		slog.Int("quantity", step.Quantity),
	)
	return nil
}

// finish re-reads the cart after a successful write and reports the action.
func (e *Engine) finish(ctx context.Context, token string, ev activity.Event) (*Result, error) {
	cart, exists, err := e.api.GetCart(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("re-read cart: %w", err)
	}
	res := &Result{Cart: &domain.Cart{Lines: []domain.CartLine{}}}
	if exists {
		res.Cart = cart
		res.Badge = cart.Total.Quantity
	}

	ev.CartQuantity = res.Badge
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.WarnContext(ctx, "failed to publish activity",
			slog.String("kind", string(ev.Kind)),
			slog.String("error", err.Error()),
		)
	}
	return res, nil
}
