package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/activity"
	"github.com/utafrali/storefront/internal/commerce"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/review"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// PlaceholderImage is shown for products without any picture.
const PlaceholderImage = "https://placehold.co/400x300/1a1a1a/666?text=No+Image"

// API is the slice of the commerce client the catalog needs.
type API interface {
	ListProducts(ctx context.Context, path string, params url.Values) (*commerce.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Brands(ctx context.Context) ([]string, error)
	RateProduct(ctx context.Context, token, productID string, rate int) error
}

// TokenSource yields the current access token, or "" without a session.
type TokenSource interface {
	CurrentAccessToken(ctx context.Context) (string, error)
}

// Page is one filtered catalog page.
type Page struct {
	Query    domain.CatalogQuery `json:"-" yaml:"-"`
	Products []domain.Product    `json:"products" yaml:"products"`
	State    domain.PageState    `json:"pagination" yaml:"pagination"`
	// Empty is set when nothing is left after filtering.
	Empty bool `json:"empty" yaml:"empty"`
}

// Sidebar lists the available narrowing choices.
type Sidebar struct {
	Categories []domain.Category `json:"categories" yaml:"categories"`
	Brands     []string          `json:"brands" yaml:"brands"`
}

// ProductDetail is a product with its gallery and normalized reviews.
type ProductDetail struct {
	Product     *domain.Product      `json:"product" yaml:"product"`
	Gallery     []string             `json:"gallery" yaml:"gallery"`
	ReviewCount int                  `json:"review_count" yaml:"review_count"`
	Reviews     []domain.ReviewEntry `json:"reviews" yaml:"reviews"`
}

// Service browses the catalog.
type Service struct {
	api    API
	tokens TokenSource
	events activity.Publisher
	logger *slog.Logger
}

// NewService creates a catalog service.
func NewService(api API, tokens TokenSource, events activity.Publisher, logger *slog.Logger) *Service {
	if events == nil {
		events = activity.Nop{}
	}
	return &Service{api: api, tokens: tokens, events: events, logger: logger}
}

// Browse fetches the page q points at and applies the price and rating
// bounds to it. Pagination comes from the server totals of the unfiltered
// answer; other pages are never fetched to fill a filtered one.
func (s *Service) Browse(ctx context.Context, q domain.CatalogQuery) (*Page, error) {
	path, params, pred := Resolve(q)

	resp, err := s.api.ListProducts(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", path, err)
	}

	total := resp.Total
	if total == 0 {
		total = len(resp.Products)
	}
	limit := resp.Limit
	if limit == 0 {
		limit = pagination.DefaultPageSize
	}

	products := pred.Apply(resp.Products)
	if products == nil {
		products = []domain.Product{}
	}

	q.Mode = modeOf(q)
	state := pagination.Derive(q.PageIndex, total, limit)

	s.logger.DebugContext(ctx, "catalog page fetched",
		slog.String("mode", string(q.Mode)),
		slog.Int("page", state.CurrentPage),
		slog.Int("returned", len(resp.Products)),
		slog.Int("kept", len(products)),
	)

	return &Page{
		Query:    q,
		Products: products,
		State:    state,
		Empty:    len(products) == 0,
	}, nil
}

// Sidebar fetches categories and brands concurrently.
func (s *Service) Sidebar(ctx context.Context) (*Sidebar, error) {
	var out Sidebar
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cats, err := s.api.Categories(gctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		out.Categories = cats
		return nil
	})
	g.Go(func() error {
		brands, err := s.api.Brands(gctx)
		if err != nil {
			return fmt.Errorf("list brands: %w", err)
		}
		out.Brands = brands
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Product loads one product with its gallery and reviews.
func (s *Service) Product(ctx context.Context, id string) (*ProductDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	p, err := s.api.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	return &ProductDetail{
		Product:     p,
		Gallery:     Gallery(p),
		ReviewCount: len(p.Reviews) + len(p.Ratings),
		Reviews:     review.Aggregate(p.Reviews, p.Ratings),
	}, nil
}

// Gallery lists the thumbnail followed by every non-blank image, or the
// placeholder when there are none.
func Gallery(p *domain.Product) []string {
	var images []string
	if t := strings.TrimSpace(p.Thumbnail); t != "" {
		images = append(images, t)
	}
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return []string{PlaceholderImage}
	}
	return images
}

// Rate submits a 1 to 5 star rating as the signed-in user.
func (s *Service) Rate(ctx context.Context, productID string, stars int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if stars < 1 || stars > 5 {
		return apperrors.InvalidInput("rating must be between 1 and 5 stars")
	}

	token, err := s.tokens.CurrentAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if token == "" {
		return apperrors.AuthRequired("sign in to rate products")
	}

	if err := s.api.RateProduct(ctx, token, productID, stars); err != nil {
		return fmt.Errorf("rate product %s: %w", productID, err)
	}

	s.logger.InfoContext(ctx, "product rated",
		slog.String("product_id", productID),
		slog.Int("stars", stars),
	)
	if err := s.events.Publish(ctx, activity.Event{Kind: activity.Rated, ProductID: productID, Rate: stars}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish activity", slog.String("error", err.Error()))
	}
	return nil
}
