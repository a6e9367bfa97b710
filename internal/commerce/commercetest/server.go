// Package commercetest runs an in-process fake of the commerce API for tests.
package commercetest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/internal/domain"
)

// DefaultPageSize is the listing limit the fake reports.
const DefaultPageSize = 5

var signingKey = []byte("commercetest")

// Request is one request received by the fake.
type Request struct {
	Method        string
	Path          string
	Query         string
	Token         string
	CorrelationID string
	Body          map[string]any
}

type line struct {
	productID string
	quantity  int
}

type failure struct {
	status  int
	message any
}

// Server is a fake commerce API. Its zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	products   []domain.Product
	categories []domain.Category
	users      map[string]string
	tokens     map[string]string
	carts      map[string][]line
	failures   map[string]failure
	requests   []Request

	// PageSize is the listing limit. Zero makes the fake omit limit.
	PageSize int
	// OmitTotal makes listings leave out total.
	OmitTotal bool
	// AccessTTL is the exp claim distance of issued access tokens.
	AccessTTL time.Duration
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		users:     make(map[string]string),
		tokens:    make(map[string]string),
		carts:     make(map[string][]line),
		failures:  make(map[string]failure),
		PageSize:  DefaultPageSize,
		AccessTTL: 24 * time.Hour,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign_in", s.signIn)
		r.Post("/sign_up", s.signUp)
		r.With(s.bearer).Post("/sign_out", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		})
	})

	r.Route("/shop/products", func(r chi.Router) {
		r.Get("/all", s.listAll)
		r.Get("/search", s.search)
		r.Get("/category/{id}", s.byCategory)
		r.Get("/brand/{name}", s.byBrand)
		r.Get("/id/{id}", s.product)
		r.Get("/categories", s.listCategories)
		r.Get("/brands", s.listBrands)
		r.With(s.bearer).Post("/rate", s.rate)
	})

	r.Route("/shop/cart", func(r chi.Router) {
		r.Use(s.bearer)
		r.Get("/", s.getCart)
		r.Delete("/", s.clearCart)
		r.Post("/product", s.createCart)
		r.Patch("/product", s.setLine)
		r.Delete("/product", s.deleteLine)
		r.Post("/checkout", s.checkout)
	})

	return r
}

// --- fixtures ---

// AddProduct registers a product.
func (s *Server) AddProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
}

// AddCategory registers a category.
func (s *Server) AddCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
}

// AddUser registers an account.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = password
}

// Token issues an access token for email without a sign-in round trip.
func (s *Server) Token(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(email, "access", s.AccessTTL)
}

// SetCart creates (or replaces) a cart for email with the given
// productID/quantity pairs.
func (s *Server) SetCart(email string, lines map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := make([]line, 0, len(lines))
	for _, p := range s.products {
		if q, ok := lines[p.ID]; ok {
			cart = append(cart, line{productID: p.ID, quantity: q})
		}
	}
	s.carts[email] = cart
}

// SetStock changes a product's stock.
func (s *Server) SetStock(productID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.find(productID); p != nil {
		p.Stock = stock
	}
}

// CartQuantity reports a line's quantity and whether email has a cart.
func (s *Server) CartQuantity(email, productID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[email]
	if !ok {
		return 0, false
	}
	for _, l := range cart {
		if l.productID == productID {
			return l.quantity, true
		}
	}
	return 0, true
}

// HasCart reports whether email has a cart resource.
func (s *Server) HasCart(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.carts[email]
	return ok
}

// FailNext makes the next request to method+path answer status with a
// {"message": message} body. message may be a string or []string.
func (s *Server) FailNext(method, path string, status int, message any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests received for method+path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Product returns the stored product.
func (s *Server) Product(id string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.find(id); p != nil {
		return *p, true
	}
	return domain.Product{}, false
}

// --- middleware ---

type emailKey struct{}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(raw)))

		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          strings.TrimSuffix(r.URL.Path, "/"),
			Query:         r.URL.RawQuery,
			Token:         strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
			CorrelationID: r.Header.Get("X-Correlation-ID"),
			Body:          body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimSuffix(r.URL.Path, "/")
		s.mu.Lock()
		f, ok := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()
		if ok {
			writeJSON(w, f.status, map[string]any{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		email, ok := s.tokens[token]
		s.mu.Unlock()
		if token == "" || !ok {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), emailKey{}, email)))
	})
}

func emailFrom(r *http.Request) string {
	email, _ := r.Context().Value(emailKey{}).(string)
	return email
}

// --- auth ---

func (s *Server) issue(email, kind string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"email": email,
		"kind":  kind,
		"exp":   time.Now().Add(ttl).Unix(),
		"jti":   strconv.Itoa(len(s.tokens)),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	s.tokens[token] = email
	return token
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.users[req.Email]; !ok || pw != req.Password {
		writeMessage(w, http.StatusBadRequest, "Email or password is incorrect")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  s.issue(req.Email, "access", s.AccessTTL),
		"refresh_token": s.issue(req.Email, "refresh", 7*24*time.Hour),
	})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[req.Email]; ok {
		writeMessage(w, http.StatusConflict, "User already exists with this email")
		return
	}
	s.users[req.Email] = req.Password
	writeJSON(w, http.StatusCreated, map[string]string{"email": req.Email})
}

// --- products ---

func (s *Server) find(id string) *domain.Product {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i]
		}
	}
	return nil
}

func (s *Server) writeListing(w http.ResponseWriter, r *http.Request, match func(domain.Product) bool) {
	s.mu.Lock()
	var all []domain.Product
	for _, p := range s.products {
		if match(p) {
			all = append(all, p)
		}
	}
	size := s.PageSize
	omitTotal := s.OmitTotal
	s.mu.Unlock()

	page, _ := strconv.Atoi(r.URL.Query().Get("page_index"))
	if page < 1 {
		page = 1
	}
	window := all
	if size > 0 {
		start := (page - 1) * size
		switch {
		case start >= len(all):
			window = nil
		case start+size > len(all):
			window = all[start:]
		default:
			window = all[start : start+size]
		}
	}
	if window == nil {
		window = []domain.Product{}
	}

	body := map[string]any{"page": page, "products": window}
	if !omitTotal {
		body["total"] = len(all)
	}
	if size > 0 {
		body["limit"] = size
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) listAll(w http.ResponseWriter, r *http.Request) {
	s.writeListing(w, r, func(domain.Product) bool { return true })
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	kw := strings.ToLower(r.URL.Query().Get("keywords"))
	s.writeListing(w, r, func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Title), kw)
	})
}

func (s *Server) byCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.writeListing(w, r, func(p domain.Product) bool { return p.Category.ID == id })
}

func (s *Server) byBrand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.writeListing(w, r, func(p domain.Product) bool { return p.Brand == name })
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	p := s.find(id)
	var out domain.Product
	if p != nil {
		out = *p
	}
	s.mu.Unlock()
	if p == nil {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Product with id %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	cats := append([]domain.Category{}, s.categories...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) listBrands(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	seen := make(map[string]bool)
	brands := []string{}
	for _, p := range s.products {
		if p.Brand != "" && !seen[p.Brand] {
			seen[p.Brand] = true
			brands = append(brands, p.Brand)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, brands)
}

func (s *Server) rate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Rate      int    `json:"rate"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(req.ProductID)
	if p == nil {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Product with id %s not found", req.ProductID))
		return
	}
	p.Ratings = append(p.Ratings, domain.NewObjectRating(map[string]any{
		"userId": emailFrom(r),
		"value":  float64(req.Rate),
	}))
	writeJSON(w, http.StatusCreated, p)
}

// --- cart ---

type lineRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

func (s *Server) cartBody(email string) map[string]any {
	products := []map[string]any{}
	var qty int
	var price float64
	for _, l := range s.carts[email] {
		unit := 0.0
		if p := s.find(l.productID); p != nil {
			unit = p.Price.Current
		}
		products = append(products, map[string]any{
			"productId":        l.productID,
			"quantity":         l.quantity,
			"pricePerQuantity": unit,
		})
		qty += l.quantity
		price += unit * float64(l.quantity)
	}
	return map[string]any{
		"products": products,
		"total": map[string]any{
			"quantity": qty,
			"price":    map[string]float64{"current": price},
		},
	}
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := emailFrom(r)
	if _, ok := s.carts[email]; !ok {
		writeMessage(w, http.StatusConflict, "User has to create cart first")
		return
	}
	writeJSON(w, http.StatusOK, s.cartBody(email))
}

func (s *Server) checkStock(w http.ResponseWriter, req lineRequest) bool {
	p := s.find(req.ID)
	if p == nil {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Product with id %s not found", req.ID))
		return false
	}
	if req.Quantity < 1 || req.Quantity > p.Stock {
		writeMessage(w, http.StatusBadRequest, "Quantity is more than stock")
		return false
	}
	return true
}

func (s *Server) createCart(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	email := emailFrom(r)
	if _, ok := s.carts[email]; ok {
		writeMessage(w, http.StatusConflict, "User already has cart")
		return
	}
	if !s.checkStock(w, req) {
		return
	}
	s.carts[email] = []line{{productID: req.ID, quantity: req.Quantity}}
	writeJSON(w, http.StatusCreated, s.cartBody(email))
}

func (s *Server) setLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	email := emailFrom(r)
	cart, ok := s.carts[email]
	if !ok {
		writeMessage(w, http.StatusConflict, "User has to create cart first")
		return
	}
	if !s.checkStock(w, req) {
		return
	}
	updated := false
	for i := range cart {
		if cart[i].productID == req.ID {
			cart[i].quantity = req.Quantity
			updated = true
		}
	}
	if !updated {
		cart = append(cart, line{productID: req.ID, quantity: req.Quantity})
	}
	s.carts[email] = cart
	writeJSON(w, http.StatusOK, s.cartBody(email))
}

func (s *Server) deleteLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	email := emailFrom(r)
	cart, ok := s.carts[email]
	if !ok {
		writeMessage(w, http.StatusConflict, "User has to create cart first")
		return
	}
	kept := cart[:0]
	for _, l := range cart {
		if l.productID != req.ID {
			kept = append(kept, l)
		}
	}
	s.carts[email] = kept
	writeJSON(w, http.StatusOK, s.cartBody(email))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, emailFrom(r))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := emailFrom(r)
	cart, ok := s.carts[email]
	if !ok || len(cart) == 0 {
		writeMessage(w, http.StatusConflict, "User has to create cart first")
		return
	}
	for _, l := range cart {
		if p := s.find(l.productID); p != nil {
			p.Stock -= l.quantity
		}
	}
	delete(s.carts, email)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Checkout successful"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message, "error": http.StatusText(status)})
}
