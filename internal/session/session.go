// Package session holds the signed-in state of the storefront user: the
// access token, the refresh token and a locally synthesized user summary,
// each stored as an independently expiring entry.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/internal/commerce"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/session/kv"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// Entry keys. They are always cleared together.
const (
	keyAccess  = "access_token"
	keyRefresh = "refresh_token"
	keyUser    = "user"
)

// DefaultAvatar is used when sign-up omits an avatar URL.
const DefaultAvatar = "https://i.imgur.com/IBhCeeP.jpg"

// Authenticator is the part of the commerce API the session needs.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*commerce.Tokens, error)
	SignUp(ctx context.Context, req commerce.SignUpRequest) error
	SignOut(ctx context.Context, token string) error
}

// Config holds the entry lifetimes.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ProfileTTL time.Duration
}

// DefaultConfig returns one day for the access token and profile and seven
// days for the refresh token.
func DefaultConfig() Config {
	return Config{
		AccessTTL:  24 * time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
		ProfileTTL: 24 * time.Hour,
	}
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the session store. It keeps no state of its own; every read goes
// to the backend.
type Store struct {
	backend kv.Store
	auth    Authenticator
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore creates a session store over backend.
func NewStore(backend kv.Store, auth Authenticator, cfg Config, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		auth:    auth,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type signInInput struct {
	Email    string `json:"email" validate:"required,email_addr"`
	Password string `json:"password" validate:"required,password"`
}

// SignIn validates the credentials locally, exchanges them for tokens and
// stores the new session.
func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	in := signInInput{Email: strings.TrimSpace(email), Password: password}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	tokens, err := s.auth.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &domain.Session{
		AccessToken:   tokens.AccessToken,
		RefreshToken:  tokens.RefreshToken,
		User:          &domain.UserSummary{Email: in.Email, FirstName: localPart(in.Email)},
		AccessExpiry:  now.Add(s.cfg.AccessTTL),
		RefreshExpiry: now.Add(s.cfg.RefreshTTL),
	}
	// An exp already in the past means the clocks disagree; the configured
	// TTL stands and the server stays the judge of the token.
	if exp, ok := tokenExpiry(tokens.AccessToken); ok && exp.After(now) && exp.Before(sess.AccessExpiry) {
		sess.AccessExpiry = exp
	}

	if err := s.save(ctx, sess, now.Add(s.cfg.ProfileTTL)); err != nil {
		_ = s.backend.Delete(ctx, keyAccess, keyRefresh, keyUser)
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.logger.InfoContext(ctx, "signed in",
		slog.String("user", sess.User.Email),
		slog.Time("access_expiry", sess.AccessExpiry),
	)
	return sess, nil
}

func (s *Store) save(ctx context.Context, sess *domain.Session, profileExpiry time.Time) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.backend.Set(ctx, keyAccess, kv.Entry{Value: sess.AccessToken, ExpiresAt: sess.AccessExpiry}); err != nil {
		return err
	}
	if err := s.backend.Set(ctx, keyRefresh, kv.Entry{Value: sess.RefreshToken, ExpiresAt: sess.RefreshExpiry}); err != nil {
		return err
	}
	return s.backend.Set(ctx, keyUser, kv.Entry{Value: string(user), ExpiresAt: profileExpiry})
}

// SignOut asks the API to invalidate the token, then clears every entry
// regardless of the outcome.
func (s *Store) SignOut(ctx context.Context) error {
	token, err := s.CurrentAccessToken(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "read token for sign out", slog.String("error", err.Error()))
	}
	if token != "" {
		if err := s.auth.SignOut(ctx, token); err != nil {
			s.logger.WarnContext(ctx, "remote sign out failed", slog.String("error", err.Error()))
		}
	}

	if err := s.backend.Delete(ctx, keyAccess, keyRefresh, keyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.InfoContext(ctx, "signed out")
	return nil
}

// CurrentAccessToken returns the stored access token, or "" when there is no
// live session. It never refreshes.
func (s *Store) CurrentAccessToken(ctx context.Context) (string, error) {
	e, ok, err := s.get(ctx, keyAccess)
	if err != nil || !ok {
		return "", err
	}
	return e.Value, nil
}

// User returns the signed-in user's summary, or nil.
func (s *Store) User(ctx context.Context) (*domain.UserSummary, error) {
	e, ok, err := s.get(ctx, keyUser)
	if err != nil || !ok {
		return nil, err
	}
	var u domain.UserSummary
	if err := json.Unmarshal([]byte(e.Value), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// Session returns every live entry as a Session, or nil when none is left.
func (s *Store) Session(ctx context.Context) (*domain.Session, error) {
	access, hasAccess, err := s.get(ctx, keyAccess)
	if err != nil {
		return nil, err
	}
	refresh, hasRefresh, err := s.get(ctx, keyRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.User(ctx)
	if err != nil {
		return nil, err
	}
	if !hasAccess && !hasRefresh && user == nil {
		return nil, nil
	}
	return &domain.Session{
		AccessToken:   access.Value,
		RefreshToken:  refresh.Value,
		User:          user,
		AccessExpiry:  access.ExpiresAt,
		RefreshExpiry: refresh.ExpiresAt,
	}, nil
}

// get reads key, treating backend misses and entries past their recorded
// expiry alike as absent.
func (s *Store) get(ctx context.Context, key string) (kv.Entry, bool, error) {
	e, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return kv.Entry{}, false, nil
		}
		return kv.Entry{}, false, fmt.Errorf("read %s: %w", key, err)
	}
	if e.Expired(s.now()) {
		return kv.Entry{}, false, nil
	}
	return e, true, nil
}

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// tokenExpiry reads the exp claim of a JWT without verifying it. Opaque
// tokens report false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
