package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/commerce"
	"github.com/utafrali/storefront/internal/session/kv"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// --- Mock Authenticator ---

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) SignIn(ctx context.Context, email, password string) (*commerce.Tokens, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Tokens), args.Error(1)
}

func (m *mockAuth) SignUp(ctx context.Context, req commerce.SignUpRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuth) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// --- helpers ---

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

var epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *mockAuth, *clock) {
	t.Helper()
	c := &clock{t: epoch}
	auth := new(mockAuth)
	store := NewStore(kv.NewMemory(c.now), auth, DefaultConfig(), logger.Discard(), WithClock(c.now))
	return store, auth, c
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

// ============================================================================
// SignIn
// ============================================================================

func TestSignIn_StoresSession(t *testing.T) {
	store, auth, _ := newTestStore(t)
	ctx := context.Background()
	auth.On("SignIn", ctx, "ana@example.com", "password1").
		Return(&commerce.Tokens{AccessToken: "opaque-access", RefreshToken: "opaque-refresh"}, nil)

	sess, err := store.SignIn(ctx, "  ana@example.com ", "password1")
	require.NoError(t, err)

	assert.Equal(t, "opaque-access", sess.AccessToken)
	assert.Equal(t, epoch.Add(24*time.Hour), sess.AccessExpiry)
	assert.Equal(t, epoch.Add(7*24*time.Hour), sess.RefreshExpiry)
	assert.Equal(t, "ana", sess.User.FirstName)

	token, err := store.CurrentAccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-access", token)

	user, err := store.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	auth.AssertExpectations(t)
}

func TestSignIn_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"email without tld", "a@b", "password1", "email"},
		{"short password", "a@b.co", "short", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, auth, _ := newTestStore(t)

			_, err := store.SignIn(context.Background(), tt.email, tt.password)
			require.Error(t, err)

			var valErr *validator.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields(), tt.field)
			auth.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSignIn_JWTExpiryShortensAccessTTL(t *testing.T) {
	store, auth, _ := newTestStore(t)
	ctx := context.Background()
	exp := epoch.Add(2 * time.Hour)
	auth.On("SignIn", ctx, "ana@example.com", "password1").
		Return(&commerce.Tokens{AccessToken: signedToken(t, exp), RefreshToken: "r"}, nil)

	sess, err := store.SignIn(ctx, "ana@example.com", "password1")
	require.NoError(t, err)
	assert.True(t, sess.AccessExpiry.Equal(exp))
}

func TestSignIn_LaterJWTExpiryIgnored(t *testing.T) {
	store, auth, _ := newTestStore(t)
	ctx := context.Background()
	auth.On("SignIn", ctx, "ana@example.com", "password1").
		Return(&commerce.Tokens{AccessToken: signedToken(t, epoch.Add(72*time.Hour)), RefreshToken: "r"}, nil)

	sess, err := store.SignIn(ctx, "ana@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(24*time.Hour), sess.AccessExpiry)
}

func TestSignIn_PastJWTExpiryKeepsConfiguredTTL(t *testing.T) {
	store, auth, _ := newTestStore(t)
	ctx := context.Background()
	token := signedToken(t, epoch.Add(-time.Minute))
	auth.On("SignIn", ctx, "ana@example.com", "password1").
		Return(&commerce.Tokens{AccessToken: token, RefreshToken: "r"}, nil)

	sess, err := store.SignIn(ctx, "ana@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(24*time.Hour), sess.AccessExpiry)

	stored, err := store.CurrentAccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestSignIn_RemoteRejected(t *testing.T) {
	store, auth, _ := newTestStore(t)
	ctx := context.Background()
	auth.On("SignIn", ctx, "ana@example.com", "password1").
		Return(nil, apperrors.RemoteRejected(400, "Email or password is incorrect"))

	_, err := store.SignIn(ctx, "ana@example.com", "password1")
	require.Error(t, err)
	assert.Equal(t, "Email or password is incorrect", apperrors.UserMessage(err))

	token, err := store.CurrentAccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

// ============================================================================
// CurrentAccessToken / expiry
// ============================================================================

func TestCurrentAccessToken_NoSession(t *testing.T) {
	store, _, _ := newTestStore(t)

	token, err := store.CurrentAccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestCurrentAccessToken_ExpiresIndependently(t *testing.T) {
	store, auth, c := newTestStore(t)
	ctx := context.Background()
	auth.On("SignIn", ctx, "ana@example.com", "password1").
		Return(&commerce.Tokens{AccessToken: "a", RefreshToken: "r"}, nil)
	_, err := store.SignIn(ctx, "ana@example.com", "password1")
	require.NoError(t, err)

	c.t = epoch.Add(25 * time.Hour)

	token, err := store.CurrentAccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	sess, err := store.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Empty(t, sess.AccessToken)
	assert.Equal(t, "r", sess.RefreshToken)
	assert.Nil(t, sess.User)
}

func TestCurrentAccessToken_BackendHoldsStaleEntry(t *testing.T) {
	c := &clock{t: epoch}
	backend := kv.NewMemory(nil) // backend clock does not advance with ours
	store := NewStore(backend, new(mockAuth), DefaultConfig(), logger.Discard(), WithClock(c.now))
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, keyAccess, kv.Entry{Value: "a", ExpiresAt: time.Now().Add(time.Hour)}))

	c.t = time.Now().Add(2 * time.Hour)

	token, err := store.CurrentAccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

// ============================================================================
// SignOut
// ============================================================================

func TestSignOut_ClearsEvenWhenRemoteFails(t *testing.T) {
	store, auth, _ := newTestStore(t)
	ctx := context.Background()
	auth.On("SignIn", ctx, "ana@example.com", "password1").
		Return(&commerce.Tokens{AccessToken: "a", RefreshToken: "r"}, nil)
	auth.On("SignOut", ctx, "a").Return(apperrors.RemoteUnreachable(errors.New("boom")))
	_, err := store.SignIn(ctx, "ana@example.com", "password1")
	require.NoError(t, err)

	require.NoError(t, store.SignOut(ctx))

	sess, err := store.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
	auth.AssertExpectations(t)
}

func TestSignOut_WithoutSessionSkipsRemote(t *testing.T) {
	store, auth, _ := newTestStore(t)

	require.NoError(t, store.SignOut(context.Background()))
	auth.AssertNotCalled(t, "SignOut", mock.Anything, mock.Anything)
}

// ============================================================================
// SignUp
// ============================================================================

func validSignUp() SignUpInput {
	return SignUpInput{
		FirstName: " Nino ",
		LastName:  "ბერიძე",
		Age:       30,
		Email:     "nino@example.ge",
		Password:  "supersecret",
		Address:   "Rustaveli Ave 12",
		Phone:     "+995555123456",
		Zipcode:   "0108",
		Gender:    "female",
	}
}

func TestSignUp_DefaultsAvatarAndTrims(t *testing.T) {
	store, auth, _ := newTestStore(t)
	ctx := context.Background()
	auth.On("SignUp", ctx, mock.MatchedBy(func(req commerce.SignUpRequest) bool {
		return req.FirstName == "Nino" && req.Avatar == DefaultAvatar && req.Gender == "FEMALE"
	})).Return(nil)

	require.NoError(t, store.SignUp(ctx, validSignUp()))
	auth.AssertExpectations(t)
}

func TestSignUp_UnlistedGenderLeftToRemote(t *testing.T) {
	store, auth, _ := newTestStore(t)
	ctx := context.Background()
	auth.On("SignUp", ctx, mock.MatchedBy(func(req commerce.SignUpRequest) bool {
		return req.Gender == "NON-BINARY"
	})).Return(nil)

	in := validSignUp()
	in.Gender = "non-binary"

	require.NoError(t, store.SignUp(ctx, in))
	auth.AssertExpectations(t)
}

func TestSignUp_InvalidFieldsNeverSent(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignUpInput)
		field  string
	}{
		{"phone", func(in *SignUpInput) { in.Phone = "555123456" }, "phone"},
		{"age", func(in *SignUpInput) { in.Age = 121 }, "age"},
		{"zipcode", func(in *SignUpInput) { in.Zipcode = "12" }, "zipcode"},
		{"avatar", func(in *SignUpInput) { in.Avatar = "ftp://x.y/z.png" }, "avatar"},
		{"name", func(in *SignUpInput) { in.FirstName = "N" }, "firstName"},
		{"gender", func(in *SignUpInput) { in.Gender = "" }, "gender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, auth, _ := newTestStore(t)
			in := validSignUp()
			tt.mutate(&in)

			err := store.SignUp(context.Background(), in)

			var valErr *validator.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields(), tt.field)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			auth.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
		})
	}
}

func TestSignUp_RemoteMessageVerbatim(t *testing.T) {
	store, auth, _ := newTestStore(t)
	ctx := context.Background()
	auth.On("SignUp", ctx, mock.Anything).Return(apperrors.RemoteRejected(409, "User already exists with this email"))

	err := store.SignUp(ctx, validSignUp())
	require.Error(t, err)
	assert.Equal(t, "User already exists with this email", apperrors.UserMessage(err))
}

func TestTokenExpiry_Opaque(t *testing.T) {
	_, ok := tokenExpiry("not-a-jwt")
	assert.False(t, ok)
}
