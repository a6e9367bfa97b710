package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/commerce/commercetest"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/logger"
)

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		Environment:      "test",
		StoreAPIURL:      apiURL,
		HTTPTimeout:      5 * time.Second,
		BreakerTimeout:   time.Second,
		BreakerMinReqs:   5,
		SessionBackend:   config.BackendMemory,
		SessionNamespace: "storefront:session:test",
		AccessTTL:        time.Hour,
		RefreshTTL:       24 * time.Hour,
		OTelSampleRate:   1,
	}
}

func TestApp_SignInAndAdd(t *testing.T) {
	srv := commercetest.New(t)
	srv.AddUser("ana@example.com", "password1")
	srv.AddProduct(domain.Product{ID: "p1", Title: "Phone", Stock: 5, Price: domain.Price{Current: 100}})

	a, err := New(context.Background(), testConfig(srv.URL), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	ctx := context.Background()

	_, err = a.Session.SignIn(ctx, "ana@example.com", "password1")
	require.NoError(t, err)

	res, err := a.Cart.Add(ctx, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Badge)

	badge, err := a.Cart.Badge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, badge)
	assert.Equal(t, "closed", a.Breaker().State)
	assert.Equal(t, "commerce-api", a.Breaker().Name)
}

func TestApp_FileBackendKeepsSessionAcrossInstances(t *testing.T) {
	srv := commercetest.New(t)
	srv.AddUser("ana@example.com", "password1")

	cfg := testConfig(srv.URL)
	cfg.SessionBackend = config.BackendFile
	cfg.SessionFile = filepath.Join(t.TempDir(), "session.yaml")
	ctx := context.Background()

	first, err := New(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	_, err = first.Session.SignIn(ctx, "ana@example.com", "password1")
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second, err := New(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close(ctx) })

	u, err := second.Session.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ana@example.com", u.Email)
}

func TestApp_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := commercetest.New(t)

	cfg := testConfig(srv.URL)
	cfg.SessionBackend = config.BackendRedis
	cfg.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	report := a.Health.Run(context.Background())
	assert.Equal(t, health.StatusUp, report.Status)
	names := []string{}
	for _, c := range report.Checks {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"commerce-api", "session-redis"}, names)
}

func TestApp_RedisUnreachable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.SessionBackend = config.BackendRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestApp_HealthReportsUnreachableAPI(t *testing.T) {
	a, err := New(context.Background(), testConfig("http://127.0.0.1:1"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	report := a.Health.Run(context.Background())
	assert.Equal(t, health.StatusDown, report.Status)
}
