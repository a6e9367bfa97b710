package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func newFile(t *testing.T, clock *fakeClock) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	return NewFile(path, "default", clock.now), path
}

func TestFile_SurvivesReopen(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f, path := newFile(t, clock)
	ctx := context.Background()

	entry := Entry{Value: "tok", ExpiresAt: clock.t.Add(time.Hour)}
	require.NoError(t, f.Set(ctx, "access", entry))

	reopened := NewFile(path, "default", clock.now)
	got, err := reopened.Get(ctx, "access")
	require.NoError(t, err)
	assert.Equal(t, entry.Value, got.Value)
	assert.True(t, entry.ExpiresAt.Equal(got.ExpiresAt))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFile_MissingFileIsEmpty(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	f, _ := newFile(t, clock)

	_, err := f.Get(context.Background(), "access")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, f.Ping(context.Background()))
	assert.NoError(t, f.Delete(context.Background(), "access"))
}

func TestFile_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f, _ := newFile(t, clock)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, "access", Entry{Value: "tok", ExpiresAt: clock.t.Add(time.Minute)}))
	clock.advance(time.Minute)

	_, err := f.Get(ctx, "access")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestFile_DeleteAll(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f, _ := newFile(t, clock)
	ctx := context.Background()
	exp := clock.t.Add(time.Hour)

	for _, k := range []string{"access_token", "refresh_token", "user"} {
		require.NoError(t, f.Set(ctx, k, Entry{Value: k, ExpiresAt: exp}))
	}
	require.NoError(t, f.Delete(ctx, "access_token", "refresh_token", "user"))

	for _, k := range []string{"access_token", "refresh_token", "user"} {
		_, err := f.Get(ctx, k)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound), k)
	}
}

func TestFile_NamespacesAreIsolated(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	a, path := newFile(t, clock)
	b := NewFile(path, "work", clock.now)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "access", Entry{Value: "a", ExpiresAt: clock.t.Add(time.Hour)}))
	_, err := b.Get(ctx, "access")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	require.NoError(t, b.Set(ctx, "access", Entry{Value: "b", ExpiresAt: clock.t.Add(time.Hour)}))
	got, err := a.Get(ctx, "access")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Value)
}

func TestFile_CorruptFile(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	f, path := newFile(t, clock)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{not: [yaml"), 0o600))

	assert.Error(t, f.Ping(context.Background()))
}
