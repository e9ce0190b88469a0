package signing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/appforge/internal/domain/project"
	"github.com/rpggio/appforge/internal/signing"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	keys  map[string]*project.SigningKey
	err   error
	calls int
}

func (s *countingSource) GetSigning(_ context.Context, tenantID, projectID string) (*project.SigningKey, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.keys[tenantID+"/"+projectID], nil
}

func releaseKey() *project.SigningKey {
	return &project.SigningKey{
		KeystorePath:  "/keys/p1.jks",
		StorePassword: "store",
		KeyAlias:      "release",
		KeyPassword:   "key",
	}
}

func TestCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{keys: map[string]*project.SigningKey{"t1/p1": releaseKey()}}
	cache := signing.NewCache(source)

	got, err := cache.Get(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, "release", got.KeyAlias)
	require.Equal(t, 1, source.calls)

	// Second read is served from the cache.
	got, err = cache.Get(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, "release", got.KeyAlias)
	require.Equal(t, 1, source.calls)
}

func TestCache_AbsentCredentialNotCached(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{keys: map[string]*project.SigningKey{}}
	cache := signing.NewCache(source)

	got, err := cache.Get(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, 1, source.calls)

	// A keystore uploaded after the miss is picked up immediately.
	source.keys["t1/p1"] = releaseKey()
	got, err = cache.Get(ctx, "t1", "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 2, source.calls)
}

func TestCache_Evict(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{keys: map[string]*project.SigningKey{"t1/p1": releaseKey()}}
	cache := signing.NewCache(source)

	_, err := cache.Get(ctx, "t1", "p1")
	require.NoError(t, err)

	rotated := releaseKey()
	rotated.KeyAlias = "release-2026"
	source.keys["t1/p1"] = rotated
	cache.Evict("t1", "p1")

	got, err := cache.Get(ctx, "t1", "p1")
	require.NoError(t, err)
	require.Equal(t, "release-2026", got.KeyAlias)
	require.Equal(t, 2, source.calls)
}

func TestCache_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{keys: map[string]*project.SigningKey{"t1/p1": releaseKey()}}
	cache := signing.NewCache(source)

	got, err := cache.Get(ctx, "t1", "p1")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Same project ID under another tenant resolves independently.
	got, err = cache.Get(ctx, "t2", "p1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCache_SourceError(t *testing.T) {
	source := &countingSource{err: errors.New("db down")}
	cache := signing.NewCache(source)

	_, err := cache.Get(context.Background(), "t1", "p1")
	require.Error(t, err)
}
