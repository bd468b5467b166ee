package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neusentra-service/internal/domain/auth"
	xerrors "neusentra-service/internal/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client), mr
}

func TestSetAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	pair := auth.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}
	require.NoError(t, store.Set(ctx, "42", pair, time.Hour))

	got, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, pair, *got)
}

func TestGetMissingSession(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, xerrors.ErrInvalidSession)
}

func TestSetOverwritesPreviousPair(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "42", auth.TokenPair{AccessToken: "a1", RefreshToken: "r1"}, time.Hour))
	require.NoError(t, store.Set(ctx, "42", auth.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, time.Hour))

	got, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.AccessToken)
	assert.Equal(t, "r2", got.RefreshToken)
}

func TestDeleteRevokesSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "42", auth.TokenPair{AccessToken: "a", RefreshToken: "r"}, time.Hour))
	require.NoError(t, store.Delete(ctx, "42"))

	_, err := store.Get(ctx, "42")
	assert.ErrorIs(t, err, xerrors.ErrInvalidSession)
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.Delete(context.Background(), "never-existed"))
}

func TestTTLExpiryLooksLikeRevocation(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "42", auth.TokenPair{AccessToken: "a", RefreshToken: "r"}, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "42")
	assert.ErrorIs(t, err, xerrors.ErrInvalidSession)
}
