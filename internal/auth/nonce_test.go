package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superteam-earn/internal/cache"
)

func TestNonceIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := NewNonceStore(cache.NewMemoryCache())

	nonce, err := store.Issue(ctx, "wallet-a")
	require.NoError(t, err)
	require.NotEmpty(t, nonce)

	assert.ErrorIs(t, store.Consume(ctx, "wallet-b", nonce), ErrNonceInvalid)
	assert.ErrorIs(t, store.Consume(ctx, "wallet-a", "other"), ErrNonceInvalid)
	require.NoError(t, store.Consume(ctx, "wallet-a", nonce))
	assert.ErrorIs(t, store.Consume(ctx, "wallet-a", nonce), ErrNonceInvalid)
}

func TestNonceReissueReplacesEarlier(t *testing.T) {
	ctx := context.Background()
	store := NewNonceStore(cache.NewMemoryCache())

	first, err := store.Issue(ctx, "wallet")
	require.NoError(t, err)
	second, err := store.Issue(ctx, "wallet")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.ErrorIs(t, store.Consume(ctx, "wallet", first), ErrNonceInvalid)
	require.NoError(t, store.Consume(ctx, "wallet", second))
}

func TestNonceExpires(t *testing.T) {
	ctx := context.Background()
	store := &NonceStore{cache: cache.NewMemoryCache(), ttl: time.Millisecond}

	nonce, err := store.Issue(ctx, "wallet")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	assert.ErrorIs(t, store.Consume(ctx, "wallet", nonce), ErrNonceInvalid)
}

func TestLoginMessageCarriesNonce(t *testing.T) {
	assert.Equal(t, "Sign in\n\nNonce: abc", LoginMessage("Sign in", "abc"))
}
