package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return clock }

	require.NoError(t, c.Set(ctx, "price:SOL", 142.5, time.Minute))

	var got float64
	ok, err := c.Get(ctx, "price:SOL", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 142.5, got)

	clock = clock.Add(2 * time.Minute)
	ok, err = c.Get(ctx, "price:SOL", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Delete(ctx, "k"))
	var s string
	ok, _ = c.Get(ctx, "k", &s)
	assert.False(t, ok)
}
