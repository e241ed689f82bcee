package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superteam-earn/internal/cache"
)

func TestGetPriceUsesCoinGeckoAndCaches(t *testing.T) {
	var calls int32
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`{"solana":{"usd":150.25}}`))
	}))
	defer gecko.Close()

	ps := NewPriceService(cache.NewMemoryCache(), gecko.URL, "http://127.0.0.1:0", time.Minute)
	ctx := context.Background()

	price, err := ps.GetPrice(ctx, "sol")
	require.NoError(t, err)
	assert.Equal(t, "150.25", price.String())

	_, err = ps.GetPrice(ctx, "SOL")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	usd, err := ps.USDValue(ctx, "SOL", decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.Equal(t, "300.5", usd.String())
}

func TestGetPriceFallsBackToCryptoCompare(t *testing.T) {
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer gecko.Close()
	compare := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "JUP", r.URL.Query().Get("fsym"))
		_, _ = w.Write([]byte(`{"USD":0.85}`))
	}))
	defer compare.Close()

	ps := NewPriceService(cache.NewMemoryCache(), gecko.URL, compare.URL, time.Minute)
	price, err := ps.GetPrice(context.Background(), "JUP")
	require.NoError(t, err)
	assert.Equal(t, "0.85", price.String())
}

func TestGetPriceUnavailable(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	ps := NewPriceService(cache.NewMemoryCache(), down.URL, down.URL, time.Minute)
	_, err := ps.GetPrice(context.Background(), "BONK")
	assert.ErrorIs(t, err, ErrPriceUnavailable)

	stable, err := ps.GetPrice(context.Background(), "USDC")
	require.NoError(t, err)
	assert.True(t, stable.Equal(decimal.NewFromInt(1)))
}
