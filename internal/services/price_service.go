package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"superteam-earn/internal/cache"
)

const (
	DefaultCoinGeckoURL     = "https://api.coingecko.com/api/v3"
	DefaultCryptoCompareURL = "https://min-api.cryptocompare.com"
)

// coinGeckoIDs maps reward token symbols to CoinGecko coin ids
var coinGeckoIDs = map[string]string{
	"SOL":    "solana",
	"BONK":   "bonk",
	"JUP":    "jupiter-exchange-solana",
	"JTO":    "jito-governance-token",
	"PYTH":   "pyth-network",
	"WIF":    "dogwifcoin",
	"HNT":    "helium",
	"MOBILE": "helium-mobile",
	"ISC":    "international-stable-currency",
	"STAR":   "starheroes",
}

var stablecoins = map[string]bool{
	"USDC":  true,
	"USDT":  true,
	"PYUSD": true,
}

// PriceService resolves USD prices of reward tokens. CoinGecko is queried
// first with CryptoCompare as fallback; results are cached.
type PriceService struct {
	cache            cache.Cache
	client           *http.Client
	coinGeckoURL     string
	cryptoCompareURL string
	ttl              time.Duration
}

func NewPriceService(c cache.Cache, coinGeckoURL, cryptoCompareURL string, ttl time.Duration) *PriceService {
	if coinGeckoURL == "" {
		coinGeckoURL = DefaultCoinGeckoURL
	}
	if cryptoCompareURL == "" {
		cryptoCompareURL = DefaultCryptoCompareURL
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PriceService{
		cache:            c,
		client:           &http.Client{Timeout: 10 * time.Second},
		coinGeckoURL:     strings.TrimRight(coinGeckoURL, "/"),
		cryptoCompareURL: strings.TrimRight(cryptoCompareURL, "/"),
		ttl:              ttl,
	}
}

// GetPrice returns the USD price of one unit of token
func (ps *PriceService) GetPrice(ctx context.Context, token string) (decimal.Decimal, error) {
	symbol := strings.ToUpper(strings.TrimSpace(token))
	if symbol == "" {
		return decimal.Zero, ErrUnsupportedToken
	}
	if stablecoins[symbol] {
		return decimal.NewFromInt(1), nil
	}

	cacheKey := "price:" + symbol
	var cached decimal.Decimal
	if ok, err := ps.cache.Get(ctx, cacheKey, &cached); err != nil {
		zap.L().Warn("price cache read failed", zap.String("token", symbol), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	price, err := ps.fetchCoinGeckoPrice(ctx, symbol)
	if err != nil {
		zap.L().Info("CoinGecko price failed, trying CryptoCompare", zap.String("token", symbol), zap.Error(err))
		price, err = ps.fetchCryptoComparePrice(ctx, symbol)
		if err != nil {
			zap.L().Warn("token price unavailable", zap.String("token", symbol), zap.Error(err))
			return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
		}
	}

	if err := ps.cache.Set(ctx, cacheKey, price, ps.ttl); err != nil {
		zap.L().Warn("price cache write failed", zap.String("token", symbol), zap.Error(err))
	}
	return price, nil
}

// USDValue converts an amount of token into USD, rounded to cents
func (ps *PriceService) USDValue(ctx context.Context, token string, amount decimal.Decimal) (decimal.Decimal, error) {
	price, err := ps.GetPrice(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(price).Round(2), nil
}

// fetchCoinGeckoPrice queries
// GET {base}/simple/price?ids=solana&vs_currencies=usd -> {"solana":{"usd":195.83}}
func (ps *PriceService) fetchCoinGeckoPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	id, ok := coinGeckoIDs[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no CoinGecko id for %s", symbol)
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", ps.coinGeckoURL, id)
	var result map[string]map[string]decimal.Decimal
	if err := ps.getJSON(ctx, url, &result); err != nil {
		return decimal.Zero, fmt.Errorf("CoinGecko: %w", err)
	}

	price, ok := result[id]["usd"]
	if !ok || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("CoinGecko returned no USD price for %s", id)
	}
	return price, nil
}

// fetchCryptoComparePrice queries
// GET {base}/data/price?fsym=SOL&tsyms=USD -> {"USD":195.83}
func (ps *PriceService) fetchCryptoComparePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/data/price?fsym=%s&tsyms=USD", ps.cryptoCompareURL, symbol)
	var result map[string]decimal.Decimal
	if err := ps.getJSON(ctx, url, &result); err != nil {
		return decimal.Zero, fmt.Errorf("CryptoCompare: %w", err)
	}

	price, ok := result["USD"]
	if !ok || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("CryptoCompare returned no USD price for %s", symbol)
	}
	return price, nil
}

func (ps *PriceService) getJSON(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := ps.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
