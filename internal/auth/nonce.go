package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"superteam-earn/internal/cache"
)

// NonceTTL is how long an issued login nonce stays valid
const NonceTTL = 5 * time.Minute

var ErrNonceInvalid = errors.New("login nonce missing, expired or already used")

// NonceStore issues single-use login nonces, one outstanding per wallet
type NonceStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewNonceStore(c cache.Cache) *NonceStore {
	return &NonceStore{cache: c, ttl: NonceTTL}
}

func nonceKey(wallet string) string {
	return "auth:nonce:" + wallet
}

// Issue creates a nonce for wallet, replacing any earlier one
func (n *NonceStore) Issue(ctx context.Context, wallet string) (string, error) {
	nonce := uuid.NewString()
	if err := n.cache.Set(ctx, nonceKey(wallet), nonce, n.ttl); err != nil {
		return "", err
	}
	return nonce, nil
}

// Consume checks nonce against the one issued to wallet and discards it
func (n *NonceStore) Consume(ctx context.Context, wallet, nonce string) error {
	var issued string
	found, err := n.cache.Get(ctx, nonceKey(wallet), &issued)
	if err != nil {
		return err
	}
	if !found || nonce == "" || issued != nonce {
		return ErrNonceInvalid
	}
	return n.cache.Delete(ctx, nonceKey(wallet))
}

// LoginMessage is the text a wallet signs to log in with nonce
func LoginMessage(base, nonce string) string {
	return base + "\n\nNonce: " + nonce
}
