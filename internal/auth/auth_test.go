package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret")
	id := uuid.New()

	token, err := GenerateToken(id, "wallet")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "wallet", claims.WalletAddress)

	InitJWT("other-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestVerifyWalletSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	wallet := base58.Encode(pub)
	msg := []byte("hello earn")
	sig := ed25519.Sign(priv, msg)

	assert.NoError(t, VerifyWalletSignature(wallet, base58.Encode(sig), msg))
	assert.NoError(t, VerifyWalletSignature(wallet, hex.EncodeToString(sig), msg))
	assert.ErrorIs(t, VerifyWalletSignature(wallet, base58.Encode(sig), []byte("other")), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyWalletSignature("short", base58.Encode(sig), msg), ErrInvalidWallet)
	assert.ErrorIs(t, VerifyWalletSignature(wallet, "zz", msg), ErrInvalidSignature)
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/me", mw, func(c *gin.Context) {
		id, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "id": id})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	InitJWT("test-secret")
	r := newRouter(AuthMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := GenerateToken(uuid.New(), "wallet")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	InitJWT("test-secret")
	r := newRouter(OptionalAuthMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}
