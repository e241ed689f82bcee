package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"superteam-earn/internal/auth"
	"superteam-earn/internal/blockchain"
	"superteam-earn/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  *services.AuthService
	nonces       *auth.NonceStore
	loginMessage string
}

// NewAuthHandler creates a new AuthHandler. loginMessage is the text wallets
// sign, followed by a single-use nonce.
func NewAuthHandler(authService *services.AuthService, nonces *auth.NonceStore, loginMessage string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		nonces:       nonces,
		loginMessage: loginMessage,
	}
}

// Nonce issues the message a wallet must sign to log in
// GET /auth/nonce?wallet=
func (h *AuthHandler) Nonce(c *gin.Context) {
	wallet := c.Query("wallet")
	if !blockchain.ValidateWalletAddress(wallet) {
		badRequest(c, auth.ErrInvalidWallet.Error())
		return
	}

	nonce, err := h.nonces.Issue(c.Request.Context(), wallet)
	if err != nil {
		zap.L().Error("failed to issue login nonce", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":      nonce,
		"message":    auth.LoginMessage(h.loginMessage, nonce),
		"expires_in": int(auth.NonceTTL.Seconds()),
	})
}

// WalletLogin authenticates a user by Solana wallet address and a signature
// over the nonce message, registering the account on first login.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		Nonce         string `json:"nonce" binding:"required"`
		ReferralCode  string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	message := auth.LoginMessage(h.loginMessage, req.Nonce)
	if err := auth.VerifyWalletSignature(req.WalletAddress, req.Signature, []byte(message)); err != nil {
		if errors.Is(err, auth.ErrInvalidWallet) {
			badRequest(c, err.Error())
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_signature", "message": err.Error()})
		return
	}

	if err := h.nonces.Consume(c.Request.Context(), req.WalletAddress, req.Nonce); err != nil {
		if errors.Is(err, auth.ErrNonceInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_nonce", "message": err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	user, created, err := h.authService.ProcessWalletLogin(c.Request.Context(), req.WalletAddress, req.ReferralCode)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.WalletAddress)
	if err != nil {
		zap.L().Error("failed to generate token", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user":    user,
		"created": created,
	})
}

// Logout is a no-op for stateless JWTs; clients drop the token.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// GetMe returns the authenticated user
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
