package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"superteam-earn/internal/services"
)

// CreditHandler exposes the submission credit balance
type CreditHandler struct {
	creditService *services.CreditService
}

func NewCreditHandler(creditService *services.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// GetBalance returns the credits left this month
// GET /api/credits
func (h *CreditHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	balance, err := h.creditService.Balance(c.Request.Context(), userID, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance": balance,
		"monthly": h.creditService.MonthlyCredits(),
	})
}

// GetHistory returns the caller's ledger entries, newest first
// GET /api/credits/history?limit=
func (h *CreditHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entries, err := h.creditService.History(c.Request.Context(), userID, queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
