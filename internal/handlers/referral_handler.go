package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"superteam-earn/internal/services"
)

// ReferralHandler handles referral-related endpoints
type ReferralHandler struct {
	referralService *services.ReferralService
}

func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// GetReferralStats returns the caller's code, link and referral counts
// GET /api/referral/stats
func (h *ReferralHandler) GetReferralStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.referralService.GetReferralStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetReferrals lists users who signed up with the caller's code
// GET /api/referral/users
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	users, err := h.referralService.ReferredUsers(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": users, "count": len(users)})
}
