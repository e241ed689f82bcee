package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"superteam-earn/internal/models"
	"superteam-earn/internal/services"
)

// SponsorHandler serves sponsor accounts and their teams
type SponsorHandler struct {
	sponsorService *services.SponsorService
	paymentService *services.PaymentService
}

func NewSponsorHandler(sponsorService *services.SponsorService, paymentService *services.PaymentService) *SponsorHandler {
	return &SponsorHandler{
		sponsorService: sponsorService,
		paymentService: paymentService,
	}
}

// Create registers a sponsor with the caller as its admin
// POST /api/sponsors
func (h *SponsorHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.SponsorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	sponsor, err := h.sponsorService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sponsor)
}

// GetBySlug returns a sponsor with its public stats
// GET /api/sponsors/:slug
func (h *SponsorHandler) GetBySlug(c *gin.Context) {
	sponsor, err := h.sponsorService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.sponsorService.Stats(c.Request.Context(), sponsor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sponsor": sponsor, "stats": stats})
}

// Members lists the team of a sponsor
// GET /api/sponsor/teams/:id/members
func (h *SponsorHandler) Members(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sponsorID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	members, err := h.sponsorService.Members(c.Request.Context(), userID, sponsorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMember adds an existing user to the team
// POST /api/sponsor/teams/:id/members
func (h *SponsorHandler) AddMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sponsorID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Username string             `json:"username" binding:"required"`
		Role     models.SponsorRole `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Role == "" {
		req.Role = models.SponsorRoleMember
	}

	member, err := h.sponsorService.AddMember(c.Request.Context(), userID, sponsorID, req.Username, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// Switch changes the sponsor the caller acts for
// POST /api/sponsor/teams/:id/switch
func (h *SponsorHandler) Switch(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sponsorID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.sponsorService.SwitchSponsor(c.Request.Context(), userID, sponsorID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_sponsor_id": sponsorID})
}

// WalletBalance returns SOL and USDC balances of a payout wallet
// GET /api/sponsor/wallet-balance?wallet=
func (h *SponsorHandler) WalletBalance(c *gin.Context) {
	wallet := c.Query("wallet")
	if wallet == "" {
		badRequest(c, "wallet is required")
		return
	}

	balance, err := h.paymentService.Balance(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}
