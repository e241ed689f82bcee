package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"superteam-earn/internal/services"
)

// GrantHandler serves grants and grant applications
type GrantHandler struct {
	grantService *services.GrantService
}

func NewGrantHandler(grantService *services.GrantService) *GrantHandler {
	return &GrantHandler{grantService: grantService}
}

// List returns published grants, optionally limited to a region
// GET /api/grants?region=
func (h *GrantHandler) List(c *gin.Context) {
	grants, err := h.grantService.ListPublished(c.Request.Context(), c.Query("region"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

// GetBySlug returns one published grant
// GET /api/grants/:slug
func (h *GrantHandler) GetBySlug(c *gin.Context) {
	grant, err := h.grantService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

// Apply files an application to a grant
// POST /api/grant-applications
func (h *GrantHandler) Apply(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		GrantID uuid.UUID `json:"grant_id" binding:"required"`
		services.GrantApplicationInput
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	application, err := h.grantService.Apply(c.Request.Context(), userID, req.GrantID, req.GrantApplicationInput)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, application)
}

// MyApplications lists the caller's grant applications
// GET /api/grant-applications/mine
func (h *GrantHandler) MyApplications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	applications, err := h.grantService.MyApplications(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

// Create publishes a grant for the caller's current sponsor
// POST /api/sponsor/grants
func (h *GrantHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.GrantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	grant, err := h.grantService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, grant)
}

// Applications lists applications to a grant for its sponsor
// GET /api/sponsor/grants/:id/applications
func (h *GrantHandler) Applications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	grantID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	applications, err := h.grantService.Applications(c.Request.Context(), userID, grantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

// Review approves or rejects a pending application
// POST /api/sponsor/grant-applications/:id/review
func (h *GrantHandler) Review(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	applicationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Approve bool            `json:"approve"`
		Amount  decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	application, err := h.grantService.Review(c.Request.Context(), userID, applicationID, req.Approve, req.Amount, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, application)
}
