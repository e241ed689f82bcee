package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"superteam-earn/internal/models"
	"superteam-earn/internal/services"
)

const ctxAdminID = "admin_id"

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// AdminMiddleware lets only god users through. It must run after AuthMiddleware.
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			c.Abort()
			return
		}

		if !h.adminService.IsGod(c.Request.Context(), userID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Not an admin"})
			return
		}

		c.Set(ctxAdminID, userID)
		c.Next()
	}
}

func adminID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxAdminID)
	adminID, _ := id.(uuid.UUID)
	return adminID
}

// GetUsers returns users with optional search
// GET /api/admin/users?search=&limit=&offset=
func (h *AdminHandler) GetUsers(c *gin.Context) {
	users, total, err := h.adminService.GetAllUsers(c.Request.Context(),
		queryInt(c, "limit", 50), queryInt(c, "offset", 0), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

// GetStats returns platform totals. days bounds the new-user window.
// GET /api/admin/stats?days=
func (h *AdminHandler) GetStats(c *gin.Context) {
	days := queryInt(c, "days", 30)
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	stats, err := h.adminService.GetPlatformStats(c.Request.Context(), since)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetLogs returns the admin audit log
// GET /api/admin/logs?limit=&offset=
func (h *AdminHandler) GetLogs(c *gin.Context) {
	logs, err := h.adminService.GetAdminLogs(c.Request.Context(), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// AdjustCredits adds or removes credits for a user
// POST /api/admin/users/:id/credits
func (h *AdminHandler) AdjustCredits(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Change int    `json:"change" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entry, err := h.adminService.AdjustCredits(c.Request.Context(), adminID(c), userID, req.Change, req.Reason, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// SetRole changes the role of a user
// POST /api/admin/users/:id/role
func (h *AdminHandler) SetRole(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Role models.UserRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.adminService.SetRole(c.Request.Context(), adminID(c), userID, req.Role); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": req.Role})
}

// VerifySponsor toggles the verified badge
// POST /api/admin/sponsors/:id/verify
func (h *AdminHandler) VerifySponsor(c *gin.Context) {
	sponsorID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Verified bool `json:"verified"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.adminService.VerifySponsor(c.Request.Context(), adminID(c), sponsorID, req.Verified); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sponsor_id": sponsorID, "verified": req.Verified})
}

// SetFeatured features or unfeatures a listing
// POST /api/admin/listings/:id/featured
func (h *AdminHandler) SetFeatured(c *gin.Context) {
	listingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Featured bool `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	listing, err := h.adminService.SetFeatured(c.Request.Context(), adminID(c), listingID, req.Featured, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}
