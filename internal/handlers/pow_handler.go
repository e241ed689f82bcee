package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"superteam-earn/internal/services"
)

// PoWHandler serves the caller's proof-of-work entries
type PoWHandler struct {
	powService *services.PoWService
}

func NewPoWHandler(powService *services.PoWService) *PoWHandler {
	return &PoWHandler{powService: powService}
}

// ListMine returns the caller's proof of work
// GET /api/pow/mine
func (h *PoWHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entries, err := h.powService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pow": entries})
}

// Create adds a proof-of-work entry
// POST /api/pow
func (h *PoWHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.PoWInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entry, err := h.powService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Delete removes one of the caller's entries
// DELETE /api/pow/:id
func (h *PoWHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.powService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
