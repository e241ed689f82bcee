package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"superteam-earn/internal/auth"
	"superteam-earn/internal/models"
	"superteam-earn/internal/repository"
	"superteam-earn/internal/services"
)

// ListingHandler serves the public feed and sponsor listing management
type ListingHandler struct {
	listingService *services.ListingService
}

func NewListingHandler(listingService *services.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// GetFeed returns published listings, featured and ongoing first.
// GET /api/listings?type=&region=&status=&skill=&limit=&offset=
func (h *ListingHandler) GetFeed(c *gin.Context) {
	filter := repository.ListingFilter{
		Type:   models.ListingType(c.Query("type")),
		Region: c.Query("region"),
		Status: models.ListingStatus(c.Query("status")),
		Skill:  c.Query("skill"),
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}

	listings, err := h.listingService.Feed(c.Request.Context(), filter, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "count": len(listings)})
}

// GetBySlug returns one listing. Drafts are only visible to sponsor members.
// GET /api/listings/:slug
func (h *ListingHandler) GetBySlug(c *gin.Context) {
	var viewer *uuid.UUID
	if id, ok := auth.GetUserID(c); ok {
		viewer = &id
	}

	listing, err := h.listingService.GetBySlug(c.Request.Context(), c.Param("slug"), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// FeaturedAvailability reports how many featured slots are in use
// GET /api/featured/availability
func (h *ListingHandler) FeaturedAvailability(c *gin.Context) {
	slots, err := h.listingService.FeaturedAvailability(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// ListMine returns every listing of the caller's current sponsor
// GET /api/sponsor/listings
func (h *ListingHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	listings, err := h.listingService.ListForSponsor(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// Create stores a draft listing for the caller's current sponsor
// POST /api/sponsor/listings
func (h *ListingHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	listing, err := h.listingService.CreateDraft(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// Update replaces the editable fields of a listing
// PUT /api/sponsor/listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	listing, err := h.listingService.Update(c.Request.Context(), userID, listingID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Publish makes a draft visible in the feed
// POST /api/sponsor/listings/:id/publish
func (h *ListingHandler) Publish(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	listing, err := h.listingService.Publish(c.Request.Context(), userID, listingID, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Delete removes an unpublished draft
// DELETE /api/sponsor/listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.listingService.Delete(c.Request.Context(), userID, listingID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AnnounceWinners closes the listing and notifies winners
// POST /api/sponsor/listings/:id/announce
func (h *ListingHandler) AnnounceWinners(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	listing, err := h.listingService.AnnounceWinners(c.Request.Context(), userID, listingID, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}
