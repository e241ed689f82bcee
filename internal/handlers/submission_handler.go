package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"superteam-earn/internal/services"
)

// SubmissionHandler serves talent submissions and sponsor review
type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// Create submits work to a listing, spending one credit
// POST /api/submissions
func (h *SubmissionHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		ListingID uuid.UUID        `json:"listing_id" binding:"required"`
		Link      string           `json:"link"`
		Tweet     string           `json:"tweet"`
		OtherInfo string           `json:"other_info"`
		Ask       *decimal.Decimal `json:"ask"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	submission, err := h.submissionService.Create(c.Request.Context(), userID, req.ListingID, services.SubmissionInput{
		Link:      req.Link,
		Tweet:     req.Tweet,
		OtherInfo: req.OtherInfo,
		Ask:       req.Ask,
	}, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

// ListMine returns the caller's submissions
// GET /api/submissions/mine
func (h *SubmissionHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	submissions, err := h.submissionService.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// ListForListing returns all submissions of a listing for its sponsor
// GET /api/sponsor/listings/:id/submissions
func (h *SubmissionHandler) ListForListing(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	submissions, err := h.submissionService.ListForListing(c.Request.Context(), userID, listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// SelectWinner assigns a reward position. An empty position unselects.
// POST /api/sponsor/submissions/:id/winner
func (h *SubmissionHandler) SelectWinner(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	submissionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Position string `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	submission, err := h.submissionService.SelectWinner(c.Request.Context(), userID, submissionID, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// Reject marks a submission rejected, or spam with a credit penalty
// POST /api/sponsor/submissions/:id/reject
func (h *SubmissionHandler) Reject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	submissionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Spam bool `json:"spam"`
	}
	// body is optional
	_ = c.ShouldBindJSON(&req)

	submission, err := h.submissionService.Reject(c.Request.Context(), userID, submissionID, req.Spam, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// MarkPaid records the payout transaction for a winning submission
// POST /api/sponsor/submissions/:id/paid
func (h *SubmissionHandler) MarkPaid(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	submissionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		TxHash string `json:"tx_hash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	submission, err := h.submissionService.MarkPaid(c.Request.Context(), userID, submissionID, req.TxHash, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}
