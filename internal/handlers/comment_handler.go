package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"superteam-earn/internal/models"
	"superteam-earn/internal/services"
)

// CommentHandler serves discussion threads
type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// List returns the comments of a thread
// GET /api/comments?ref_type=&ref_id=&limit=&offset=
func (h *CommentHandler) List(c *gin.Context) {
	refID, err := uuid.Parse(c.Query("ref_id"))
	if err != nil {
		badRequest(c, "invalid ref_id")
		return
	}

	comments, total, err := h.commentService.List(c.Request.Context(),
		models.CommentRefType(c.Query("ref_type")), refID,
		queryInt(c, "limit", 30), queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "total": total})
}

// Create posts a comment or a reply
// POST /api/comments
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Delete archives the caller's comment
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), userID, commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
