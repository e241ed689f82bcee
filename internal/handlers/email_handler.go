package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"superteam-earn/internal/services"
)

// EmailHandler serves the public unsubscribe endpoint
type EmailHandler struct {
	emailService *services.EmailService
}

func NewEmailHandler(emailService *services.EmailService) *EmailHandler {
	return &EmailHandler{emailService: emailService}
}

// Unsubscribe blocks all further mail to an address
// POST /api/email/unsubscribe
func (h *EmailHandler) Unsubscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.emailService.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unsubscribed": true})
}
