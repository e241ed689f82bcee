package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"superteam-earn/internal/services"
)

// KYCHandler receives SumSub verification webhooks
type KYCHandler struct {
	kycService *services.KYCService
}

func NewKYCHandler(kycService *services.KYCService) *KYCHandler {
	return &KYCHandler{kycService: kycService}
}

// SumsubWebhook applies an applicant review result. The route must sit
// behind the payload digest check.
// POST /api/webhooks/sumsub
func (h *KYCHandler) SumsubWebhook(c *gin.Context) {
	var payload services.SumsubWebhook
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}

	zap.L().Info("sumsub webhook",
		zap.String("type", payload.Type),
		zap.String("applicant_id", payload.ApplicantID),
		zap.String("answer", payload.ReviewResult.ReviewAnswer))

	if err := h.kycService.ApplyReview(c.Request.Context(), payload, time.Now().UTC()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
