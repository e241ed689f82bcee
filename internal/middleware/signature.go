package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CronSignatureHeader = "X-Cron-Signature"
	SumsubDigestHeader  = "X-Payload-Digest"
)

// Sign returns hex(HMAC-SHA256(secret, body))
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature rejects requests whose header does not carry the HMAC of
// the raw body. The body is restored for the downstream handler.
func VerifySignature(header, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := strings.TrimSpace(c.GetHeader(header))
		if provided == "" || secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing signature",
			})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "bad_request",
				"message": "Failed to read request body",
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		expected := Sign(secret, body)
		if !hmac.Equal([]byte(strings.ToLower(provided)), []byte(expected)) {
			zap.L().Warn("signature mismatch", zap.String("path", c.FullPath()), zap.String("header", header))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid signature",
			})
			return
		}

		c.Next()
	}
}
