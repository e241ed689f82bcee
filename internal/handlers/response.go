package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"superteam-earn/internal/auth"
	"superteam-earn/internal/jobs"
	"superteam-earn/internal/services"
	"superteam-earn/internal/utils"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrForbidden, http.StatusForbidden, "forbidden"},
	{services.ErrSponsorRequired, http.StatusForbidden, "sponsor_required"},
	{services.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{services.ErrInvalidPosition, http.StatusBadRequest, "invalid_position"},
	{services.ErrUnsupportedToken, http.StatusBadRequest, "unsupported_token"},
	{services.ErrUsernameTaken, http.StatusConflict, "username_taken"},
	{services.ErrSponsorExists, http.StatusConflict, "sponsor_exists"},
	{services.ErrAlreadyMember, http.StatusConflict, "already_member"},
	{services.ErrDuplicateSubmission, http.StatusConflict, "duplicate_submission"},
	{services.ErrPositionTaken, http.StatusConflict, "position_taken"},
	{services.ErrAlreadyPaid, http.StatusConflict, "already_paid"},
	{services.ErrPaymentReused, http.StatusConflict, "payment_reused"},
	{services.ErrAlreadyApplied, http.StatusConflict, "already_applied"},
	{services.ErrListingPublished, http.StatusConflict, "listing_published"},
	{services.ErrListingNotOpen, http.StatusConflict, "listing_not_open"},
	{services.ErrDeadlinePassed, http.StatusConflict, "deadline_passed"},
	{services.ErrWinnersAnnounced, http.StatusConflict, "winners_announced"},
	{services.ErrIncompleteWinners, http.StatusConflict, "incomplete_winners"},
	{services.ErrNotWinner, http.StatusConflict, "not_winner"},
	{services.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{services.ErrRegionIneligible, http.StatusForbidden, "region_ineligible"},
	{services.ErrInsufficientCredits, http.StatusForbidden, "insufficient_credits"},
	{services.ErrKYCRequired, http.StatusForbidden, "kyc_required"},
	{services.ErrPriceUnavailable, http.StatusServiceUnavailable, "price_unavailable"},
	{jobs.ErrUnknownJob, http.StatusNotFound, "unknown_job"},
	{utils.ErrUsernameExhausted, http.StatusServiceUnavailable, "username_unavailable"},
}

// respondError maps a service error to its HTTP status. Unknown errors are
// logged and reported as 500 without details.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.code, "message": err.Error()})
			return
		}
	}

	zap.L().Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "internal server error"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": message})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "authentication required"})
}

// currentUser returns the authenticated user id or writes a 401
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		unauthorized(c)
		return uuid.Nil, false
	}
	return userID, true
}

// uuidParam parses a path parameter or writes a 400
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
