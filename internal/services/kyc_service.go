package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"superteam-earn/internal/eligibility"
	"superteam-earn/internal/models"
)

const (
	SumsubApplicantReviewed = "applicantReviewed"
	SumsubAnswerGreen       = "GREEN"
	SumsubAnswerRed         = "RED"
)

// SumsubWebhook is the subset of a SumSub webhook payload the service reads
type SumsubWebhook struct {
	ApplicantID    string `json:"applicantId"`
	ExternalUserID string `json:"externalUserId"`
	Type           string `json:"type"`
	ReviewStatus   string `json:"reviewStatus"`
	ReviewResult   struct {
		ReviewAnswer     string   `json:"reviewAnswer"`
		RejectLabels     []string `json:"rejectLabels"`
		ReviewRejectType string   `json:"reviewRejectType"`
	} `json:"reviewResult"`
}

// KYCService applies identity verification results
type KYCService struct {
	db *gorm.DB
}

func NewKYCService(db *gorm.DB) *KYCService {
	return &KYCService{db: db}
}

// ApplyReview records a reviewed applicant. GREEN verifies the user for six
// months from now, RED clears the verification. Other events are ignored.
func (s *KYCService) ApplyReview(ctx context.Context, payload SumsubWebhook, now time.Time) error {
	if payload.Type != SumsubApplicantReviewed {
		zap.L().Debug("ignoring sumsub event", zap.String("type", payload.Type))
		return nil
	}

	userID, err := uuid.Parse(payload.ExternalUserID)
	if err != nil {
		return fmt.Errorf("%w: external user id is not a user id", ErrInvalidInput)
	}

	var updates map[string]interface{}
	switch payload.ReviewResult.ReviewAnswer {
	case SumsubAnswerGreen:
		expires := now.AddDate(0, eligibility.KYCValidityMonths, 0)
		updates = map[string]interface{}{
			"is_kyc_verified": true,
			"kyc_verified_at": now,
			"kyc_expires_at":  expires,
		}
	case SumsubAnswerRed:
		updates = map[string]interface{}{
			"is_kyc_verified": false,
		}
	default:
		return fmt.Errorf("%w: unknown review answer %q", ErrInvalidInput, payload.ReviewResult.ReviewAnswer)
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to apply KYC review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	zap.L().Info("KYC review applied",
		zap.Stringer("user_id", userID),
		zap.String("answer", payload.ReviewResult.ReviewAnswer),
		zap.Strings("reject_labels", payload.ReviewResult.RejectLabels))
	return nil
}

// ExpireStale clears the verification flag of users whose KYC has expired
func (s *KYCService) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, -eligibility.KYCValidityMonths, 0)
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("is_kyc_verified = ?", true).
		Where(
			s.db.Where("kyc_expires_at IS NOT NULL AND kyc_expires_at < ?", now).
				Or("kyc_expires_at IS NULL AND (kyc_verified_at IS NULL OR kyc_verified_at < ?)", cutoff),
		).
		Update("is_kyc_verified", false)
	if result.Error != nil {
		return 0, fmt.Errorf("KYC expiry sweep failed: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		zap.L().Info("expired KYC verifications cleared", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
