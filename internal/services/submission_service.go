package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"superteam-earn/internal/eligibility"
	"superteam-earn/internal/metrics"
	"superteam-earn/internal/models"
)

// Submission labels set during sponsor review
const (
	LabelUnreviewed = "Unreviewed"
	LabelRejected   = "Rejected"
	LabelSpam       = "Spam"
)

// askWinnerPosition is the only position on range and variable projects
const askWinnerPosition = "first"

// SubmissionInput is the talent-provided part of a submission
type SubmissionInput struct {
	Link      string           `json:"link"`
	Tweet     string           `json:"tweet"`
	OtherInfo string           `json:"other_info"`
	Ask       *decimal.Decimal `json:"ask"`
}

// SubmissionService handles submissions to listings and their review
type SubmissionService struct {
	db       *gorm.DB
	payments *PaymentService
}

func NewSubmissionService(db *gorm.DB, payments *PaymentService) *SubmissionService {
	return &SubmissionService{db: db, payments: payments}
}

// Create submits the user's work to a listing. It spends one credit and, on
// the user's first ever submission, credits whoever referred them.
func (s *SubmissionService) Create(ctx context.Context, userID, listingID uuid.UUID, input SubmissionInput, now time.Time) (*models.Submission, error) {
	var listing models.Listing
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_published = ? AND is_active = ? AND is_archived = ?", listingID, true, true, false).
		First(&listing).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if listing.IsWinnersAnnounced {
		return nil, ErrWinnersAnnounced
	}
	if eligibility.IsDeadlineOver(listing.Deadline, now) {
		return nil, ErrDeadlinePassed
	}
	if listing.Status != models.ListingStatusOpen {
		return nil, ErrListingNotOpen
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !eligibility.IsRegionEligible(listing.Region, user.Location) {
		return nil, ErrRegionIneligible
	}

	if strings.TrimSpace(input.Link) == "" && listing.Type != models.ListingTypeProject {
		return nil, fmt.Errorf("%w: link is required", ErrInvalidInput)
	}
	if listing.Type == models.ListingTypeProject && listing.CompensationType != models.CompensationFixed {
		if input.Ask == nil || !input.Ask.IsPositive() {
			return nil, fmt.Errorf("%w: ask is required", ErrInvalidInput)
		}
		if listing.CompensationType == models.CompensationRange &&
			(input.Ask.LessThan(listing.MinRewardAsk) || input.Ask.GreaterThan(listing.MaxRewardAsk)) {
			return nil, fmt.Errorf("%w: ask must be within the listing range", ErrInvalidInput)
		}
	}

	submission := &models.Submission{
		ListingID: listing.ID,
		UserID:    userID,
		Link:      strings.TrimSpace(input.Link),
		Tweet:     strings.TrimSpace(input.Tweet),
		OtherInfo: input.OtherInfo,
		Ask:       input.Ask,
		Status:    models.SubmissionStatusPending,
		Label:     LabelUnreviewed,
		IsActive:  true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Submission{}).
			Where("listing_id = ? AND user_id = ?", listing.ID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateSubmission
		}

		balance, err := creditBalance(tx, userID, now)
		if err != nil {
			return err
		}
		if !eligibility.CanUserSubmit(balance) {
			return ErrInsufficientCredits
		}

		var previous int64
		if err := tx.Model(&models.Submission{}).Where("user_id = ?", userID).Count(&previous).Error; err != nil {
			return err
		}

		if err := tx.Create(submission).Error; err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}

		month := eligibility.CurrentEffectiveMonth(now)
		if err := recordCredit(tx, &models.CreditLedger{
			UserID:         userID,
			Type:           models.CreditSubmission,
			Change:         -1,
			EffectiveMonth: month,
			SubmissionID:   &submission.ID,
		}); err != nil {
			return err
		}

		if previous == 0 && user.ReferredByID != nil {
			return recordCredit(tx, &models.CreditLedger{
				UserID:         *user.ReferredByID,
				Type:           models.CreditReferral,
				Change:         1,
				EffectiveMonth: month,
				SubmissionID:   &submission.ID,
				Note:           user.Username,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSubmission(string(listing.Type))
	zap.L().Info("submission created",
		zap.Stringer("submission_id", submission.ID),
		zap.String("listing", listing.Slug),
		zap.Stringer("user_id", userID))
	return submission, nil
}

// ListForListing returns all submissions of a listing to its sponsor
func (s *SubmissionService) ListForListing(ctx context.Context, userID, listingID uuid.UUID) ([]models.Submission, error) {
	var listing models.Listing
	if err := s.db.WithContext(ctx).Select("id", "sponsor_id").Where("id = ?", listingID).First(&listing).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := requireMembership(ctx, s.db, userID, listing.SponsorID); err != nil {
		return nil, err
	}

	var submissions []models.Submission
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("listing_id = ? AND is_archived = ?", listingID, false).
		Order("created_at ASC").
		Find(&submissions).Error
	return submissions, err
}

// ListMine returns the user's own submissions
func (s *SubmissionService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Submission, error) {
	var submissions []models.Submission
	err := s.db.WithContext(ctx).
		Preload("Listing").
		Where("user_id = ? AND is_archived = ?", userID, false).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, err
}

// SelectWinner assigns position to a submission. An empty position clears
// the submission's win.
func (s *SubmissionService) SelectWinner(ctx context.Context, userID, submissionID uuid.UUID, position string) (*models.Submission, error) {
	submission, listing, err := s.reviewable(ctx, userID, submissionID)
	if err != nil {
		return nil, err
	}
	if listing.IsWinnersAnnounced {
		return nil, ErrWinnersAnnounced
	}

	askBased := listing.CompensationType != "" && listing.CompensationType != models.CompensationFixed

	position = strings.ToLower(strings.TrimSpace(position))
	if position != "" {
		if askBased {
			if position != askWinnerPosition {
				return nil, ErrInvalidPosition
			}
			if submission.Ask == nil || !submission.Ask.IsPositive() {
				return nil, fmt.Errorf("%w: submission has no ask", ErrInvalidState)
			}
		} else {
			rewards, _ := eligibility.CleanRewards(listing.Rewards)
			if _, ok := rewards[position]; !ok {
				return nil, ErrInvalidPosition
			}
		}
		if submission.Status == models.SubmissionStatusRejected {
			return nil, fmt.Errorf("%w: rejected submissions cannot win", ErrInvalidState)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if position != "" {
			var holders int64
			if err := tx.Model(&models.Submission{}).
				Where("listing_id = ? AND winner_position = ? AND id <> ?", listing.ID, position, submission.ID).
				Count(&holders).Error; err != nil {
				return err
			}
			if holders > 0 {
				return ErrPositionTaken
			}
			submission.IsWinner = true
			submission.WinnerPosition = &position
			submission.Status = models.SubmissionStatusApproved
		} else {
			submission.IsWinner = false
			submission.WinnerPosition = nil
			submission.Status = models.SubmissionStatusPending
		}

		if err := tx.Model(submission).Select("is_winner", "winner_position", "status").Updates(submission).Error; err != nil {
			return err
		}

		var selected int64
		if err := tx.Model(&models.Submission{}).
			Where("listing_id = ? AND is_winner = ?", listing.ID, true).
			Count(&selected).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"total_winners_selected": selected}
		if askBased {
			rewards := models.Rewards{}
			if position != "" {
				rewards[askWinnerPosition] = *submission.Ask
			}
			updates["rewards"] = rewards
		}
		return tx.Model(&models.Listing{}).Where("id = ?", listing.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return submission, nil
}

// Reject rejects a submission. Marking it as spam also costs the submitter a
// credit.
func (s *SubmissionService) Reject(ctx context.Context, userID, submissionID uuid.UUID, spam bool, now time.Time) (*models.Submission, error) {
	submission, _, err := s.reviewable(ctx, userID, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.IsWinner {
		return nil, fmt.Errorf("%w: unselect the winner first", ErrInvalidState)
	}
	if submission.Label == LabelSpam {
		return submission, nil
	}

	label := LabelRejected
	if spam {
		label = LabelSpam
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(submission).Updates(map[string]interface{}{
			"status": models.SubmissionStatusRejected,
			"label":  label,
		}).Error; err != nil {
			return err
		}
		if !spam {
			return nil
		}
		return recordCredit(tx, &models.CreditLedger{
			UserID:         submission.UserID,
			Type:           models.CreditSpamPenalty,
			Change:         -1,
			EffectiveMonth: eligibility.CurrentEffectiveMonth(now),
			SubmissionID:   &submission.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	submission.Status = models.SubmissionStatusRejected
	submission.Label = label
	return submission, nil
}

// MarkPaid records the reward payout of an announced winner. The winner must
// hold a valid KYC verification.
func (s *SubmissionService) MarkPaid(ctx context.Context, userID, submissionID uuid.UUID, txHash string, now time.Time) (*models.Submission, error) {
	submission, listing, err := s.reviewable(ctx, userID, submissionID)
	if err != nil {
		return nil, err
	}
	if !submission.IsWinner || submission.WinnerPosition == nil || !listing.IsWinnersAnnounced {
		return nil, ErrNotWinner
	}
	if submission.IsPaid {
		return nil, ErrAlreadyPaid
	}

	var winner models.User
	if err := s.db.WithContext(ctx).Where("id = ?", submission.UserID).First(&winner).Error; err != nil {
		return nil, err
	}
	if !winner.IsKYCVerified || eligibility.IsKycExpired(eligibility.KYCStateOf(&winner), now) {
		return nil, ErrKYCRequired
	}

	amount, ok := listing.Rewards[*submission.WinnerPosition]
	if !ok {
		return nil, ErrInvalidPosition
	}

	details, err := s.payments.VerifyPayout(ctx, txHash, winner.WalletAddress, listing.Token, amount)
	if err != nil {
		return nil, err
	}

	paymentDetails := models.JSONB{
		"tx_id":   details.Signature,
		"amount":  amount.String(),
		"token":   listing.Token,
		"paid_at": now.Format(time.RFC3339),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reused int64
		if err := tx.Model(&models.Submission{}).
			Where("id <> ? AND is_paid = ? AND payment_details ->> 'tx_id' = ?", submission.ID, true, details.Signature).
			Count(&reused).Error; err != nil {
			return err
		}
		if reused > 0 {
			return ErrPaymentReused
		}

		result := tx.Model(&models.Submission{}).
			Where("id = ? AND is_paid = ?", submission.ID, false).
			Updates(map[string]interface{}{
				"is_paid":         true,
				"payment_details": paymentDetails,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyPaid
		}
		return tx.Model(&models.Listing{}).Where("id = ?", listing.ID).
			Update("total_payments_made", gorm.Expr("total_payments_made + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}

	submission.IsPaid = true
	submission.PaymentDetails = paymentDetails
	zap.L().Info("submission paid",
		zap.Stringer("submission_id", submission.ID),
		zap.String("tx", details.Signature),
		zap.String("amount", amount.String()))
	return submission, nil
}

func (s *SubmissionService) reviewable(ctx context.Context, userID, submissionID uuid.UUID) (*models.Submission, *models.Listing, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Preload("Listing").
		Where("id = ? AND is_archived = ?", submissionID, false).
		First(&submission).Error; err != nil {
		if isNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if submission.Listing == nil {
		return nil, nil, ErrNotFound
	}
	if err := requireMembership(ctx, s.db, userID, submission.Listing.SponsorID); err != nil {
		return nil, nil, err
	}
	listing := submission.Listing
	submission.Listing = nil
	return &submission, listing, nil
}
