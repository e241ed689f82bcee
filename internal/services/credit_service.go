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

const allocationBatchSize = 500

// CreditService manages the monthly submission credit ledger
type CreditService struct {
	db             *gorm.DB
	monthlyCredits int
}

// NewCreditService creates a new CreditService granting monthlyCredits per user per month
func NewCreditService(db *gorm.DB, monthlyCredits int) *CreditService {
	return &CreditService{db: db, monthlyCredits: monthlyCredits}
}

// MonthlyCredits returns the per-month allowance
func (s *CreditService) MonthlyCredits() int {
	return s.monthlyCredits
}

// Balance returns the user's credit balance for the month containing now
func (s *CreditService) Balance(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	return creditBalance(s.db.WithContext(ctx), userID, now)
}

func creditBalance(tx *gorm.DB, userID uuid.UUID, now time.Time) (int, error) {
	var entries []models.CreditLedger
	err := tx.
		Where("user_id = ? AND effective_month = ?", userID, eligibility.CurrentEffectiveMonth(now)).
		Find(&entries).Error
	if err != nil {
		return 0, err
	}
	return eligibility.CreditAggregate(entries), nil
}

// History returns the most recent ledger entries of a user
func (s *CreditService) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditLedger, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.CreditLedger
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// GrantInitial gives a freshly created user this month's allowance inside tx
func (s *CreditService) GrantInitial(tx *gorm.DB, userID uuid.UUID, now time.Time) error {
	return recordCredit(tx, &models.CreditLedger{
		UserID:         userID,
		Type:           models.CreditGrant,
		Change:         s.monthlyCredits,
		EffectiveMonth: eligibility.CurrentEffectiveMonth(now),
		Note:           "signup allowance",
	})
}

// AllocateMonthly grants the monthly allowance to every user that has not
// received it for the month containing now. It is safe to run repeatedly.
func (s *CreditService) AllocateMonthly(ctx context.Context, now time.Time) (int, error) {
	month := eligibility.CurrentEffectiveMonth(now)

	granted := s.db.Model(&models.CreditLedger{}).
		Select("user_id").
		Where("type = ? AND effective_month = ?", models.CreditGrant, month)

	var userIDs []uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id NOT IN (?)", granted).
		Pluck("id", &userIDs).Error; err != nil {
		return 0, fmt.Errorf("failed to find users without credits: %w", err)
	}

	if len(userIDs) == 0 {
		return 0, nil
	}

	entries := make([]models.CreditLedger, len(userIDs))
	for i, id := range userIDs {
		entries[i] = models.CreditLedger{
			UserID:         id,
			Type:           models.CreditGrant,
			Change:         s.monthlyCredits,
			EffectiveMonth: month,
			Note:           "monthly allowance",
		}
	}

	if err := s.db.WithContext(ctx).CreateInBatches(&entries, allocationBatchSize).Error; err != nil {
		return 0, fmt.Errorf("failed to allocate credits: %w", err)
	}

	zap.L().Info("monthly credits allocated",
		zap.Time("month", month),
		zap.Int("users", len(entries)),
		zap.Int("credits", s.monthlyCredits))
	return len(entries), nil
}

// Adjust records a manual change to the user's current month balance
func (s *CreditService) Adjust(ctx context.Context, userID uuid.UUID, change int, note string, now time.Time) (*models.CreditLedger, error) {
	if change == 0 {
		return nil, fmt.Errorf("%w: change must be non-zero", ErrInvalidInput)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id").Where("id = ?", userID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entryType := models.CreditRefund
	if change < 0 {
		entryType = models.CreditAdjust
	}
	entry := &models.CreditLedger{
		UserID:         userID,
		Type:           entryType,
		Change:         change,
		EffectiveMonth: eligibility.CurrentEffectiveMonth(now),
		Note:           note,
	}
	if err := recordCredit(s.db.WithContext(ctx), entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func recordCredit(tx *gorm.DB, entry *models.CreditLedger) error {
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record %s credit: %w", entry.Type, err)
	}
	return nil
}
