package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"superteam-earn/internal/models"
)

// ReferralStats summarises a user's referrals
type ReferralStats struct {
	Code          string `json:"code"`
	Link          string `json:"link"`
	ReferredUsers int64  `json:"referred_users"`
	Submitted     int64  `json:"submitted"`
	BonusCredits  int64  `json:"bonus_credits"`
}

type ReferralService struct {
	db          *gorm.DB
	frontendURL string
}

func NewReferralService(db *gorm.DB, frontendURL string) *ReferralService {
	return &ReferralService{db: db, frontendURL: strings.TrimRight(frontendURL, "/")}
}

// Link builds the shareable signup link for code
func (s *ReferralService) Link(code string) string {
	return fmt.Sprintf("%s/?referral=%s", s.frontendURL, code)
}

// GetReferralStats returns referral statistics for a user
func (s *ReferralService) GetReferralStats(ctx context.Context, userID uuid.UUID) (*ReferralStats, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "referral_code").Where("id = ?", userID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	stats := &ReferralStats{Code: user.ReferralCode, Link: s.Link(user.ReferralCode)}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("referred_by_id = ?", userID).
		Count(&stats.ReferredUsers).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("referred_by_id = ?", userID).
		Where("EXISTS (SELECT 1 FROM submissions WHERE submissions.user_id = users.id)").
		Count(&stats.Submitted).Error; err != nil {
		return nil, err
	}

	row := s.db.WithContext(ctx).Model(&models.CreditLedger{}).
		Where("user_id = ? AND type = ?", userID, models.CreditReferral).
		Select("COALESCE(SUM(change), 0)").Row()
	if err := row.Scan(&stats.BonusCredits); err != nil {
		return nil, err
	}

	return stats, nil
}

// ReferredUsers lists the users who signed up with userID's code
func (s *ReferralService) ReferredUsers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Select("id", "username", "first_name", "last_name", "photo", "created_at").
		Where("referred_by_id = ?", userID).
		Order("created_at DESC").
		Find(&users).Error
	return users, err
}
