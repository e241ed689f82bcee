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

	"superteam-earn/internal/models"
)

// PlatformStats are platform-wide totals for the god-mode dashboard
type PlatformStats struct {
	TotalUsers       int64           `json:"total_users"`
	NewUsers         int64           `json:"new_users"`
	TotalSponsors    int64           `json:"total_sponsors"`
	LiveListings     int64           `json:"live_listings"`
	TotalSubmissions int64           `json:"total_submissions"`
	TotalRewardedUSD decimal.Decimal `json:"total_rewarded_usd"`
}

// AdminService implements god-mode operations. Every mutation is logged.
type AdminService struct {
	db       *gorm.DB
	credits  *CreditService
	listings *ListingService
}

func NewAdminService(db *gorm.DB, credits *CreditService, listings *ListingService) *AdminService {
	return &AdminService{
		db:       db,
		credits:  credits,
		listings: listings,
	}
}

// IsGod checks if a user holds the god role
func (s *AdminService) IsGod(ctx context.Context, userID uuid.UUID) bool {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "role").Where("id = ?", userID).First(&user).Error; err != nil {
		return false
	}
	return user.IsGod()
}

// SetRole promotes a user to god or demotes them back
func (s *AdminService) SetRole(ctx context.Context, adminID, userID uuid.UUID, role models.UserRole) error {
	if role != models.UserRoleGod && role != models.UserRoleUser {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if adminID == userID {
		return fmt.Errorf("%w: cannot change your own role", ErrInvalidInput)
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.LogAdminAction(ctx, adminID, "SET_ROLE", "USER", &userID, map[string]interface{}{
		"role": role,
	})
	zap.L().Info("user role changed", zap.Stringer("user_id", userID), zap.String("role", string(role)))
	return nil
}

// AdjustCredits adds or removes submission credits for the current month
func (s *AdminService) AdjustCredits(ctx context.Context, adminID, userID uuid.UUID, change int, reason string, now time.Time) (*models.CreditLedger, error) {
	entry, err := s.credits.Adjust(ctx, userID, change, reason, now)
	if err != nil {
		return nil, err
	}
	s.LogAdminAction(ctx, adminID, "ADJUST_CREDITS", "USER", &userID, map[string]interface{}{
		"change": change,
		"reason": reason,
	})
	return entry, nil
}

// VerifySponsor sets the verified badge of a sponsor
func (s *AdminService) VerifySponsor(ctx context.Context, adminID, sponsorID uuid.UUID, verified bool) error {
	result := s.db.WithContext(ctx).Model(&models.Sponsor{}).Where("id = ?", sponsorID).Update("is_verified", verified)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.LogAdminAction(ctx, adminID, "VERIFY_SPONSOR", "SPONSOR", &sponsorID, map[string]interface{}{
		"verified": verified,
	})
	return nil
}

// SetFeatured features or unfeatures a listing
func (s *AdminService) SetFeatured(ctx context.Context, adminID, listingID uuid.UUID, featured bool, now time.Time) (*models.Listing, error) {
	listing, err := s.listings.SetFeatured(ctx, listingID, featured, now)
	if err != nil {
		return nil, err
	}
	s.LogAdminAction(ctx, adminID, "SET_FEATURED", "LISTING", &listingID, map[string]interface{}{
		"featured": featured,
	})
	return listing, nil
}

// LogAdminAction logs an admin action. Failures are logged, not returned.
func (s *AdminService) LogAdminAction(ctx context.Context, adminID uuid.UUID, action string, resourceType string,
	resourceID *uuid.UUID, details map[string]interface{}) {

	adminLog := models.AdminLog{
		AdminID:      adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.JSONB(details),
	}

	if err := s.db.WithContext(ctx).Create(&adminLog).Error; err != nil {
		zap.L().Error("failed to write admin log", zap.String("action", action), zap.Error(err))
	}
}

// GetAdminLogs returns admin activity logs
func (s *AdminService) GetAdminLogs(ctx context.Context, limit int, offset int) ([]models.AdminLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.AdminLog
	if err := s.db.WithContext(ctx).Preload("Admin").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// GetPlatformStats returns platform totals; new users are counted since since
func (s *AdminService) GetPlatformStats(ctx context.Context, since time.Time) (*PlatformStats, error) {
	stats := &PlatformStats{TotalRewardedUSD: decimal.Zero}
	db := s.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, db.Model(&models.User{})},
		{&stats.NewUsers, db.Model(&models.User{}).Where("created_at >= ?", since)},
		{&stats.TotalSponsors, db.Model(&models.Sponsor{}).Where("is_archived = ?", false)},
		{&stats.LiveListings, db.Model(&models.Listing{}).Where("is_published = ? AND status = ? AND is_archived = ?", true, models.ListingStatusOpen, false)},
		{&stats.TotalSubmissions, db.Model(&models.Submission{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	var rewarded decimal.NullDecimal
	if err := db.Model(&models.Listing{}).
		Where("is_winners_announced = ?", true).
		Select("SUM(usd_value)").Row().Scan(&rewarded); err != nil {
		return nil, err
	}
	if rewarded.Valid {
		stats.TotalRewardedUSD = rewarded.Decimal
	}
	return stats, nil
}

// GetAllUsers returns users with optional search on username, email or wallet
func (s *AdminService) GetAllUsers(ctx context.Context, limit int, offset int, search string) ([]models.User, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var users []models.User
	var total int64

	query := s.db.WithContext(ctx).Model(&models.User{})
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(wallet_address) LIKE ?", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
