package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"superteam-earn/internal/models"
	"superteam-earn/internal/utils"
)

// SponsorService manages sponsor teams and their members
type SponsorService struct {
	db *gorm.DB
}

// NewSponsorService creates a new SponsorService
func NewSponsorService(db *gorm.DB) *SponsorService {
	return &SponsorService{db: db}
}

type SponsorInput struct {
	Name     string `json:"name" binding:"required"`
	Logo     string `json:"logo"`
	URL      string `json:"url"`
	Industry string `json:"industry"`
	Twitter  string `json:"twitter"`
	Bio      string `json:"bio"`
}

// SponsorStats aggregates a sponsor's activity
type SponsorStats struct {
	TotalListings    int64           `json:"total_listings"`
	TotalGrants      int64           `json:"total_grants"`
	TotalSubmissions int64           `json:"total_submissions"`
	TotalRewardedUSD decimal.Decimal `json:"total_rewarded_usd"`
}

// Create registers a sponsor. The creator becomes its ADMIN and switches to it.
func (s *SponsorService) Create(ctx context.Context, userID uuid.UUID, input SponsorInput) (*models.Sponsor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Sponsor{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSponsorExists
	}

	slug, err := utils.UniqueSlug(ctx, name, s.slugExists)
	if err != nil {
		return nil, err
	}

	sponsor := models.Sponsor{
		Name:     name,
		Slug:     slug,
		Logo:     input.Logo,
		URL:      input.URL,
		Industry: input.Industry,
		Twitter:  input.Twitter,
		Bio:      input.Bio,
		IsActive: true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sponsor).Error; err != nil {
			return fmt.Errorf("failed to create sponsor: %w", err)
		}
		member := models.UserSponsor{UserID: userID, SponsorID: sponsor.ID, Role: models.SponsorRoleAdmin}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to add sponsor admin: %w", err)
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("current_sponsor_id", sponsor.ID).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("sponsor created", zap.String("slug", sponsor.Slug), zap.Stringer("user_id", userID))
	return &sponsor, nil
}

// GetBySlug retrieves an active sponsor
func (s *SponsorService) GetBySlug(ctx context.Context, slug string) (*models.Sponsor, error) {
	var sponsor models.Sponsor
	err := s.db.WithContext(ctx).Where("slug = ? AND is_archived = ?", slug, false).First(&sponsor).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sponsor, nil
}

// Members lists the team of a sponsor
func (s *SponsorService) Members(ctx context.Context, userID, sponsorID uuid.UUID) ([]models.UserSponsor, error) {
	if err := requireMembership(ctx, s.db, userID, sponsorID); err != nil {
		return nil, err
	}
	var members []models.UserSponsor
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("sponsor_id = ?", sponsorID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// AddMember adds the user with username to the actor's sponsor. Only sponsor
// admins may add members.
func (s *SponsorService) AddMember(ctx context.Context, actorID, sponsorID uuid.UUID, username string, role models.SponsorRole) (*models.UserSponsor, error) {
	if role == "" {
		role = models.SponsorRoleMember
	}
	if role != models.SponsorRoleAdmin && role != models.SponsorRoleMember {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	actorRole, err := membershipRole(ctx, s.db, actorID, sponsorID)
	if err != nil {
		return nil, err
	}
	if actorRole != models.SponsorRoleAdmin {
		return nil, ErrForbidden
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UserSponsor{}).
		Where("user_id = ? AND sponsor_id = ?", user.ID, sponsorID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyMember
	}

	member := models.UserSponsor{UserID: user.ID, SponsorID: sponsorID, Role: role}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		if user.CurrentSponsorID == nil {
			return tx.Model(&user).Update("current_sponsor_id", sponsorID).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return &member, nil
}

// SwitchSponsor changes the sponsor the user acts for
func (s *SponsorService) SwitchSponsor(ctx context.Context, userID, sponsorID uuid.UUID) error {
	if err := requireMembership(ctx, s.db, userID, sponsorID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("current_sponsor_id", sponsorID).Error
}

// Stats aggregates listings, grants, submissions and rewarded USD of a sponsor
func (s *SponsorService) Stats(ctx context.Context, sponsorID uuid.UUID) (*SponsorStats, error) {
	stats := &SponsorStats{TotalRewardedUSD: decimal.Zero}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Listing{}).
		Where("sponsor_id = ? AND is_published = ? AND is_archived = ?", sponsorID, true, false).
		Count(&stats.TotalListings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Grant{}).
		Where("sponsor_id = ? AND is_published = ? AND is_archived = ?", sponsorID, true, false).
		Count(&stats.TotalGrants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Submission{}).
		Joins("JOIN listings ON listings.id = submissions.listing_id").
		Where("listings.sponsor_id = ? AND submissions.is_archived = ?", sponsorID, false).
		Count(&stats.TotalSubmissions).Error; err != nil {
		return nil, err
	}

	var rewarded decimal.NullDecimal
	row := db.Model(&models.Listing{}).
		Where("sponsor_id = ? AND is_winners_announced = ? AND is_archived = ?", sponsorID, true, false).
		Select("SUM(usd_value)").Row()
	if err := row.Scan(&rewarded); err != nil {
		return nil, err
	}
	if rewarded.Valid {
		stats.TotalRewardedUSD = rewarded.Decimal
	}

	var grantsPaid decimal.NullDecimal
	row = db.Model(&models.Grant{}).
		Where("sponsor_id = ?", sponsorID).
		Select("SUM(total_paid)").Row()
	if err := row.Scan(&grantsPaid); err != nil {
		return nil, err
	}
	if grantsPaid.Valid {
		stats.TotalRewardedUSD = stats.TotalRewardedUSD.Add(grantsPaid.Decimal)
	}

	return stats, nil
}

func (s *SponsorService) slugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Sponsor{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// membershipRole returns the role userID holds in sponsorID. God users act as
// admins of every sponsor.
func membershipRole(ctx context.Context, db *gorm.DB, userID, sponsorID uuid.UUID) (models.SponsorRole, error) {
	var user models.User
	if err := db.WithContext(ctx).Select("id", "role").Where("id = ?", userID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return "", ErrForbidden
		}
		return "", err
	}
	if user.IsGod() {
		return models.SponsorRoleAdmin, nil
	}

	var member models.UserSponsor
	err := db.WithContext(ctx).Where("user_id = ? AND sponsor_id = ?", userID, sponsorID).First(&member).Error
	if err != nil {
		if isNotFound(err) {
			return "", ErrForbidden
		}
		return "", err
	}
	return member.Role, nil
}

func requireMembership(ctx context.Context, db *gorm.DB, userID, sponsorID uuid.UUID) error {
	_, err := membershipRole(ctx, db, userID, sponsorID)
	return err
}

// currentSponsorID returns the sponsor the user currently acts for
func currentSponsorID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (uuid.UUID, error) {
	var user models.User
	if err := db.WithContext(ctx).Select("id", "current_sponsor_id").Where("id = ?", userID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}
	if user.CurrentSponsorID == nil {
		return uuid.Nil, ErrSponsorRequired
	}
	if err := requireMembership(ctx, db, userID, *user.CurrentSponsorID); err != nil {
		return uuid.Nil, err
	}
	return *user.CurrentSponsorID, nil
}
