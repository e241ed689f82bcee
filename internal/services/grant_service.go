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
	"superteam-earn/internal/models"
	"superteam-earn/internal/utils"
)

type GrantInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Token       string          `json:"token"`
	MinReward   decimal.Decimal `json:"min_reward"`
	MaxReward   decimal.Decimal `json:"max_reward"`
	Region      string          `json:"region"`
}

type GrantApplicationInput struct {
	ProjectTitle    string          `json:"project_title"`
	ProjectOneLiner string          `json:"project_one_liner"`
	ProjectDetails  string          `json:"project_details"`
	Ask             decimal.Decimal `json:"ask"`
}

// GrantService handles grant programs and applications
type GrantService struct {
	db *gorm.DB
}

func NewGrantService(db *gorm.DB) *GrantService {
	return &GrantService{db: db}
}

// ListPublished lists live grants, optionally limited to those open to region
func (s *GrantService) ListPublished(ctx context.Context, region string) ([]models.Grant, error) {
	query := s.db.WithContext(ctx).
		Preload("Sponsor").
		Where("is_published = ? AND is_active = ? AND is_archived = ?", true, true, false)
	if canonical, ok := eligibility.CanonicalRegion(region); ok {
		region = canonical
	}
	if region != "" {
		query = query.Where("region IN ?", []string{models.RegionGlobal, region})
	}

	var grants []models.Grant
	err := query.Order("created_at DESC").Find(&grants).Error
	return grants, err
}

// GetBySlug retrieves a published grant
func (s *GrantService) GetBySlug(ctx context.Context, slug string) (*models.Grant, error) {
	var grant models.Grant
	err := s.db.WithContext(ctx).
		Preload("Sponsor").
		Where("slug = ? AND is_published = ? AND is_archived = ?", slug, true, false).
		First(&grant).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &grant, nil
}

// Create publishes a grant for the user's current sponsor
func (s *GrantService) Create(ctx context.Context, userID uuid.UUID, input GrantInput) (*models.Grant, error) {
	sponsorID, err := currentSponsorID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.MinReward.IsNegative() || (input.MaxReward.IsPositive() && input.MinReward.GreaterThan(input.MaxReward)) {
		return nil, fmt.Errorf("%w: invalid reward range", ErrInvalidInput)
	}
	region := models.RegionGlobal
	if raw := strings.TrimSpace(input.Region); raw != "" {
		canonical, ok := eligibility.CanonicalRegion(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown region %q", ErrInvalidInput, raw)
		}
		region = canonical
	}
	token := strings.ToUpper(strings.TrimSpace(input.Token))
	if token == "" {
		token = "USDC"
	}

	slug, err := utils.UniqueSlug(ctx, title, s.slugExists)
	if err != nil {
		return nil, err
	}

	grant := &models.Grant{
		Slug:        slug,
		Title:       title,
		Description: input.Description,
		SponsorID:   sponsorID,
		PocID:       userID,
		Token:       token,
		MinReward:   input.MinReward,
		MaxReward:   input.MaxReward,
		Region:      region,
		IsPublished: true,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(grant).Error; err != nil {
		return nil, fmt.Errorf("failed to create grant: %w", err)
	}
	return grant, nil
}

// Apply submits a grant application. A user may hold one application per
// grant unless the previous one was rejected.
func (s *GrantService) Apply(ctx context.Context, userID, grantID uuid.UUID, input GrantApplicationInput) (*models.GrantApplication, error) {
	var grant models.Grant
	if err := s.db.WithContext(ctx).
		Where("id = ? AND is_published = ? AND is_active = ? AND is_archived = ?", grantID, true, true, false).
		First(&grant).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !eligibility.IsRegionEligible(grant.Region, user.Location) {
		return nil, ErrRegionIneligible
	}

	if strings.TrimSpace(input.ProjectTitle) == "" {
		return nil, fmt.Errorf("%w: project title is required", ErrInvalidInput)
	}
	if !input.Ask.IsPositive() {
		return nil, fmt.Errorf("%w: ask must be positive", ErrInvalidInput)
	}
	if grant.MaxReward.IsPositive() && input.Ask.GreaterThan(grant.MaxReward) {
		return nil, fmt.Errorf("%w: ask exceeds the grant maximum", ErrInvalidInput)
	}

	application := &models.GrantApplication{
		GrantID:           grant.ID,
		UserID:            userID,
		ProjectTitle:      strings.TrimSpace(input.ProjectTitle),
		ProjectOneLiner:   input.ProjectOneLiner,
		ProjectDetails:    input.ProjectDetails,
		Ask:               input.Ask,
		ApplicationStatus: models.GrantApplicationPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.GrantApplication{}).
			Where("grant_id = ? AND user_id = ? AND application_status <> ?", grant.ID, userID, models.GrantApplicationRejected).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrAlreadyApplied
		}
		if err := tx.Create(application).Error; err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		return tx.Model(&models.Grant{}).Where("id = ?", grant.ID).
			Update("application_count", gorm.Expr("application_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}
	return application, nil
}

// Applications lists the applications of a grant to its sponsor
func (s *GrantService) Applications(ctx context.Context, userID, grantID uuid.UUID) ([]models.GrantApplication, error) {
	var grant models.Grant
	if err := s.db.WithContext(ctx).Select("id", "sponsor_id").Where("id = ?", grantID).First(&grant).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := requireMembership(ctx, s.db, userID, grant.SponsorID); err != nil {
		return nil, err
	}

	var applications []models.GrantApplication
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("grant_id = ?", grantID).
		Order("created_at DESC").
		Find(&applications).Error
	return applications, err
}

// MyApplications lists the user's own grant applications
func (s *GrantService) MyApplications(ctx context.Context, userID uuid.UUID) ([]models.GrantApplication, error) {
	var applications []models.GrantApplication
	err := s.db.WithContext(ctx).
		Preload("Grant").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&applications).Error
	return applications, err
}

// Review approves or rejects a pending application. Approval defaults the
// amount to the ask and adds it to the grant's approved total.
func (s *GrantService) Review(ctx context.Context, userID, applicationID uuid.UUID, approve bool, amount decimal.Decimal, now time.Time) (*models.GrantApplication, error) {
	var application models.GrantApplication
	if err := s.db.WithContext(ctx).Preload("Grant").Where("id = ?", applicationID).First(&application).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if application.Grant == nil {
		return nil, ErrNotFound
	}
	if err := requireMembership(ctx, s.db, userID, application.Grant.SponsorID); err != nil {
		return nil, err
	}
	if application.ApplicationStatus != models.GrantApplicationPending {
		return nil, fmt.Errorf("%w: application already decided", ErrInvalidState)
	}

	status := models.GrantApplicationRejected
	approved := decimal.Zero
	if approve {
		status = models.GrantApplicationApproved
		approved = amount
		if approved.IsZero() {
			approved = application.Ask
		}
		if !approved.IsPositive() {
			return nil, fmt.Errorf("%w: approved amount must be positive", ErrInvalidInput)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GrantApplication{}).Where("id = ?", application.ID).Updates(map[string]interface{}{
			"application_status": status,
			"approved_amount":    approved,
			"decided_at":         now,
		}).Error; err != nil {
			return err
		}
		if !approve {
			return nil
		}
		return tx.Model(&models.Grant{}).Where("id = ?", application.GrantID).
			Update("total_approved", gorm.Expr("total_approved + ?", approved)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to review application: %w", err)
	}

	zap.L().Info("grant application reviewed",
		zap.Stringer("application_id", application.ID),
		zap.String("status", string(status)))

	application.ApplicationStatus = status
	application.ApprovedAmount = approved
	application.DecidedAt = &now
	application.Grant = nil
	return &application, nil
}

func (s *GrantService) slugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Grant{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}
