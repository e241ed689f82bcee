package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"superteam-earn/internal/eligibility"
	"superteam-earn/internal/models"
)

// ListingFilter narrows the public listing feed
type ListingFilter struct {
	Type   models.ListingType
	Region string
	Status models.ListingStatus
	Skill  string
	Limit  int
	Offset int
}

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create inserts a new listing
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// Save writes every field of a listing
func (r *ListingRepository) Save(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

// GetByID retrieves a listing with its sponsor
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Preload("Sponsor").
		Where("id = ? AND is_archived = ?", id, false).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetBySlug retrieves a listing by its slug
func (r *ListingRepository) GetBySlug(ctx context.Context, slug string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Preload("Sponsor").
		Where("slug = ? AND is_archived = ?", slug, false).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// SlugExists reports whether a listing already uses slug
func (r *ListingRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Listing{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// ListPublic returns published, public, active listings newest deadline first
func (r *ListingRepository) ListPublic(ctx context.Context, filter ListingFilter) ([]models.Listing, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	query := r.db.WithContext(ctx).
		Preload("Sponsor").
		Where("is_published = ? AND is_private = ? AND is_active = ? AND is_archived = ?", true, false, true, false)

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Region != "" {
		region := filter.Region
		if canonical, ok := eligibility.CanonicalRegion(region); ok {
			region = canonical
		}
		query = query.Where("region IN ?", []string{models.RegionGlobal, region})
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Skill != "" {
		query = query.Where("CAST(skills AS TEXT) LIKE ?", "%\""+filter.Skill+"\"%")
	}

	var listings []models.Listing
	err := query.
		Order("deadline DESC").
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&listings).Error
	return listings, err
}

// ListBySponsor returns every non-archived listing of a sponsor
func (r *ListingRepository) ListBySponsor(ctx context.Context, sponsorID uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("sponsor_id = ? AND is_archived = ?", sponsorID, false).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

// CountFeaturedAvailable counts featured listings that occupy a featured slot as of now
func (r *ListingRepository) CountFeaturedAvailable(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("is_featured = ? AND is_archived = ?", true, false).
		Scopes(eligibility.FeaturedAvailabilityWhere(now).Scope).
		Count(&count).Error
	return count, err
}

// MoveExpiredToReview flips OPEN published listings whose deadline has passed to REVIEW
func (r *ListingRepository) MoveExpiredToReview(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("status = ? AND is_published = ? AND deadline IS NOT NULL AND deadline < ?",
			models.ListingStatusOpen, true, now).
		Update("status", models.ListingStatusReview)
	return result.RowsAffected, result.Error
}

// Delete removes a listing row
func (r *ListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Listing{}).Error
}
