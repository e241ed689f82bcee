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

	"superteam-earn/internal/cache"
	"superteam-earn/internal/eligibility"
	"superteam-earn/internal/models"
	"superteam-earn/internal/repository"
	"superteam-earn/internal/utils"
)

const (
	featuredAvailabilityKey = "listings:featured-availability"
	featuredAvailabilityTTL = 5 * time.Minute
)

// ListingInput is the editable part of a listing
type ListingInput struct {
	Title            string                     `json:"title"`
	Description      string                     `json:"description"`
	Type             models.ListingType         `json:"type"`
	Skills           []string                   `json:"skills"`
	Token            string                     `json:"token"`
	Rewards          map[string]decimal.Decimal `json:"rewards"`
	CompensationType models.CompensationType    `json:"compensation_type"`
	MinRewardAsk     decimal.Decimal            `json:"min_reward_ask"`
	MaxRewardAsk     decimal.Decimal            `json:"max_reward_ask"`
	MaxBonusSpots    int                        `json:"max_bonus_spots"`
	Deadline         *time.Time                 `json:"deadline"`
	IsPrivate        bool                       `json:"is_private"`
	Region           string                     `json:"region"`
	HackathonID      *uuid.UUID                 `json:"hackathon_id"`
}

// FeaturedSlots reports how many featured slots are taken
type FeaturedSlots struct {
	Used      int64 `json:"used"`
	Total     int   `json:"total"`
	Available bool  `json:"available"`
}

// ListingService handles bounties, projects and hackathon tracks
type ListingService struct {
	db            *gorm.DB
	repo          *repository.ListingRepository
	prices        *PriceService
	emails        *EmailService
	cache         cache.Cache
	featuredSlots int
	frontendURL   string
}

func NewListingService(db *gorm.DB, repo *repository.ListingRepository, prices *PriceService, emails *EmailService, c cache.Cache, featuredSlots int, frontendURL string) *ListingService {
	return &ListingService{
		db:            db,
		repo:          repo,
		prices:        prices,
		emails:        emails,
		cache:         c,
		featuredSlots: featuredSlots,
		frontendURL:   strings.TrimRight(frontendURL, "/"),
	}
}

// Feed returns the public listing feed with featured, ongoing listings first
func (s *ListingService) Feed(ctx context.Context, filter repository.ListingFilter, now time.Time) ([]models.Listing, error) {
	listings, err := s.repo.ListPublic(ctx, filter)
	if err != nil {
		return nil, err
	}
	return eligibility.ReorderFeaturedOngoing(listings, now), nil
}

// GetBySlug retrieves a published listing. Unpublished listings are only
// visible to members of the owning sponsor.
func (s *ListingService) GetBySlug(ctx context.Context, slug string, viewerID *uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if listing.IsPublished {
		return listing, nil
	}
	if viewerID != nil && requireMembership(ctx, s.db, *viewerID, listing.SponsorID) == nil {
		return listing, nil
	}
	return nil, ErrNotFound
}

// ListForSponsor returns every listing of the user's current sponsor
func (s *ListingService) ListForSponsor(ctx context.Context, userID uuid.UUID) ([]models.Listing, error) {
	sponsorID, err := currentSponsorID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBySponsor(ctx, sponsorID)
}

// CreateDraft creates an unpublished listing for the user's current sponsor
func (s *ListingService) CreateDraft(ctx context.Context, userID uuid.UUID, input ListingInput) (*models.Listing, error) {
	sponsorID, err := currentSponsorID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		SponsorID: sponsorID,
		PocID:     userID,
		IsActive:  true,
		Status:    models.ListingStatusOpen,
	}
	if err := applyListingInput(listing, input); err != nil {
		return nil, err
	}

	listing.Slug, err = utils.UniqueSlug(ctx, listing.Title, s.repo.SlugExists)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	zap.L().Info("listing draft created", zap.String("slug", listing.Slug), zap.Stringer("sponsor_id", sponsorID))
	return listing, nil
}

// Update edits a listing. Rewards can no longer change once winners are announced.
func (s *ListingService) Update(ctx context.Context, userID, listingID uuid.UUID, input ListingInput) (*models.Listing, error) {
	listing, err := s.authorizedListing(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.IsWinnersAnnounced {
		return nil, ErrWinnersAnnounced
	}

	selected := models.Rewards{}
	if listing.CompensationType != models.CompensationFixed {
		selected = listing.Rewards
	}
	if err := applyListingInput(listing, input); err != nil {
		return nil, err
	}
	// Ask-based rewards are written by winner selection, not by the sponsor.
	if listing.CompensationType != models.CompensationFixed {
		listing.Rewards = selected
	}
	if listing.IsPublished {
		if err := s.refreshUSDValue(ctx, listing); err != nil {
			return nil, err
		}
	}

	listing.Sponsor = nil
	if err := s.repo.Save(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	s.invalidateFeatured(ctx)
	return listing, nil
}

// Publish makes a draft visible, pricing its rewards in USD
func (s *ListingService) Publish(ctx context.Context, userID, listingID uuid.UUID, now time.Time) (*models.Listing, error) {
	listing, err := s.authorizedListing(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.IsPublished {
		return listing, nil
	}
	if eligibility.IsDeadlineOver(listing.Deadline, now) {
		return nil, ErrDeadlinePassed
	}
	if listing.Deadline == nil && listing.Type != models.ListingTypeProject {
		return nil, fmt.Errorf("%w: deadline is required", ErrInvalidInput)
	}

	if err := s.refreshUSDValue(ctx, listing); err != nil {
		return nil, err
	}

	listing.IsPublished = true
	listing.PublishedAt = &now
	listing.Status = models.ListingStatusOpen
	listing.Sponsor = nil
	if err := s.repo.Save(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to publish listing: %w", err)
	}
	s.invalidateFeatured(ctx)

	zap.L().Info("listing published",
		zap.String("slug", listing.Slug),
		zap.String("usd_value", listing.UsdValue.StringFixed(2)))
	return listing, nil
}

// Delete removes a draft. Published listings and listings that left OPEN are kept.
func (s *ListingService) Delete(ctx context.Context, userID, listingID uuid.UUID) error {
	listing, err := s.authorizedListing(ctx, userID, listingID)
	if err != nil {
		return err
	}
	if listing.IsPublished {
		return ErrListingPublished
	}
	if listing.Status != models.ListingStatusOpen {
		return ErrListingNotOpen
	}
	return s.repo.Delete(ctx, listing.ID)
}

// AnnounceWinners closes the listing once every reward position has a winner,
// grants winners a bonus credit for next month and emails them.
func (s *ListingService) AnnounceWinners(ctx context.Context, userID, listingID uuid.UUID, now time.Time) (*models.Listing, error) {
	listing, err := s.authorizedListing(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsPublished {
		return nil, ErrInvalidState
	}
	if listing.IsWinnersAnnounced {
		return nil, ErrWinnersAnnounced
	}

	var winners []models.Submission
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("listing_id = ? AND is_winner = ? AND is_archived = ?", listing.ID, true, false).
		Find(&winners).Error; err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(winners))
	for _, w := range winners {
		if w.WinnerPosition != nil {
			taken[*w.WinnerPosition] = true
		}
	}
	_, positions := eligibility.CleanRewards(listing.Rewards)
	for _, position := range positions {
		if _, ranked := eligibility.RankOf(position); ranked && !taken[position] {
			return nil, fmt.Errorf("%w: %s is unassigned", ErrIncompleteWinners, position)
		}
	}
	if len(winners) == 0 {
		return nil, ErrIncompleteWinners
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Listing{}).Where("id = ?", listing.ID).Updates(map[string]interface{}{
			"is_winners_announced":   true,
			"winners_announced_at":   now,
			"status":                 models.ListingStatusClosed,
			"total_winners_selected": len(winners),
		}).Error; err != nil {
			return err
		}
		for _, w := range winners {
			submissionID := w.ID
			if err := recordCredit(tx, &models.CreditLedger{
				UserID:         w.UserID,
				Type:           models.CreditWinBonus,
				Change:         1,
				EffectiveMonth: eligibility.NextEffectiveMonth(now),
				SubmissionID:   &submissionID,
				Note:           listing.Slug,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to announce winners: %w", err)
	}

	listing.IsWinnersAnnounced = true
	listing.WinnersAnnouncedAt = &now
	listing.Status = models.ListingStatusClosed
	listing.TotalWinnersSelected = len(winners)
	s.invalidateFeatured(ctx)

	s.notifyWinners(ctx, listing, winners)
	return listing, nil
}

func (s *ListingService) notifyWinners(ctx context.Context, listing *models.Listing, winners []models.Submission) {
	messages := make([]EmailMessage, 0, len(winners))
	for _, w := range winners {
		if w.User == nil || w.User.Email == nil {
			continue
		}
		position := ""
		if w.WinnerPosition != nil {
			position = *w.WinnerPosition
		}
		messages = append(messages, EmailMessage{
			To:      *w.User.Email,
			Subject: fmt.Sprintf("You won %s!", listing.Title),
			HTML: fmt.Sprintf(
				`<p>Congratulations %s, your submission was selected as the %s place winner of <a href="%s/listings/%s">%s</a>.</p>`,
				w.User.FirstName, position, s.frontendURL, listing.Slug, listing.Title),
		})
	}
	if len(messages) == 0 {
		return
	}

	sent, err := s.emails.SendBulk(ctx, messages)
	if err != nil {
		zap.L().Warn("winner emails interrupted", zap.String("slug", listing.Slug), zap.Error(err))
		return
	}
	zap.L().Info("winner emails sent", zap.String("slug", listing.Slug), zap.Int("sent", sent))
}

// FeaturedAvailability reports how many featured slots are occupied
func (s *ListingService) FeaturedAvailability(ctx context.Context, now time.Time) (*FeaturedSlots, error) {
	var slots FeaturedSlots
	if ok, err := s.cache.Get(ctx, featuredAvailabilityKey, &slots); err == nil && ok {
		return &slots, nil
	}

	used, err := s.repo.CountFeaturedAvailable(ctx, now)
	if err != nil {
		return nil, err
	}
	slots = FeaturedSlots{
		Used:      used,
		Total:     s.featuredSlots,
		Available: used < int64(s.featuredSlots),
	}
	if err := s.cache.Set(ctx, featuredAvailabilityKey, slots, featuredAvailabilityTTL); err != nil {
		zap.L().Warn("featured availability cache write failed", zap.Error(err))
	}
	return &slots, nil
}

// SetFeatured features or unfeatures a listing. Featuring requires the
// listing to qualify and a free slot.
func (s *ListingService) SetFeatured(ctx context.Context, listingID uuid.UUID, featured bool, now time.Time) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if listing.IsFeatured == featured {
		return listing, nil
	}

	if featured {
		if !eligibility.FeaturedAvailabilityWhere(now).Matches(listing) {
			return nil, fmt.Errorf("%w: listing does not qualify for featuring", ErrInvalidState)
		}
		used, err := s.repo.CountFeaturedAvailable(ctx, now)
		if err != nil {
			return nil, err
		}
		if used >= int64(s.featuredSlots) {
			return nil, fmt.Errorf("%w: no featured slots left", ErrInvalidState)
		}
	}

	if err := s.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ?", listing.ID).
		Update("is_featured", featured).Error; err != nil {
		return nil, err
	}
	listing.IsFeatured = featured
	s.invalidateFeatured(ctx)
	return listing, nil
}

// SweepDeadlines moves OPEN listings past their deadline into REVIEW
func (s *ListingService) SweepDeadlines(ctx context.Context, now time.Time) (int64, error) {
	moved, err := s.repo.MoveExpiredToReview(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("deadline sweep failed: %w", err)
	}
	if moved > 0 {
		s.invalidateFeatured(ctx)
		zap.L().Info("listings moved to review", zap.Int64("count", moved))
	}
	return moved, nil
}

func (s *ListingService) authorizedListing(ctx context.Context, userID, listingID uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := requireMembership(ctx, s.db, userID, listing.SponsorID); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) refreshUSDValue(ctx context.Context, listing *models.Listing) error {
	var amount decimal.Decimal
	switch listing.CompensationType {
	case models.CompensationFixed:
		amount = listing.RewardAmount
	case models.CompensationRange:
		amount = listing.MaxRewardAsk
	default:
		listing.UsdValue = decimal.Zero
		return nil
	}
	usd, err := s.prices.USDValue(ctx, listing.Token, amount)
	if err != nil {
		return err
	}
	listing.UsdValue = usd
	return nil
}

func (s *ListingService) invalidateFeatured(ctx context.Context) {
	if err := s.cache.Delete(ctx, featuredAvailabilityKey); err != nil {
		zap.L().Warn("featured availability cache invalidation failed", zap.Error(err))
	}
}

func applyListingInput(listing *models.Listing, input ListingInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	listingType := input.Type
	if listingType == "" {
		listingType = models.ListingTypeBounty
	}
	switch listingType {
	case models.ListingTypeBounty, models.ListingTypeProject, models.ListingTypeHackathon:
	default:
		return fmt.Errorf("%w: unknown listing type %q", ErrInvalidInput, listingType)
	}

	compensation := input.CompensationType
	if compensation == "" {
		compensation = models.CompensationFixed
	}

	region := models.RegionGlobal
	if raw := strings.TrimSpace(input.Region); raw != "" {
		canonical, ok := eligibility.CanonicalRegion(raw)
		if !ok {
			return fmt.Errorf("%w: unknown region %q", ErrInvalidInput, raw)
		}
		region = canonical
	}

	token := strings.ToUpper(strings.TrimSpace(input.Token))
	if token == "" {
		token = "USDC"
	}

	rewards, positions := eligibility.CleanRewards(models.Rewards(input.Rewards))
	var rewardAmount decimal.Decimal
	switch compensation {
	case models.CompensationFixed:
		if len(positions) == 0 {
			return fmt.Errorf("%w: fixed compensation needs at least one reward", ErrInvalidInput)
		}
		rewardAmount = rewards.Total()
	case models.CompensationRange:
		if !input.MaxRewardAsk.IsPositive() || input.MinRewardAsk.GreaterThan(input.MaxRewardAsk) {
			return fmt.Errorf("%w: invalid reward range", ErrInvalidInput)
		}
		rewardAmount = input.MaxRewardAsk
	case models.CompensationVariable:
		rewardAmount = decimal.Zero
	default:
		return fmt.Errorf("%w: unknown compensation type %q", ErrInvalidInput, compensation)
	}

	listing.Title = title
	listing.Description = input.Description
	listing.Type = listingType
	listing.Skills = models.StringList(input.Skills)
	listing.Token = token
	listing.Rewards = rewards
	listing.RewardAmount = rewardAmount
	listing.CompensationType = compensation
	listing.MinRewardAsk = input.MinRewardAsk
	listing.MaxRewardAsk = input.MaxRewardAsk
	listing.MaxBonusSpots = input.MaxBonusSpots
	listing.Deadline = input.Deadline
	listing.IsPrivate = input.IsPrivate
	listing.Region = region
	listing.HackathonID = input.HackathonID
	return nil
}
