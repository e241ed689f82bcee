package eligibility

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"superteam-earn/internal/models"
)

// MinFeaturedUSD is the compensation floor a listing must clear to be featured
var MinFeaturedUSD = decimal.NewFromInt(100)

// IsOngoing reports whether a listing still accepts work: winners are not
// announced and the deadline, if any, has not passed.
func IsOngoing(l *models.Listing, now time.Time) bool {
	if l.IsWinnersAnnounced {
		return false
	}
	return l.Deadline == nil || !l.Deadline.Before(now)
}

// ReorderFeaturedOngoing moves featured, ongoing listings to the front.
// Relative order inside both partitions is preserved.
func ReorderFeaturedOngoing(listings []models.Listing, now time.Time) []models.Listing {
	featured := make([]models.Listing, 0, len(listings))
	rest := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.IsFeatured && IsOngoing(&l, now) {
			featured = append(featured, l)
		} else {
			rest = append(rest, l)
		}
	}
	return append(featured, rest...)
}

// FeaturedAvailability is the predicate selecting listings that count toward
// the featured slots. It is a value: evaluate it with Matches or render it
// into a query with Scope.
type FeaturedAvailability struct {
	Now    time.Time
	MinUSD decimal.Decimal
}

// FeaturedAvailabilityWhere builds the featured-availability predicate as of now.
func FeaturedAvailabilityWhere(now time.Time) FeaturedAvailability {
	return FeaturedAvailability{Now: now, MinUSD: MinFeaturedUSD}
}

// Matches evaluates the predicate against a single listing.
func (f FeaturedAvailability) Matches(l *models.Listing) bool {
	if l.Region != models.RegionGlobal || !l.IsPublished || l.IsPrivate {
		return false
	}
	if l.HackathonID != nil || l.Type == models.ListingTypeHackathon {
		return false
	}
	if l.Deadline == nil || l.Deadline.Before(f.Now) {
		return false
	}
	return f.clearsCompensation(l)
}

func (f FeaturedAvailability) clearsCompensation(l *models.Listing) bool {
	switch l.CompensationType {
	case models.CompensationFixed:
		return l.UsdValue.GreaterThanOrEqual(f.MinUSD)
	case models.CompensationRange:
		return l.MaxRewardAsk.GreaterThanOrEqual(f.MinUSD)
	case models.CompensationVariable:
		return true
	default:
		return false
	}
}

// Scope renders the predicate as a gorm scope over the listings table.
func (f FeaturedAvailability) Scope(db *gorm.DB) *gorm.DB {
	minUSD := f.MinUSD.InexactFloat64()
	return db.
		Where("region = ?", models.RegionGlobal).
		Where("is_published = ? AND is_private = ?", true, false).
		Where("hackathon_id IS NULL AND type <> ?", models.ListingTypeHackathon).
		Where("deadline IS NOT NULL AND deadline >= ?", f.Now).
		Where(
			db.Session(&gorm.Session{NewDB: true}).
				Where("compensation_type = ? AND usd_value >= ?", models.CompensationFixed, minUSD).
				Or("compensation_type = ? AND max_reward_ask >= ?", models.CompensationRange, minUSD).
				Or("compensation_type = ?", models.CompensationVariable),
		)
}
