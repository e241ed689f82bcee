package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListingType string

const (
	ListingTypeBounty    ListingType = "bounty"
	ListingTypeProject   ListingType = "project"
	ListingTypeHackathon ListingType = "hackathon"
)

type ListingStatus string

const (
	ListingStatusOpen   ListingStatus = "OPEN"
	ListingStatusReview ListingStatus = "REVIEW"
	ListingStatusClosed ListingStatus = "CLOSED"
)

type CompensationType string

const (
	CompensationFixed    CompensationType = "fixed"
	CompensationRange    CompensationType = "range"
	CompensationVariable CompensationType = "variable"
)

// RegionGlobal marks a listing open to talent from every country
const RegionGlobal = "Global"

// Listing is a bounty, project or hackathon track posted by a sponsor
type Listing struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string      `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Type        ListingType `gorm:"size:20;not null;default:bounty;index" json:"type"`
	SponsorID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"sponsor_id"`
	Sponsor     *Sponsor    `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
	PocID       uuid.UUID   `gorm:"type:uuid;not null" json:"poc_id"`
	Poc         *User       `gorm:"foreignKey:PocID" json:"poc,omitempty"`
	Skills      StringList  `gorm:"type:jsonb" json:"skills"`

	Token            string           `gorm:"size:20;not null;default:USDC" json:"token"`
	Rewards          Rewards          `gorm:"type:jsonb" json:"rewards"`
	RewardAmount     decimal.Decimal  `gorm:"type:decimal(18,2);default:0" json:"reward_amount"`
	UsdValue         decimal.Decimal  `gorm:"type:decimal(18,2);default:0" json:"usd_value"`
	CompensationType CompensationType `gorm:"size:20;not null;default:fixed" json:"compensation_type"`
	MinRewardAsk     decimal.Decimal  `gorm:"type:decimal(18,2);default:0" json:"min_reward_ask"`
	MaxRewardAsk     decimal.Decimal  `gorm:"type:decimal(18,2);default:0" json:"max_reward_ask"`
	MaxBonusSpots    int              `gorm:"default:0" json:"max_bonus_spots"`

	Deadline           *time.Time    `gorm:"index" json:"deadline,omitempty"`
	Status             ListingStatus `gorm:"size:20;not null;default:OPEN;index" json:"status"`
	IsPublished        bool          `gorm:"default:false;index" json:"is_published"`
	PublishedAt        *time.Time    `json:"published_at,omitempty"`
	IsFeatured         bool          `gorm:"default:false" json:"is_featured"`
	IsPrivate          bool          `gorm:"default:false" json:"is_private"`
	IsActive           bool          `gorm:"default:true" json:"is_active"`
	IsArchived         bool          `gorm:"default:false" json:"is_archived"`
	IsWinnersAnnounced bool          `gorm:"default:false" json:"is_winners_announced"`
	WinnersAnnouncedAt *time.Time    `json:"winners_announced_at,omitempty"`
	Region             string        `gorm:"size:100;not null;default:Global" json:"region"`
	HackathonID        *uuid.UUID    `gorm:"type:uuid;index" json:"hackathon_id,omitempty"`

	TotalWinnersSelected int `gorm:"default:0" json:"total_winners_selected"`
	TotalPaymentsMade    int `gorm:"default:0" json:"total_payments_made"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = ListingStatusOpen
	}
	if l.Region == "" {
		l.Region = RegionGlobal
	}
	return nil
}
