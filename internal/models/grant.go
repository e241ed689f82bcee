package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GrantApplicationStatus string

const (
	GrantApplicationPending   GrantApplicationStatus = "Pending"
	GrantApplicationApproved  GrantApplicationStatus = "Approved"
	GrantApplicationRejected  GrantApplicationStatus = "Rejected"
	GrantApplicationCompleted GrantApplicationStatus = "Completed"
)

// Grant is an open funding program run by a sponsor
type Grant struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Slug             string          `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Title            string          `gorm:"size:255;not null" json:"title"`
	Description      string          `gorm:"type:text" json:"description"`
	SponsorID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"sponsor_id"`
	Sponsor          *Sponsor        `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
	PocID            uuid.UUID       `gorm:"type:uuid;not null" json:"poc_id"`
	Token            string          `gorm:"size:20;not null;default:USDC" json:"token"`
	MinReward        decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"min_reward"`
	MaxReward        decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"max_reward"`
	Region           string          `gorm:"size:100;not null;default:Global" json:"region"`
	IsPublished      bool            `gorm:"default:false" json:"is_published"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
	IsArchived       bool            `gorm:"default:false" json:"is_archived"`
	TotalApproved    decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"total_approved"`
	TotalPaid        decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"total_paid"`
	ApplicationCount int             `gorm:"default:0" json:"application_count"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Grant) TableName() string {
	return "grants"
}

func (g *Grant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Region == "" {
		g.Region = RegionGlobal
	}
	return nil
}

// GrantApplication is a talent's request for funding from a grant
type GrantApplication struct {
	ID                uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	GrantID           uuid.UUID              `gorm:"type:uuid;not null;index" json:"grant_id"`
	Grant             *Grant                 `gorm:"foreignKey:GrantID" json:"grant,omitempty"`
	UserID            uuid.UUID              `gorm:"type:uuid;not null;index" json:"user_id"`
	User              *User                  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProjectTitle      string                 `gorm:"size:255;not null" json:"project_title"`
	ProjectOneLiner   string                 `gorm:"size:500" json:"project_one_liner"`
	ProjectDetails    string                 `gorm:"type:text" json:"project_details"`
	Ask               decimal.Decimal        `gorm:"type:decimal(18,2);not null" json:"ask"`
	ApprovedAmount    decimal.Decimal        `gorm:"type:decimal(18,2);default:0" json:"approved_amount"`
	ApplicationStatus GrantApplicationStatus `gorm:"size:20;not null;default:Pending;index" json:"application_status"`
	DecidedAt         *time.Time             `json:"decided_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

func (GrantApplication) TableName() string {
	return "grant_applications"
}

func (a *GrantApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.ApplicationStatus == "" {
		a.ApplicationStatus = GrantApplicationPending
	}
	return nil
}
