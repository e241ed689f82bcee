package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "Pending"
	SubmissionStatusApproved SubmissionStatus = "Approved"
	SubmissionStatusRejected SubmissionStatus = "Rejected"
)

// Submission is a talent's entry against a listing
type Submission struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_submission_listing_user" json:"listing_id"`
	Listing        *Listing         `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_submission_listing_user;index" json:"user_id"`
	User           *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Link           string           `gorm:"size:1000" json:"link"`
	Tweet          string           `gorm:"size:1000" json:"tweet"`
	OtherInfo      string           `gorm:"type:text" json:"other_info"`
	Ask            *decimal.Decimal `gorm:"type:decimal(18,2)" json:"ask,omitempty"`
	Status         SubmissionStatus `gorm:"size:20;not null;default:Pending" json:"status"`
	Label          string           `gorm:"size:30;default:Unreviewed" json:"label"`
	IsWinner       bool             `gorm:"default:false;index" json:"is_winner"`
	WinnerPosition *string          `gorm:"size:20" json:"winner_position,omitempty"`
	IsPaid         bool             `gorm:"default:false" json:"is_paid"`
	PaymentDetails JSONB            `gorm:"type:jsonb" json:"payment_details,omitempty"`
	IsActive       bool             `gorm:"default:true" json:"is_active"`
	IsArchived     bool             `gorm:"default:false" json:"is_archived"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SubmissionStatusPending
	}
	return nil
}
