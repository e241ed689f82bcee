package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SponsorRole string

const (
	SponsorRoleAdmin  SponsorRole = "ADMIN"
	SponsorRoleMember SponsorRole = "MEMBER"
)

// Sponsor is an organization account that posts listings and grants
type Sponsor struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Slug       string    `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Logo       string    `gorm:"size:500" json:"logo"`
	URL        string    `gorm:"size:500" json:"url"`
	Industry   string    `gorm:"size:255" json:"industry"`
	Twitter    string    `gorm:"size:255" json:"twitter"`
	Bio        string    `gorm:"type:text" json:"bio"`
	IsVerified bool      `gorm:"default:false" json:"is_verified"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	IsArchived bool      `gorm:"default:false" json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Sponsor) TableName() string {
	return "sponsors"
}

func (s *Sponsor) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// UserSponsor is a user's membership in a sponsor team
type UserSponsor struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_sponsor" json:"user_id"`
	User      *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SponsorID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_sponsor;index" json:"sponsor_id"`
	Sponsor   *Sponsor    `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
	Role      SponsorRole `gorm:"size:20;not null;default:MEMBER" json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func (UserSponsor) TableName() string {
	return "user_sponsors"
}

func (us *UserSponsor) BeforeCreate(tx *gorm.DB) error {
	if us.ID == uuid.Nil {
		us.ID = uuid.New()
	}
	return nil
}
