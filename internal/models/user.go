package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleUser UserRole = "USER"
	UserRoleGod  UserRole = "GOD"
)

// User represents a talent or sponsor member account
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email            *string    `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	Username         string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	FirstName        string     `gorm:"size:100" json:"first_name"`
	LastName         string     `gorm:"size:100" json:"last_name"`
	Photo            string     `gorm:"size:500" json:"photo"`
	Bio              string     `gorm:"type:text" json:"bio"`
	Location         string     `gorm:"size:100" json:"location"`
	Skills           StringList `gorm:"type:jsonb" json:"skills"`
	Twitter          string     `gorm:"size:255" json:"twitter"`
	Github           string     `gorm:"size:255" json:"github"`
	WalletAddress    string     `gorm:"uniqueIndex;size:64;not null" json:"wallet_address"`
	Role             UserRole   `gorm:"size:20;not null;default:USER" json:"role"`
	CurrentSponsorID *uuid.UUID `gorm:"type:uuid;index" json:"current_sponsor_id,omitempty"`
	CurrentSponsor   *Sponsor   `gorm:"foreignKey:CurrentSponsorID" json:"current_sponsor,omitempty"`
	IsTalentFilled   bool       `gorm:"default:false" json:"is_talent_filled"`

	IsKYCVerified bool       `gorm:"column:is_kyc_verified;default:false" json:"is_kyc_verified"`
	KYCVerifiedAt *time.Time `gorm:"column:kyc_verified_at" json:"kyc_verified_at,omitempty"`
	KYCExpiresAt  *time.Time `gorm:"column:kyc_expires_at" json:"kyc_expires_at,omitempty"`
	KYCName       string     `gorm:"column:kyc_name;size:255" json:"-"`
	KYCCountry    string     `gorm:"column:kyc_country;size:100" json:"-"`

	ReferralCode string     `gorm:"uniqueIndex;size:16;not null" json:"referral_code"`
	ReferredByID *uuid.UUID `gorm:"type:uuid;index" json:"referred_by_id,omitempty"`
	ReferredBy   *User      `gorm:"foreignKey:ReferredByID" json:"referred_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = UserRoleUser
	}
	return nil
}

// IsGod reports whether the user holds the platform admin role
func (u *User) IsGod() bool {
	return u.Role == UserRoleGod
}

// EmailSettings records a notification category the user has opted into
type EmailSettings struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_email_settings_user_category" json:"user_id"`
	Category  string    `gorm:"size:64;not null;uniqueIndex:idx_email_settings_user_category" json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

func (EmailSettings) TableName() string {
	return "email_settings"
}

func (e *EmailSettings) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// UnsubscribedEmail blocks every outgoing email to an address
type UnsubscribedEmail struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (UnsubscribedEmail) TableName() string {
	return "unsubscribed_emails"
}

func (e *UnsubscribedEmail) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
