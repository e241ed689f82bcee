package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreditEntryType string

const (
	CreditGrant       CreditEntryType = "CREDIT_GRANT"
	CreditSubmission  CreditEntryType = "SUBMISSION"
	CreditSpamPenalty CreditEntryType = "SPAM_PENALTY"
	CreditWinBonus    CreditEntryType = "WIN_BONUS"
	CreditReferral    CreditEntryType = "REFERRAL_BONUS"
	CreditRefund      CreditEntryType = "CREDIT_REFUND"
	CreditAdjust      CreditEntryType = "CREDIT_ADJUST"
)

// CreditLedger is one signed change to a user's monthly submission credits
type CreditLedger struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_credit_user_month" json:"user_id"`
	Type           CreditEntryType `gorm:"size:30;not null;index" json:"type"`
	Change         int             `gorm:"not null" json:"change"`
	EffectiveMonth time.Time       `gorm:"not null;index:idx_credit_user_month" json:"effective_month"`
	SubmissionID   *uuid.UUID      `gorm:"type:uuid;index" json:"submission_id,omitempty"`
	Note           string          `gorm:"size:255" json:"note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (CreditLedger) TableName() string {
	return "credit_ledger"
}

func (c *CreditLedger) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
