package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminLog records god-mode actions for audit trail
type AdminLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AdminID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"admin_id"`
	Admin        *User      `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action       string     `gorm:"size:100;not null" json:"action"`
	ResourceType string     `gorm:"size:50" json:"resource_type"`
	ResourceID   *uuid.UUID `gorm:"type:uuid" json:"resource_id"`
	Details      JSONB      `gorm:"type:jsonb" json:"details"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}

func (a *AdminLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
