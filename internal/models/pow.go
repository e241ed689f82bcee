package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PoW is a proof-of-work portfolio entry on a talent profile
type PoW struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Link        string     `gorm:"size:1000;not null" json:"link"`
	Skills      StringList `gorm:"type:jsonb" json:"skills"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (PoW) TableName() string {
	return "pows"
}

func (p *PoW) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
