package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentRefType string

const (
	CommentRefBounty     CommentRefType = "BOUNTY"
	CommentRefGrant      CommentRefType = "GRANT"
	CommentRefSubmission CommentRefType = "SUBMISSION"
)

// Comment is a discussion message attached to a listing, grant or submission
type Comment struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RefType    CommentRefType `gorm:"size:20;not null;index:idx_comment_ref" json:"ref_type"`
	RefID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_comment_ref" json:"ref_id"`
	AuthorID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Author     *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	ReplyToID  *uuid.UUID     `gorm:"type:uuid;index" json:"reply_to_id,omitempty"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	IsArchived bool           `gorm:"default:false" json:"is_archived"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
