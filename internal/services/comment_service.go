package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"superteam-earn/internal/models"
)

const maxCommentLength = 5000

type CommentInput struct {
	RefType   models.CommentRefType `json:"ref_type"`
	RefID     uuid.UUID             `json:"ref_id"`
	Message   string                `json:"message"`
	ReplyToID *uuid.UUID            `json:"reply_to_id"`
}

// CommentService handles discussion threads on listings, grants and submissions
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// List returns the visible comments of a ref, newest first
func (s *CommentService) List(ctx context.Context, refType models.CommentRefType, refID uuid.UUID, limit, offset int) ([]models.Comment, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}

	query := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("ref_type = ? AND ref_id = ? AND is_active = ? AND is_archived = ?", refType, refID, true, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := query.
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, total, err
}

// Create posts a comment, optionally as a reply within the same thread
func (s *CommentService) Create(ctx context.Context, authorID uuid.UUID, input CommentInput) (*models.Comment, error) {
	switch input.RefType {
	case models.CommentRefBounty, models.CommentRefGrant, models.CommentRefSubmission:
	default:
		return nil, fmt.Errorf("%w: unknown ref type %q", ErrInvalidInput, input.RefType)
	}
	if input.RefID == uuid.Nil {
		return nil, fmt.Errorf("%w: ref id is required", ErrInvalidInput)
	}
	message := strings.TrimSpace(input.Message)
	if message == "" || len(message) > maxCommentLength {
		return nil, fmt.Errorf("%w: message must be 1 to %d characters", ErrInvalidInput, maxCommentLength)
	}

	if err := s.refExists(ctx, input.RefType, input.RefID); err != nil {
		return nil, err
	}

	if input.ReplyToID != nil {
		var parent models.Comment
		err := s.db.WithContext(ctx).
			Where("id = ? AND ref_type = ? AND ref_id = ? AND is_archived = ?", *input.ReplyToID, input.RefType, input.RefID, false).
			First(&parent).Error
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("%w: reply target not found", ErrInvalidInput)
			}
			return nil, err
		}
	}

	comment := &models.Comment{
		RefType:   input.RefType,
		RefID:     input.RefID,
		AuthorID:  authorID,
		Message:   message,
		ReplyToID: input.ReplyToID,
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// Delete archives the author's own comment
func (s *CommentService) Delete(ctx context.Context, authorID, commentID uuid.UUID) error {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Where("id = ? AND is_archived = ?", commentID, false).First(&comment).Error; err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	if comment.AuthorID != authorID {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Model(&comment).Updates(map[string]interface{}{
		"is_archived": true,
		"is_active":   false,
	}).Error
}

func (s *CommentService) refExists(ctx context.Context, refType models.CommentRefType, refID uuid.UUID) error {
	var model interface{}
	switch refType {
	case models.CommentRefBounty:
		model = &models.Listing{}
	case models.CommentRefGrant:
		model = &models.Grant{}
	default:
		model = &models.Submission{}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", refID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
