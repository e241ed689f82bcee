package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"superteam-earn/internal/models"
)

type PoWInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Skills      []string `json:"skills"`
}

// PoWService manages proof-of-work entries on talent profiles
type PoWService struct {
	db *gorm.DB
}

func NewPoWService(db *gorm.DB) *PoWService {
	return &PoWService{db: db}
}

// ListByUser returns a user's proof-of-work, newest first
func (s *PoWService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PoW, error) {
	var entries []models.PoW
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

// Create adds a proof-of-work entry
func (s *PoWService) Create(ctx context.Context, userID uuid.UUID, input PoWInput) (*models.PoW, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	link := strings.TrimSpace(input.Link)
	if u, err := url.ParseRequestURI(link); err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: link must be an absolute URL", ErrInvalidInput)
	}

	entry := &models.PoW{
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		Link:        link,
		Skills:      models.StringList(input.Skills),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create proof of work: %w", err)
	}
	return entry, nil
}

// Delete removes the user's own entry
func (s *PoWService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	var entry models.PoW
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	if entry.UserID != userID {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Delete(&entry).Error
}
