package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"superteam-earn/internal/eligibility"
	"superteam-earn/internal/models"
)

// UserService handles user-related business logic
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Username  *string   `json:"username"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Photo     *string   `json:"photo"`
	Bio       *string   `json:"bio"`
	Location  *string   `json:"location"`
	Skills    *[]string `json:"skills"`
	Twitter   *string   `json:"twitter"`
	Github    *string   `json:"github"`
}

// TalentProfile is the public view of a talent
type TalentProfile struct {
	User        *models.User `json:"user"`
	PoW         []models.PoW `json:"pow"`
	Wins        int64        `json:"wins"`
	Submissions int64        `json:"submissions"`
}

// KYCStatus summarises a user's identity verification
type KYCStatus struct {
	Verified  bool       `json:"verified"`
	Expired   bool       `json:"expired"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a profile update, keeping usernames unique
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*update.Username))
		if len(username) < 3 || len(username) > 40 {
			return nil, fmt.Errorf("%w: username must be 3 to 40 characters", ErrInvalidInput)
		}
		if username != user.Username {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.User{}).
				Where("username = ? AND id <> ?", username, userID).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrUsernameTaken
			}
			user.Username = username
		}
	}

	setString(&user.FirstName, update.FirstName)
	setString(&user.LastName, update.LastName)
	setString(&user.Photo, update.Photo)
	setString(&user.Bio, update.Bio)
	setString(&user.Location, update.Location)
	setString(&user.Twitter, update.Twitter)
	setString(&user.Github, update.Github)
	if update.Skills != nil {
		user.Skills = models.StringList(*update.Skills)
	}

	user.IsTalentFilled = user.FirstName != "" && user.LastName != "" &&
		user.Location != "" && len(user.Skills) > 0

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// GetTalentProfile returns the public profile of the user with username
func (s *UserService) GetTalentProfile(ctx context.Context, username string) (*TalentProfile, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	profile := &TalentProfile{User: &user}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&profile.PoW).Error; err != nil {
		return nil, err
	}

	submissions := s.db.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ? AND is_archived = ?", user.ID, false)
	if err := submissions.Count(&profile.Submissions).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Submission{}).
		Joins("JOIN listings ON listings.id = submissions.listing_id").
		Where("submissions.user_id = ? AND submissions.is_winner = ? AND listings.is_winners_announced = ?", user.ID, true, true).
		Count(&profile.Wins).Error; err != nil {
		return nil, err
	}

	return profile, nil
}

// GetKYCStatus reports whether the user holds a valid identity verification
func (s *UserService) GetKYCStatus(ctx context.Context, userID uuid.UUID, now time.Time) (*KYCStatus, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	state := eligibility.KYCStateOf(user)
	expired := eligibility.IsKycExpired(state, now)
	return &KYCStatus{
		Verified:  user.IsKYCVerified && !expired,
		Expired:   expired,
		ExpiresAt: user.KYCExpiresAt,
	}, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
